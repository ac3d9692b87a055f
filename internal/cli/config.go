package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-locale-translator/internal/config"
)

// NewConfigCommand 创建 config 命令
func NewConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the configuration after files and environment are merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() {
				_ = log.Sync()
			}()

			handleShowConfig(cmd, cfg)
			return nil
		},
	})

	return configCmd
}

// handleShowConfig 以表格显示配置，密钥会被隐藏
func handleShowConfig(cmd *cobra.Command, cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.SetTitle("Configuration")
	t.AppendHeader(table.Row{"Key", "Value"})

	t.AppendRows([]table.Row{
		{"locales", strings.Join(cfg.Locales, ", ")},
		{"log_level", cfg.LogLevel},
	})
	t.AppendSeparator()

	deeplRetry := cfg.DeepL.Retry()
	deeplRequest, deeplConnect := cfg.DeepL.Timeouts()
	t.AppendRows([]table.Row{
		{"deepl.api_key", maskSecret(cfg.DeepL.APIKey)},
		{"deepl.api_endpoint", valueOr(cfg.DeepL.APIEndpoint, "(auto)")},
		{"deepl.use_free_api", cfg.DeepL.UseFreeAPI},
		{"deepl.timeouts", fmt.Sprintf("request %s, connect %s", deeplRequest, deeplConnect)},
		{"deepl.retry", fmt.Sprintf("%d times, %s apart", deeplRetry.Times, deeplRetry.Sleep)},
		{"deepl.locale_map", formatLocaleMap(cfg.DeepL.LocaleMap)},
	})
	t.AppendSeparator()

	openaiRetry := cfg.OpenAI.Retry()
	openaiRequest, openaiConnect := cfg.OpenAI.Timeouts()
	t.AppendRows([]table.Row{
		{"openai.api_key", maskSecret(cfg.OpenAI.APIKey)},
		{"openai.base_url", valueOr(cfg.OpenAI.BaseURL, "(default)")},
		{"openai.model", cfg.OpenAI.Model},
		{"openai.temperature", cfg.OpenAI.Temperature},
		{"openai.timeouts", fmt.Sprintf("request %s, connect %s", openaiRequest, openaiConnect)},
		{"openai.retry", fmt.Sprintf("%d times, %s apart", openaiRetry.Times, openaiRetry.Sleep)},
	})
	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"cache.enabled", cfg.Cache.Enabled},
		{"cache.driver", cfg.Cache.Driver},
		{"cache.wrap", cfg.Cache.Wrap},
		{"cache.ttl", cfg.Cache.TTLDuration()},
		{"cache.prefix", cfg.Cache.Prefix},
		{"cache.dir", cfg.Cache.Dir},
		{"cache.dsn", maskSecret(cfg.Cache.DSN)},
	})
	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"stats.enabled", cfg.Stats.Enabled},
		{"stats.path", cfg.Stats.Path},
		{"stats.save_interval", cfg.Stats.SaveIntervalDuration()},
	})

	t.Render()
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func formatLocaleMap(m map[string]string) string {
	if len(m) == 0 {
		return "(none)"
	}
	pairs := make([]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}
