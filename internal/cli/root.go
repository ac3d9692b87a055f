package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-locale-translator/internal/config"
	"github.com/nerdneilsfield/go-locale-translator/internal/logger"
	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/factory"
)

var (
	// 命令行标志变量
	cfgFile   string
	debugMode bool
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	return newRootCommand(version, commit, buildDate, factory.Options{})
}

// newRootCommand 创建根命令，deps 中的客户端为 nil 时按配置创建
func newRootCommand(version, commit, buildDate string, deps factory.Options) *cobra.Command {
	cfgFile = ""
	debugMode = false

	rootCmd := &cobra.Command{
		Use:   "translator",
		Short: "Translate text into every configured locale in one call",
		Long: `translator 将一段文本同时翻译为所有已配置的 locale。

DeepL 作为主提供商逐个 locale 翻译，失败时自动切换到 OpenAI，
由 OpenAI 一次性返回所有 locale 的 JSON 结果。结果按配置缓存。

支持的翻译提供商:
  - deepl: DeepL 专业翻译
  - openai: OpenAI Chat Completions (JSON 输出)
  - manager: DeepL 优先，失败时切换到 OpenAI（默认）`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(rootCmd)

	// 添加子命令
	rootCmd.AddCommand(newTranslateCommand(deps))
	rootCmd.AddCommand(newProvidersCommand(deps))
	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewCacheCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// addGlobalFlags 添加全局标志
func addGlobalFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认查找 $HOME/.translator.yaml 和 ./.translator.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "启用调试日志")
}

// loadConfig 加载配置并创建日志记录器
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if debugMode || cfg.Debug {
		level = "debug"
	}
	log, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// newProvidersCommand 创建 providers 命令
func newProvidersCommand(deps factory.Options) *cobra.Command {
	var check bool

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List the providers available to the translate command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() {
				_ = log.Sync()
			}()

			deps.Logger = log
			stack, err := factory.Build(cmd.Context(), cfg, deps)
			if err != nil {
				return err
			}
			defer stack.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "支持的翻译提供商:")
			for _, name := range stack.Registry.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", name)
			}

			if !check {
				return nil
			}

			usage, err := stack.DeepLUsage(cmd.Context())
			if err != nil {
				log.Error("deepl health check failed", zap.Error(err))
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "deepl: %v\n", err)
				return fmt.Errorf("deepl health check: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ deepl: %d/%d characters used\n",
				usage.CharacterCount, usage.CharacterLimit)
			return nil
		},
	}

	providersCmd.Flags().BoolVar(&check, "check", false, "query the DeepL account usage to verify the API key")
	return providersCmd
}
