package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-locale-translator/internal/i18n"
	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/factory"
	"github.com/nerdneilsfield/go-locale-translator/pkg/translation"
)

var (
	// translate 命令的标志
	providerName string
	outputFormat string
	messageLang  string
	timeout      time.Duration
)

// newTranslateCommand 创建 translate 命令
func newTranslateCommand(deps factory.Options) *cobra.Command {
	providerName = factory.ManagerName
	outputFormat = FormatText
	messageLang = i18n.DefaultLanguage
	timeout = 0

	translateCmd := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text into all configured locales",
		Long: `将文本翻译为所有已配置的 locale。未给出参数时从标准输入读取文本。

Examples:
  # 使用故障转移管理器翻译
  translator translate "Привет, мир"

  # 只使用 OpenAI，输出 JSON
  translator translate --provider openai --output json "Привет"

  # 从标准输入读取，错误消息使用乌克兰语
  echo "Привет" | translator translate --lang uk`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args, deps)
		},
	}

	translateCmd.Flags().StringVarP(&providerName, "provider", "p", providerName, "翻译提供商 (manager, deepl, openai)")
	translateCmd.Flags().StringVarP(&outputFormat, "output", "o", outputFormat, "输出格式 (text, json, table)")
	translateCmd.Flags().StringVar(&messageLang, "lang", messageLang, "错误消息使用的语言")
	translateCmd.Flags().DurationVar(&timeout, "timeout", timeout, "整个翻译调用的超时时间，0 表示不限制")

	return translateCmd
}

// runTranslate 执行 translate 命令
func runTranslate(cmd *cobra.Command, args []string, deps factory.Options) error {
	if !isValidFormat(outputFormat) {
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}

	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	requestID := uuid.NewString()
	log = log.With(zap.String("request_id", requestID))

	deps.Logger = log
	stack, err := factory.Build(cmd.Context(), cfg, deps)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Close(); err != nil {
			log.Warn("failed to close translation stack", zap.Error(err))
		}
	}()

	provider, err := stack.Provider(providerName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.Debug("translating",
		zap.String("provider", provider.GetName()),
		zap.Strings("locales", cfg.Locales),
		zap.String("text_preview", translation.Preview(text, 50)))

	startTime := time.Now()
	result, err := provider.Translate(ctx, text)
	if err != nil {
		log.Error("translation failed", zap.String("provider", provider.GetName()), zap.Error(err))
		color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), stack.Catalog.UserMessage(err, messageLang))
		return fmt.Errorf("translate with %s: %w", provider.GetName(), err)
	}

	log.Info("translation completed",
		zap.String("provider", provider.GetName()),
		zap.Int("locales", result.Len()),
		zap.Duration("duration", time.Since(startTime)))

	return renderResult(cmd.OutOrStdout(), outputFormat, Output{
		RequestID:    requestID,
		Provider:     provider.GetName(),
		Translations: result.Translations(),
	})
}

// readInput 从参数或标准输入读取待翻译文本
func readInput(args []string, stdin io.Reader) (string, error) {
	var text string
	if len(args) > 0 {
		text = args[0]
	} else {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\r\n")
	}

	if strings.TrimSpace(text) == "" {
		return "", translation.ErrEmptyText
	}
	return text, nil
}
