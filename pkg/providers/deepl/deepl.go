package deepl

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-locale-translator/pkg/translation"
)

// Name 提供商名称
const Name = "deepl"

// unknownErrorMessage 错误没有可用信息时的默认描述
const unknownErrorMessage = "an unknown error occurred during DeepL translation"

// Options 提供商选项
type Options struct {
	// Locales 需要翻译的目标 locale
	Locales []string

	// LocaleMap 应用 locale 到 DeepL 目标语言代码的映射，键不区分大小写，未映射的原样发送
	LocaleMap map[string]string

	// Retry 单个 locale 的重试策略
	Retry retry.Policy

	// Catalog 缺失译文的占位文本来源
	Catalog translation.Catalog

	Logger *zap.Logger
}

// Provider DeepL 翻译提供商
//
// 每个 locale 单独请求一次，每个请求独立重试。任一 locale 最终失败
// 都会使整个调用失败，之前已完成的 locale 结果不会返回。
type Provider struct {
	client    Translator
	locales   []string
	localeMap map[string]string
	policy    retry.Policy
	sanitizer *translation.Sanitizer
	logger    *zap.Logger
}

// 确保 Provider 实现 translation.Provider 接口
var _ translation.Provider = (*Provider)(nil)

// New 创建 DeepL 提供商
func New(client Translator, opts Options) *Provider {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	localeMap := make(map[string]string, len(opts.LocaleMap))
	for k, v := range opts.LocaleMap {
		localeMap[strings.ToLower(k)] = v
	}

	return &Provider{
		client:    client,
		locales:   append([]string(nil), opts.Locales...),
		localeMap: localeMap,
		policy:    opts.Retry,
		sanitizer: translation.NewSanitizer(opts.Locales, opts.Catalog, logger),
		logger:    logger,
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return Name
}

// Translate 将文本翻译为所有已配置的 locale
func (p *Provider) Translate(ctx context.Context, text string) (*translation.Result, error) {
	translations := make(map[string]string, len(p.locales))

	for _, locale := range p.locales {
		targetLang := p.targetLang(locale)

		translated, err := retry.Do(ctx, p.policy, p.shouldRetry, func(ctx context.Context) (string, error) {
			return p.translateSingle(ctx, text, targetLang)
		})
		if err != nil {
			return nil, p.handleError(err, text, locale, targetLang)
		}

		translations[locale] = translated
	}

	return p.sanitizer.SanitizeResult(Name, translations), nil
}

// translateSingle 翻译单个目标语言
func (p *Provider) translateSingle(ctx context.Context, text, targetLang string) (string, error) {
	result, err := p.client.TranslateText(ctx, text, "", targetLang)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// targetLang 查找 locale 对应的 DeepL 语言代码
func (p *Provider) targetLang(locale string) string {
	if mapped, ok := p.localeMap[strings.ToLower(locale)]; ok && mapped != "" {
		return mapped
	}
	return locale
}

// shouldRetry 额度耗尽、已分类的翻译失败和调用方取消都不重试
func (p *Provider) shouldRetry(err error) bool {
	if isQuotaError(err) {
		return false
	}
	if translation.IsTranslationFailed(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// handleError 将最终错误转换为统一的错误类型
func (p *Provider) handleError(err error, text, locale, targetLang string) error {
	fields := []zap.Field{
		zap.String("provider", Name),
		zap.String("target_locale", locale),
		zap.String("target_lang", targetLang),
		zap.String("text_preview", translation.Preview(text, 50)),
		zap.Error(err),
	}

	if isQuotaError(err) {
		p.logger.Error("deepl quota exceeded", fields...)
		return translation.NewQuotaExceededError(Name, err)
	}

	var failed *translation.Error
	if errors.As(err, &failed) && failed.Kind == translation.KindTranslationFailed {
		return err
	}

	p.logger.Error("deepl translation failed", fields...)

	message := unknownErrorMessage
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	} else if msg := err.Error(); msg != "" {
		message = msg
	}
	return translation.NewTranslationFailedError(Name, message, err)
}

// isQuotaError 判断是否为额度耗尽错误
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == StatusQuotaExceeded || strings.Contains(apiErr.Message, "Quota exceeded") {
			return true
		}
	}
	return strings.Contains(err.Error(), "Quota exceeded")
}
