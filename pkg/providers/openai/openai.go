package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-locale-translator/pkg/translation"
)

// Name 提供商名称
const Name = "openai"

// DefaultModel 默认模型
const DefaultModel = "gpt-4o-mini"

// DefaultSystemPrompt 默认系统提示词，:locales 会被替换为逗号分隔的 locale 列表
const DefaultSystemPrompt = `You are a professional multi-language translator.
Translate the provided text into the following languages: :locales.
Return the result STRICTLY as a JSON object where keys are language codes and values are translated strings.
Example: {"en": "Hello", "uk": "Привіт", "es": "Hola"}`

// 解析失败和错误分类对应的消息
const (
	msgEmptyResponse    = "empty response"
	msgAuthFailed       = "authentication failed"
	msgUnexpectedShape  = "translation failed: unexpected response shape"
	msgInternalError    = "translation failed: internal error"
	localesPlaceholder  = ":locales"
	codeInvalidAPIKey   = "invalid_api_key"
	codeInsufficient    = "insufficient_quota"
	codeBillingHardStop = "billing_hard_limit_reached"
)

// Options 提供商选项
type Options struct {
	Locales      []string
	Model        string
	SystemPrompt string
	Temperature  float64
	Retry        retry.Policy
	Catalog      translation.Catalog
	Logger       *zap.Logger
}

// Provider OpenAI 批量翻译提供商
//
// 一次请求返回所有 locale 的译文，响应必须是以 locale 为键的 JSON 对象。
type Provider struct {
	client       ChatClient
	locales      []string
	model        string
	systemPrompt string
	temperature  float64
	policy       retry.Policy
	sanitizer    *translation.Sanitizer
	logger       *zap.Logger
}

// 确保 Provider 实现 translation.Provider 接口
var _ translation.Provider = (*Provider)(nil)

// New 创建 OpenAI 提供商
func New(client ChatClient, opts Options) *Provider {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	return &Provider{
		client:       client,
		locales:      append([]string(nil), opts.Locales...),
		model:        model,
		systemPrompt: prompt,
		temperature:  opts.Temperature,
		policy:       opts.Retry,
		sanitizer:    translation.NewSanitizer(opts.Locales, opts.Catalog, logger),
		logger:       logger,
	}
}

// GetName 获取提供商名称
func (p *Provider) GetName() string {
	return Name
}

// Translate 一次请求翻译所有 locale
func (p *Provider) Translate(ctx context.Context, text string) (*translation.Result, error) {
	req := ChatRequest{
		Model:        p.model,
		SystemPrompt: p.buildSystemPrompt(),
		Text:         text,
		Temperature:  p.temperature,
	}

	raw, err := retry.Do(ctx, p.policy, p.shouldRetry, func(ctx context.Context) (map[string]string, error) {
		content, err := p.client.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		return p.parseResponse(content)
	})
	if err != nil {
		return nil, p.handleError(err, text)
	}

	return p.sanitizer.SanitizeResult(Name, raw), nil
}

// buildSystemPrompt 将 locale 列表代入提示词模板
func (p *Provider) buildSystemPrompt() string {
	return strings.ReplaceAll(p.systemPrompt, localesPlaceholder, strings.Join(p.locales, ", "))
}

// parseResponse 校验响应内容并提取各 locale 的译文
func (p *Provider) parseResponse(content string) (map[string]string, error) {
	if strings.TrimSpace(content) == "" {
		return nil, translation.NewTranslationFailedError(Name, msgEmptyResponse, nil)
	}

	if !gjson.Valid(content) {
		return nil, translation.NewTranslationFailedError(Name, translation.InvalidJSONMessage, nil)
	}
	parsed := gjson.Parse(content)
	if !parsed.IsObject() {
		return nil, translation.NewTranslationFailedError(Name, translation.InvalidJSONMessage, nil)
	}

	raw := make(map[string]string)
	parsed.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			raw[key.String()] = value.String()
		}
		return true
	})

	for _, locale := range p.locales {
		if _, ok := raw[locale]; !ok {
			return nil, translation.NewTranslationFailedError(Name, translation.MissingLocalePrefix+locale, nil)
		}
	}

	return raw, nil
}

// shouldRetry 额度、认证、结构性错误和已分类的翻译失败都不重试
func (p *Provider) shouldRetry(err error) bool {
	switch {
	case isQuotaError(err), isAuthError(err):
		return false
	case translation.IsTranslationFailed(err):
		return false
	case isStructuralError(err):
		return false
	case errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

// handleError 将最终错误转换为统一的错误类型
func (p *Provider) handleError(err error, text string) error {
	preview := zap.String("text_preview", translation.Preview(text, 50))

	if isQuotaError(err) {
		p.logger.Error("openai quota exceeded", zap.String("provider", Name), preview, zap.Error(err))
		return translation.NewQuotaExceededError(Name, err)
	}

	var failed *translation.Error
	if errors.As(err, &failed) && failed.Kind == translation.KindTranslationFailed {
		return err
	}

	if isAuthError(err) {
		p.logger.Error("openai authentication failed", zap.String("provider", Name), zap.Error(err))
		return translation.NewTranslationFailedError(Name, msgAuthFailed, err)
	}

	if isTransportError(err) {
		p.logger.Warn("openai: network issues detected", zap.String("provider", Name), preview, zap.Error(err))
		return translation.NewTranslationFailedError(Name, translation.TimeoutMessage, err)
	}

	if isStructuralError(err) {
		p.logger.Error("openai returned an unexpected response shape", zap.String("provider", Name), preview, zap.Error(err))
		return translation.NewTranslationFailedError(Name, msgUnexpectedShape, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		p.logger.Error("openai API error", zap.String("provider", Name), preview,
			zap.Int("status", apiErr.StatusCode),
			zap.String("code", apiErr.Code),
			zap.String("message", apiErr.Message))
		return translation.NewTranslationFailedError(Name, apiErr.Message, err)
	}

	p.logger.Error("openai unexpected translation error", zap.String("provider", Name), preview, zap.Error(err))
	return translation.NewTranslationFailedError(Name, msgInternalError, err)
}

// isQuotaError 判断是否为额度或账单限制错误
func isQuotaError(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeInsufficient ||
		apiErr.Code == codeBillingHardStop ||
		apiErr.Type == codeInsufficient
}

// isAuthError 判断是否为认证错误
func isAuthError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == codeInvalidAPIKey || apiErr.StatusCode == http.StatusUnauthorized {
			return true
		}
		return containsAuthMarker(apiErr.Message)
	}
	if isTransportError(err) {
		return false
	}
	return containsAuthMarker(err.Error())
}

func containsAuthMarker(msg string) bool {
	for _, marker := range []string{"Unauthorized", "Unauthenticated", "401"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// isStructuralError 判断是否为响应结构解码错误
func isStructuralError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// isTransportError 判断是否为传输层错误
func isTransportError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || retry.IsNetworkError(err)
}
