package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerdneilsfield/go-locale-translator/pkg/providers"
)

const (
	// ProEndpoint DeepL Pro API 地址
	ProEndpoint = "https://api.deepl.com/v2"
	// FreeEndpoint DeepL Free API 地址
	FreeEndpoint = "https://api-free.deepl.com/v2"

	// StatusQuotaExceeded DeepL 的额度耗尽状态码
	StatusQuotaExceeded = 456
)

// Config DeepL配置
type Config struct {
	providers.BaseConfig
	UseFreeAPI bool `json:"use_free_api"` // 是否使用免费API
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig: providers.DefaultConfig(),
	}
}

// Translation 单个目标语言的翻译结果
type Translation struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
}

// Usage 账户用量
type Usage struct {
	CharacterCount int64 `json:"character_count"`
	CharacterLimit int64 `json:"character_limit"`
}

// APIError DeepL API 返回的错误
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("deepl: %s (status %d)", e.Message, e.StatusCode)
}

// Translator 单语言翻译客户端接口
type Translator interface {
	// TranslateText 将文本翻译为一个目标语言，sourceLang 为空时自动检测
	TranslateText(ctx context.Context, text, sourceLang, targetLang string) (*Translation, error)
}

// UsageReporter 可以查询账户用量的客户端
type UsageReporter interface {
	Usage(ctx context.Context) (*Usage, error)
}

// 确保 Client 实现 Translator 和 UsageReporter 接口
var (
	_ Translator    = (*Client)(nil)
	_ UsageReporter = (*Client)(nil)
)

// Client DeepL HTTP 客户端
type Client struct {
	config     Config
	httpClient *http.Client
}

// 确保 Client 实现 Translator 接口
var _ Translator = (*Client)(nil)

// NewClient 创建新的DeepL客户端
func NewClient(config Config) *Client {
	if config.APIEndpoint == "" {
		if config.UseFreeAPI || strings.HasSuffix(config.APIKey, ":fx") {
			config.APIEndpoint = FreeEndpoint
		} else {
			config.APIEndpoint = ProEndpoint
		}
	}
	config.APIEndpoint = strings.TrimRight(config.APIEndpoint, "/")

	return &Client{
		config:     config,
		httpClient: providers.NewHTTPClient(config.BaseConfig),
	}
}

// Endpoint 返回API地址
func (c *Client) Endpoint() string {
	return c.config.APIEndpoint
}

// TranslateText 执行翻译请求
func (c *Client) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (*Translation, error) {
	// 构建请求参数
	params := url.Values{}
	params.Set("text", text)
	if sourceLang != "" {
		params.Set("source_lang", strings.ToUpper(sourceLang))
	}
	params.Set("target_lang", strings.ToUpper(targetLang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.APIEndpoint+"/translate",
		strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		Translations []Translation `json:"translations"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Translations) == 0 {
		return nil, fmt.Errorf("deepl: no translation returned")
	}

	return &resp.Translations[0], nil
}

// Usage 查询账户用量，也用作健康检查
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.APIEndpoint+"/usage", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var usage Usage
	if err := c.do(req, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// do 发送请求并解析响应
func (c *Client) do(req *http.Request, out interface{}) error {
	// 设置头部
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.config.APIKey)
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// newAPIError 根据状态码和响应体构建错误
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	message := payload.Message
	if message == "" {
		// 处理特定错误码
		switch status {
		case http.StatusBadRequest:
			message = "bad request"
		case http.StatusForbidden:
			message = "authentication failed"
		case http.StatusNotFound:
			message = "requested resource not found"
		case http.StatusRequestEntityTooLarge:
			message = "request size exceeded"
		case http.StatusTooManyRequests:
			message = "too many requests"
		case StatusQuotaExceeded:
			message = "Quota exceeded"
		case http.StatusServiceUnavailable:
			message = "service temporarily unavailable"
		default:
			message = http.StatusText(status)
			if message == "" {
				message = "unexpected API error"
			}
		}
	}

	return &APIError{
		StatusCode: status,
		Message:    message,
	}
}
