package providers

import (
	"net"
	"net/http"
	"time"

	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/retry"
)

// BaseConfig 基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`

	// 超时
	Timeout        time.Duration `json:"timeout"`         // 单次请求超时
	ConnectTimeout time.Duration `json:"connect_timeout"` // 建立连接超时

	// 重试
	Retry retry.Policy `json:"retry"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		Timeout:        30 * time.Second,
		ConnectTimeout: 10 * time.Second,
		Retry:          retry.DefaultPolicy(),
		Headers:        make(map[string]string),
	}
}

// NewHTTPClient 根据超时配置创建HTTP客户端
func NewHTTPClient(config BaseConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.ConnectTimeout > 0 {
		dialer := &net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}
		transport.DialContext = dialer.DialContext
		transport.TLSHandshakeTimeout = config.ConnectTimeout
	}

	return &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
	}
}
