package translation

import (
	"context"
	"time"
)

// Provider 翻译提供商接口
//
// Translate 将文本翻译为所有已配置的 locale。失败时返回 *Error：
// 额度耗尽为 KindQuotaExceeded，其他不可恢复的错误为 KindTranslationFailed。
// 成功返回的结果其 locale 集合总是与配置一致。
type Provider interface {
	// Translate 执行翻译
	Translate(ctx context.Context, text string) (*Result, error)

	// GetName 获取提供商名称
	GetName() string
}

// Cache 缓存接口
type Cache interface {
	// Get 获取缓存
	Get(ctx context.Context, key string) (string, bool, error)

	// Set 设置带过期时间的缓存，ttl <= 0 表示不过期
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// Catalog 本地化消息目录
type Catalog interface {
	// NotFound 返回指定 locale 的"未找到翻译"占位文本
	NotFound(locale string) string
}
