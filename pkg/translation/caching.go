package translation

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
)

// DefaultCachePrefix 默认缓存键前缀
const DefaultCachePrefix = "translation"

// CachingProvider 带缓存的提供商装饰器
//
// 缓存键为 prefix:providerName:md5(text)。缓存值无法解析，或 locale 集合与
// 当前配置不一致时，视为未命中并重新翻译。
type CachingProvider struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	prefix   string
	locales  []string
	logger   *zap.Logger
}

// 确保 CachingProvider 实现 Provider 接口
var _ Provider = (*CachingProvider)(nil)

// NewCachingProvider 创建带缓存的提供商
func NewCachingProvider(provider Provider, cache Cache, ttl time.Duration, prefix string, logger *zap.Logger) *CachingProvider {
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingProvider{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		prefix:   prefix,
		logger:   logger,
	}
}

// WithLocales 设置期望的 locale 集合，集合不一致的缓存条目视为未命中
func (c *CachingProvider) WithLocales(locales []string) *CachingProvider {
	c.locales = slices.Clone(locales)
	slices.Sort(c.locales)
	return c
}

// Translate 读穿透缓存：命中直接返回，未命中调用被装饰的提供商并写入缓存
func (c *CachingProvider) Translate(ctx context.Context, text string) (*Result, error) {
	key := c.CacheKey(text)

	if result, ok := c.lookup(ctx, key); ok {
		c.logger.Debug("translation cache hit", zap.String("key", key))
		return result, nil
	}

	result, err := c.provider.Translate(ctx, text)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("failed to encode translation for cache", zap.String("key", key), zap.Error(err))
		return result, nil
	}
	if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Warn("failed to store translation in cache", zap.String("key", key), zap.Error(err))
	}

	return result, nil
}

// GetName 转发被装饰提供商的名称
func (c *CachingProvider) GetName() string {
	return c.provider.GetName()
}

// CacheKey 生成缓存键
func (c *CachingProvider) CacheKey(text string) string {
	hash := md5.Sum([]byte(text))
	return fmt.Sprintf("%s:%s:%x", c.prefix, c.GetName(), hash)
}

// lookup 读取并解析缓存，任何失败都视为未命中
func (c *CachingProvider) lookup(ctx context.Context, key string) (*Result, bool) {
	value, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("translation cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var result Result
	if err := json.Unmarshal([]byte(value), &result); err != nil || result.Len() == 0 {
		c.logger.Warn("discarding corrupted translation cache entry", zap.String("key", key))
		return nil, false
	}
	if c.locales != nil && !slices.Equal(result.Locales(), c.locales) {
		c.logger.Debug("discarding stale translation cache entry",
			zap.String("key", key),
			zap.Strings("cached", result.Locales()),
			zap.Strings("expected", c.locales),
		)
		return nil, false
	}
	return &result, true
}
