package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache 内存缓存实现
type MemoryCache struct {
	data  map[string]cacheEntry
	mutex sync.Mutex
	stats Stats
	now   func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
}

// Get 获取缓存
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.data[key]
	if !exists {
		c.stats.Misses++
		return "", false, nil
	}

	// 检查TTL
	if entry.expired(c.now()) {
		delete(c.data, key)
		c.stats.Size = int64(len(c.data))
		c.stats.Misses++
		return "", false, nil
	}

	c.stats.Hits++
	return entry.Value, true, nil
}

// Set 设置带过期时间的缓存
func (c *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheEntry{
		Value:     value,
		Timestamp: c.now(),
		TTL:       ttl,
	}
	c.stats.Size = int64(len(c.data))
	return nil
}

// Delete 删除缓存
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	c.stats.Size = int64(len(c.data))
	return nil
}

// Clear 清除所有缓存
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]cacheEntry)
	c.stats = Stats{}
	return nil
}

// Stats 获取缓存统计信息
func (c *MemoryCache) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.stats
}

// Close 内存缓存无需释放资源
func (c *MemoryCache) Close() error {
	return nil
}
