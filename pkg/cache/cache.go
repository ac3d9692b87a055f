// Package cache 提供翻译结果缓存的存储实现：内存、文件和 PostgreSQL
package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-locale-translator/pkg/translation"
)

// 存储驱动
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Stats 缓存统计信息
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int64 `json:"size"`
}

// Store 可管理的缓存存储
type Store interface {
	translation.Cache

	// Delete 删除缓存
	Delete(ctx context.Context, key string) error

	// Clear 清除所有缓存
	Clear(ctx context.Context) error

	// Stats 获取缓存统计信息
	Stats() Stats

	// Close 释放底层资源
	Close() error
}

// Config 缓存存储配置
type Config struct {
	Driver string // memory, file, postgres
	Dir    string // 文件缓存目录
	DSN    string // PostgreSQL 连接串
}

// cacheEntry 缓存条目
type cacheEntry struct {
	Value     string        `json:"value"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl,omitempty"`
}

// expired 是否已过期，TTL 为 0 表示不过期
func (e cacheEntry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.Timestamp) > e.TTL
}

// New 根据配置创建缓存存储
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryCache(), nil
	case DriverFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file cache requires a directory")
		}
		return NewFileCache(cfg.Dir, logger), nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres cache requires a DSN")
		}
		return NewPostgresCache(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", cfg.Driver)
	}
}
