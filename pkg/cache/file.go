package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileCache 文件缓存实现，每个键一个 JSON 文件，并带内存二级缓存
type FileCache struct {
	basePath string
	memory   *MemoryCache
	stats    Stats
	mutex    sync.Mutex
	logger   *zap.Logger
	now      func() time.Time
}

// NewFileCache 创建文件缓存
func NewFileCache(basePath string, logger *zap.Logger) *FileCache {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 确保缓存目录存在
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		// 如果创建目录失败，回退到内存缓存
		logger.Warn("failed to create cache directory, falling back to memory cache",
			zap.String("dir", basePath), zap.Error(err))
		basePath = ""
	}

	return &FileCache{
		basePath: basePath,
		memory:   NewMemoryCache(),
		logger:   logger,
		now:      time.Now,
	}
}

// getFilePath 获取缓存文件路径
func (c *FileCache) getFilePath(key string) string {
	if c.basePath == "" {
		return ""
	}
	return filepath.Join(c.basePath, fmt.Sprintf("%x.cache", md5.Sum([]byte(key))))
}

// Get 获取缓存
func (c *FileCache) Get(ctx context.Context, key string) (string, bool, error) {
	// 先检查内存缓存
	if value, ok, _ := c.memory.Get(ctx, key); ok {
		c.record(true)
		return value, true, nil
	}

	if c.basePath == "" {
		c.record(false)
		return "", false, nil
	}

	filePath := c.getFilePath(key)
	data, err := os.ReadFile(filePath)
	if err != nil {
		c.record(false)
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read cache file: %w", err)
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// 损坏的文件按未命中处理
		c.logger.Warn("removing unreadable cache file", zap.String("file", filePath), zap.Error(err))
		_ = os.Remove(filePath)
		c.record(false)
		return "", false, nil
	}

	now := c.now()
	if entry.expired(now) {
		_ = os.Remove(filePath)
		c.record(false)
		return "", false, nil
	}

	// 以剩余有效期放入内存缓存
	ttl := entry.TTL
	if ttl > 0 {
		ttl -= now.Sub(entry.Timestamp)
	}
	_ = c.memory.Set(ctx, key, entry.Value, ttl)

	c.record(true)
	return entry.Value, true, nil
}

// Set 设置带过期时间的缓存
func (c *FileCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}

	if c.basePath == "" {
		return nil
	}

	data, err := json.Marshal(cacheEntry{
		Value:     value,
		Timestamp: c.now(),
		TTL:       ttl,
	})
	if err != nil {
		return err
	}

	// 先写临时文件再重命名，避免读到写了一半的文件。每次写入使用独立的临时文件，
	// 并发写同一个键时以最后一次重命名为准
	tmp, err := os.CreateTemp(c.basePath, "*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmpPath, c.getFilePath(key)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename cache file: %w", err)
	}

	c.mutex.Lock()
	c.stats.Size = c.countFiles()
	c.mutex.Unlock()
	return nil
}

// Delete 删除缓存
func (c *FileCache) Delete(ctx context.Context, key string) error {
	_ = c.memory.Delete(ctx, key)

	if c.basePath == "" {
		return nil
	}

	if err := os.Remove(c.getFilePath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	c.mutex.Lock()
	c.stats.Size = c.countFiles()
	c.mutex.Unlock()
	return nil
}

// Clear 清除所有缓存
func (c *FileCache) Clear(ctx context.Context) error {
	_ = c.memory.Clear(ctx)

	if c.basePath != "" {
		// 删除缓存目录下的所有.cache文件
		files, err := filepath.Glob(filepath.Join(c.basePath, "*.cache"))
		if err != nil {
			return err
		}
		for _, file := range files {
			if err := os.Remove(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}

	c.mutex.Lock()
	c.stats = Stats{}
	c.mutex.Unlock()
	return nil
}

// Stats 获取缓存统计信息
func (c *FileCache) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.stats
}

// Close 文件缓存无需释放资源
func (c *FileCache) Close() error {
	return nil
}

func (c *FileCache) record(hit bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
}

// countFiles 统计缓存文件数，调用方需持有锁
func (c *FileCache) countFiles() int64 {
	files, err := filepath.Glob(filepath.Join(c.basePath, "*.cache"))
	if err != nil {
		return c.stats.Size
	}
	return int64(len(files))
}
