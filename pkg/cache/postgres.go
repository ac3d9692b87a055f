package cache

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	queryGet = `SELECT value FROM translation_cache
WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`

	querySet = `INSERT INTO translation_cache (key, value, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`

	queryDelete = `DELETE FROM translation_cache WHERE key = $1`

	queryClear = `DELETE FROM translation_cache`

	queryPurge = `DELETE FROM translation_cache WHERE expires_at IS NOT NULL AND expires_at <= now()`

	queryCount = `SELECT count(*) FROM translation_cache`
)

// PostgresCache 基于 PostgreSQL 的共享缓存
type PostgresCache struct {
	pool   *pgxpool.Pool
	hits   atomic.Int64
	misses atomic.Int64
	size   atomic.Int64
}

// NewPostgresCache 连接数据库并创建缓存
func NewPostgresCache(ctx context.Context, dsn string) (*PostgresCache, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cache database connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cache database ping: %w", err)
	}

	return &PostgresCache{pool: pool}, nil
}

// Get 获取未过期的缓存
func (c *PostgresCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.pool.QueryRow(ctx, queryGet, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		c.misses.Add(1)
		return "", false, nil
	}
	if err != nil {
		c.misses.Add(1)
		return "", false, fmt.Errorf("cache get: %w", err)
	}

	c.hits.Add(1)
	return value, true, nil
}

// Set 写入或覆盖缓存，ttl <= 0 表示不过期
func (c *PostgresCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl).UTC()
		expiresAt = &t
	}

	if _, err := c.pool.Exec(ctx, querySet, key, value, expiresAt); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete 删除缓存
func (c *PostgresCache) Delete(ctx context.Context, key string) error {
	if _, err := c.pool.Exec(ctx, queryDelete, key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Clear 清除所有缓存
func (c *PostgresCache) Clear(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, queryClear); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	c.hits.Store(0)
	c.misses.Store(0)
	c.size.Store(0)
	return nil
}

// PurgeExpired 删除已过期的条目，返回删除的行数
func (c *PostgresCache) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, queryPurge)
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Refresh 重新统计表中的条目数
func (c *PostgresCache) Refresh(ctx context.Context) error {
	var count int64
	if err := c.pool.QueryRow(ctx, queryCount).Scan(&count); err != nil {
		return fmt.Errorf("cache count: %w", err)
	}
	c.size.Store(count)
	return nil
}

// Stats 获取缓存统计信息，Size 为最近一次 Refresh 的结果
func (c *PostgresCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.size.Load(),
	}
}

// Close 关闭连接池
func (c *PostgresCache) Close() error {
	c.pool.Close()
	return nil
}

// Migrate 应用缓存表的数据库迁移，返回当前版本
func Migrate(dsn string) (uint, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return 0, fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migration up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("migration version %d is dirty", version)
	}
	return version, nil
}
