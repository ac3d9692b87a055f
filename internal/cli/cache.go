package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-locale-translator/internal/config"
	"github.com/nerdneilsfield/go-locale-translator/pkg/cache"
)

// NewCacheCommand 创建 cache 命令
func NewCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the translation cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached translation",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear,
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL cache schema migrations",
		Args:  cobra.NoArgs,
		RunE:  runCacheMigrate,
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired entries from the PostgreSQL cache",
		Args:  cobra.NoArgs,
		RunE:  runCachePurge,
	})

	return cacheCmd
}

// openStore 按配置打开缓存存储
func openStore(cmd *cobra.Command, cfg *config.Config, log *zap.Logger) (cache.Store, error) {
	store, err := cache.New(cmd.Context(), cache.Config{
		Driver: cfg.Cache.Driver,
		Dir:    cfg.Cache.Dir,
		DSN:    cfg.Cache.DSN,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open cache store: %w", err)
	}
	return store, nil
}

// runCacheClear 执行 cache clear 命令
func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.Cache.Driver == cache.DriverMemory {
		fmt.Fprintln(cmd.OutOrStdout(), "The memory cache lives only for a single process, nothing to clear")
		return nil
	}

	store, err := openStore(cmd, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(cmd.Context()); err != nil {
		return err
	}

	log.Info("translation cache cleared", zap.String("driver", cfg.Cache.Driver))
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Cleared %s cache\n", cfg.Cache.Driver)
	return nil
}

// runCacheMigrate 执行 cache migrate 命令
func runCacheMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.Cache.DSN == "" {
		return fmt.Errorf("cache.dsn is required to run migrations")
	}

	version, err := cache.Migrate(cfg.Cache.DSN)
	if err != nil {
		return err
	}

	log.Info("cache migrations applied", zap.Uint("version", version))
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Cache schema at version %d\n", version)
	return nil
}

// runCachePurge 执行 cache purge 命令
func runCachePurge(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.Cache.Driver != cache.DriverPostgres {
		return fmt.Errorf("purge is only supported by the %s driver, current driver is %s", cache.DriverPostgres, cfg.Cache.Driver)
	}

	store, err := cache.NewPostgresCache(cmd.Context(), cfg.Cache.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.PurgeExpired(cmd.Context())
	if err != nil {
		return err
	}

	log.Info("expired cache entries purged", zap.Int64("removed", removed))
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Removed %d expired entries\n", removed)
	return nil
}
