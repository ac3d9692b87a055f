package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/stats"
)

var (
	// stats 命令的标志
	resetStats bool
)

// NewStatsCommand 创建 stats 命令
func NewStatsCommand() *cobra.Command {
	resetStats = false

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "View provider statistics",
		Long: `查看每个提供商的请求统计：请求数、成功率、错误类型、占位文本比例和延迟。

统计在 stats.enabled 为 true 时由 translate 命令记录到 stats.path。

Examples:
  # 显示统计
  translator stats

  # 清空统计
  translator stats --reset`,
		Args: cobra.NoArgs,
		RunE: runStatsCommand,
	}

	statsCmd.Flags().BoolVar(&resetStats, "reset", false, "清空所有统计")

	return statsCmd
}

// runStatsCommand 执行 stats 命令
func runStatsCommand(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if resetStats {
		return handleStatsReset(cmd, cfg.Stats.Path, log)
	}

	manager := stats.NewStatsManager(cfg.Stats.Path, log)
	if err := manager.LoadFromDB(); err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}

	if !cfg.Stats.Enabled {
		color.New(color.FgYellow).Fprintln(cmd.ErrOrStderr(), "Statistics collection is disabled (stats.enabled: false)")
	}

	manager.RenderTable(cmd.OutOrStdout())
	return nil
}

// handleStatsReset 删除统计文件
func handleStatsReset(cmd *cobra.Command, statsPath string, log *zap.Logger) error {
	if err := os.Remove(statsPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to reset statistics: %w", err)
	}

	log.Info("statistics reset", zap.String("path", statsPath))
	color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Statistics reset")
	return nil
}
