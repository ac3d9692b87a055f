package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
)

// ProviderStats 提供商统计
type ProviderStats struct {
	ProviderName       string `json:"provider_name"`
	ModelName          string `json:"model_name"`
	TotalRequests      int64  `json:"total_requests"`
	SuccessfulRequests int64  `json:"successful_requests"`
	FailedRequests     int64  `json:"failed_requests"`

	// 输入输出规模
	TotalCharacters int64 `json:"total_characters"` // 输入文本字符数
	LocalesReturned int64 `json:"locales_returned"` // 成功结果中的 locale 总数
	Placeholders    int64 `json:"placeholders"`     // 被替换为占位文本的 locale 数

	// 性能指标
	AverageLatency time.Duration `json:"average_latency"`
	MinLatency     time.Duration `json:"min_latency"`
	MaxLatency     time.Duration `json:"max_latency"`
	TotalLatency   time.Duration `json:"total_latency"`

	// 错误统计，按错误类型计数
	ErrorKinds map[string]int64 `json:"error_kinds"`

	// 时间统计
	FirstRequestTime time.Time `json:"first_request_time"`
	LastRequestTime  time.Time `json:"last_request_time"`

	mu sync.RWMutex `json:"-"`
}

// RequestResult 单次请求结果
type RequestResult struct {
	Success      bool
	Latency      time.Duration
	Characters   int
	Locales      int
	Placeholders int
	ErrorKind    string
}

// StatsManager 统计管理器
type StatsManager struct {
	stats  map[string]*ProviderStats // key: provider:model
	dbPath string
	logger *zap.Logger
	now    func() time.Time
	mu     sync.RWMutex
}

// NewStatsManager 创建统计管理器，dbPath 为空时不持久化
func NewStatsManager(dbPath string, logger *zap.Logger) *StatsManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsManager{
		stats:  make(map[string]*ProviderStats),
		dbPath: dbPath,
		logger: logger,
		now:    time.Now,
	}
}

// Path 返回持久化文件路径
func (sm *StatsManager) Path() string {
	return sm.dbPath
}

// getKey 获取统计键
func (sm *StatsManager) getKey(provider, model string) string {
	return fmt.Sprintf("%s:%s", provider, model)
}

// getOrCreateStats 获取或创建统计对象
func (sm *StatsManager) getOrCreateStats(provider, model string) *ProviderStats {
	key := sm.getKey(provider, model)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if stats, exists := sm.stats[key]; exists {
		return stats
	}

	stats := &ProviderStats{
		ProviderName: provider,
		ModelName:    model,
		ErrorKinds:   make(map[string]int64),
	}

	sm.stats[key] = stats
	return stats
}

// RecordRequest 记录请求结果
func (sm *StatsManager) RecordRequest(provider, model string, result RequestResult) {
	stats := sm.getOrCreateStats(provider, model)

	stats.mu.Lock()
	defer stats.mu.Unlock()

	now := sm.now()
	if stats.FirstRequestTime.IsZero() {
		stats.FirstRequestTime = now
	}
	stats.LastRequestTime = now

	stats.TotalRequests++
	stats.TotalCharacters += int64(result.Characters)

	if result.Success {
		stats.SuccessfulRequests++
		stats.LocalesReturned += int64(result.Locales)
		stats.Placeholders += int64(result.Placeholders)
	} else {
		stats.FailedRequests++
		if result.ErrorKind != "" {
			stats.ErrorKinds[result.ErrorKind]++
		}
	}

	// 延迟统计
	stats.TotalLatency += result.Latency
	if stats.TotalRequests == 1 || result.Latency < stats.MinLatency {
		stats.MinLatency = result.Latency
	}
	if result.Latency > stats.MaxLatency {
		stats.MaxLatency = result.Latency
	}
	stats.AverageLatency = stats.TotalLatency / time.Duration(stats.TotalRequests)
}

// copyStats 复制统计对象，调用方需持有读锁
func copyStats(stats *ProviderStats) *ProviderStats {
	statsCopy := &ProviderStats{
		ProviderName:       stats.ProviderName,
		ModelName:          stats.ModelName,
		TotalRequests:      stats.TotalRequests,
		SuccessfulRequests: stats.SuccessfulRequests,
		FailedRequests:     stats.FailedRequests,
		TotalCharacters:    stats.TotalCharacters,
		LocalesReturned:    stats.LocalesReturned,
		Placeholders:       stats.Placeholders,
		AverageLatency:     stats.AverageLatency,
		MinLatency:         stats.MinLatency,
		MaxLatency:         stats.MaxLatency,
		TotalLatency:       stats.TotalLatency,
		ErrorKinds:         make(map[string]int64, len(stats.ErrorKinds)),
		FirstRequestTime:   stats.FirstRequestTime,
		LastRequestTime:    stats.LastRequestTime,
	}
	for k, v := range stats.ErrorKinds {
		statsCopy.ErrorKinds[k] = v
	}
	return statsCopy
}

// GetStats 获取指定提供商的统计信息副本
func (sm *StatsManager) GetStats(provider, model string) *ProviderStats {
	key := sm.getKey(provider, model)

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	stats, exists := sm.stats[key]
	if !exists {
		return nil
	}

	stats.mu.RLock()
	defer stats.mu.RUnlock()
	return copyStats(stats)
}

// GetAllStats 获取所有统计信息
func (sm *StatsManager) GetAllStats() map[string]*ProviderStats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	result := make(map[string]*ProviderStats, len(sm.stats))
	for key, stats := range sm.stats {
		stats.mu.RLock()
		result[key] = copyStats(stats)
		stats.mu.RUnlock()
	}

	return result
}

// Metrics 派生指标
type Metrics struct {
	SuccessRate     float64
	ErrorRate       float64
	PlaceholderRate float64
}

// CalculateMetrics 计算性能指标
func (ps *ProviderStats) CalculateMetrics() Metrics {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var m Metrics
	if ps.TotalRequests > 0 {
		m.SuccessRate = float64(ps.SuccessfulRequests) / float64(ps.TotalRequests) * 100
		m.ErrorRate = float64(ps.FailedRequests) / float64(ps.TotalRequests) * 100
	}
	if ps.LocalesReturned > 0 {
		m.PlaceholderRate = float64(ps.Placeholders) / float64(ps.LocalesReturned) * 100
	}
	return m
}

// SaveToDB 保存统计数据到文件
func (sm *StatsManager) SaveToDB() error {
	if sm.dbPath == "" {
		return nil
	}

	// 确保目录存在
	if err := os.MkdirAll(filepath.Dir(sm.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(sm.GetAllStats(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats data: %w", err)
	}

	tempPath := sm.dbPath + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}

	if err := os.Rename(tempPath, sm.dbPath); err != nil {
		return fmt.Errorf("failed to rename stats file: %w", err)
	}

	sm.logger.Debug("stats saved", zap.String("path", sm.dbPath))
	return nil
}

// LoadFromDB 从文件加载统计数据，文件不存在时从空数据开始
func (sm *StatsManager) LoadFromDB() error {
	if sm.dbPath == "" {
		return nil
	}

	data, err := os.ReadFile(sm.dbPath)
	if os.IsNotExist(err) {
		sm.logger.Debug("stats file not found, starting fresh", zap.String("path", sm.dbPath))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stats file: %w", err)
	}

	var statsData map[string]*ProviderStats
	if err := json.Unmarshal(data, &statsData); err != nil {
		return fmt.Errorf("failed to unmarshal stats data: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	for key, stats := range statsData {
		if stats.ErrorKinds == nil {
			stats.ErrorKinds = make(map[string]int64)
		}
		sm.stats[key] = stats
	}

	sm.logger.Debug("stats loaded",
		zap.String("path", sm.dbPath),
		zap.Int("providers", len(statsData)))

	return nil
}

// RenderTable 将统计表格写入 w
func (sm *StatsManager) RenderTable(w io.Writer) {
	allStats := sm.GetAllStats()
	if len(allStats) == 0 {
		fmt.Fprintln(w, "No statistics available.")
		return
	}

	keys := make([]string, 0, len(allStats))
	for key := range allStats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Provider Statistics")
	tw.AppendHeader(table.Row{"Provider", "Model", "Requests", "Success%", "Quota", "Failed", "Placeholder%", "Avg Latency", "Max Latency"})

	for _, key := range keys {
		stats := allStats[key]
		metrics := stats.CalculateMetrics()
		tw.AppendRow(table.Row{
			stats.ProviderName,
			stats.ModelName,
			stats.TotalRequests,
			fmt.Sprintf("%.1f", metrics.SuccessRate),
			stats.ErrorKinds["quota_exceeded"],
			stats.ErrorKinds["translation_failed"],
			fmt.Sprintf("%.1f", metrics.PlaceholderRate),
			stats.AverageLatency.Round(time.Millisecond).String(),
			stats.MaxLatency.Round(time.Millisecond).String(),
		})
	}

	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// AutoSaveRoutine 定期自动保存统计数据
func (sm *StatsManager) AutoSaveRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// 最后一次保存
			if err := sm.SaveToDB(); err != nil {
				sm.logger.Error("failed to save stats on shutdown", zap.Error(err))
			}
			return
		case <-ticker.C:
			if err := sm.SaveToDB(); err != nil {
				sm.logger.Error("failed to auto-save stats", zap.Error(err))
			}
		}
	}
}
