package translation

import (
	"context"

	"go.uber.org/zap"
)

// previewLength 日志中输入文本预览的最大字符数
const previewLength = 50

// FailoverManager 故障转移管理器
//
// 每次调用都先尝试主提供商，主提供商返回任何错误都切换到备用提供商。
// 不做熔断，也不在同一次调用中重试主提供商。
type FailoverManager struct {
	primary  Provider
	fallback Provider
	logger   *zap.Logger
}

// 确保 FailoverManager 实现 Provider 接口
var _ Provider = (*FailoverManager)(nil)

// NewFailoverManager 创建故障转移管理器
func NewFailoverManager(primary, fallback Provider, logger *zap.Logger) *FailoverManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailoverManager{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Translate 先用主提供商翻译，失败后切换到备用提供商
func (m *FailoverManager) Translate(ctx context.Context, text string) (*Result, error) {
	result, err := m.primary.Translate(ctx, text)
	if err == nil {
		return result, nil
	}

	m.logger.Warn("primary provider failed, switching to fallback",
		zap.String("primary", m.primary.GetName()),
		zap.String("fallback", m.fallback.GetName()),
		zap.Error(err),
		zap.String("text_preview", Preview(text, previewLength)))

	return m.fallback.Translate(ctx, text)
}

// GetName 获取提供商名称
func (m *FailoverManager) GetName() string {
	return "manager"
}

// Preview 截取文本前 n 个字符用于日志
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
