package stats

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/nerdneilsfield/go-locale-translator/pkg/translation"
)

// ErrorKindCanceled 调用方取消或超时
const ErrorKindCanceled = "canceled"

// StatisticsMiddleware 统计中间件
type StatisticsMiddleware struct {
	next         translation.Provider
	statsManager *StatsManager
	modelName    string
	catalog      translation.Catalog
}

// 确保 StatisticsMiddleware 实现 translation.Provider 接口
var _ translation.Provider = (*StatisticsMiddleware)(nil)

// NewStatisticsMiddleware 创建统计中间件
//
// catalog 用于识别结果中的占位文本，为 nil 时不统计占位数。
func NewStatisticsMiddleware(next translation.Provider, statsManager *StatsManager, modelName string, catalog translation.Catalog) *StatisticsMiddleware {
	return &StatisticsMiddleware{
		next:         next,
		statsManager: statsManager,
		modelName:    modelName,
		catalog:      catalog,
	}
}

// Translate 带统计的翻译方法
func (sm *StatisticsMiddleware) Translate(ctx context.Context, text string) (*translation.Result, error) {
	startTime := time.Now()

	result, err := sm.next.Translate(ctx, text)

	sm.statsManager.RecordRequest(sm.next.GetName(), sm.modelName, sm.analyze(text, result, err, time.Since(startTime)))

	return result, err
}

// GetName 转发被包装提供商的名称
func (sm *StatisticsMiddleware) GetName() string {
	return sm.next.GetName()
}

// analyze 分析请求结果
func (sm *StatisticsMiddleware) analyze(text string, result *translation.Result, err error, latency time.Duration) RequestResult {
	rr := RequestResult{
		Success:    err == nil,
		Latency:    latency,
		Characters: utf8.RuneCountInString(text),
	}

	if err != nil {
		rr.ErrorKind = classifyError(err)
		return rr
	}

	if result != nil {
		rr.Locales = result.Len()
		rr.Placeholders = sm.countPlaceholders(result)
	}
	return rr
}

// countPlaceholders 统计被替换为占位文本的 locale 数
func (sm *StatisticsMiddleware) countPlaceholders(result *translation.Result) int {
	if sm.catalog == nil {
		return 0
	}
	count := 0
	for locale, text := range result.Translations() {
		if text == sm.catalog.NotFound(locale) {
			count++
		}
	}
	return count
}

// classifyError 分类错误类型
func classifyError(err error) string {
	kind, ok := translation.KindOf(err)
	if !ok && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ErrorKindCanceled
	}
	return kind.String()
}
