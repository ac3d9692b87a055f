package translation

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Sanitizer 统一整理提供商返回的原始结果
//
// 结果只保留已配置的 locale；缺失或为空白的译文记录警告并替换为
// 对应 locale 的"未找到翻译"占位文本。
type Sanitizer struct {
	locales []string
	catalog Catalog
	logger  *zap.Logger
}

// NewSanitizer 创建结果整理器
func NewSanitizer(locales []string, catalog Catalog, logger *zap.Logger) *Sanitizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	copied := make([]string, len(locales))
	copy(copied, locales)
	return &Sanitizer{
		locales: copied,
		catalog: catalog,
		logger:  logger,
	}
}

// Locales 返回已配置的 locale 列表副本
func (s *Sanitizer) Locales() []string {
	copied := make([]string, len(s.locales))
	copy(copied, s.locales)
	return copied
}

// Sanitize 整理原始结果，返回的 key 集合与配置的 locale 集合一致
func (s *Sanitizer) Sanitize(provider string, raw map[string]string) map[string]string {
	sanitized := make(map[string]string, len(s.locales))

	for _, locale := range s.locales {
		text, ok := raw[locale]
		if ok && strings.TrimSpace(text) != "" {
			sanitized[locale] = text
			continue
		}

		s.logger.Warn(provider+": translation for locale '"+locale+"' is missing or invalid",
			zap.String("provider", provider),
			zap.String("locale", locale),
			zap.Strings("available_locales", availableLocales(raw)))

		sanitized[locale] = s.placeholder(locale)
	}

	return sanitized
}

// SanitizeResult 整理原始结果并构建 Result
func (s *Sanitizer) SanitizeResult(provider string, raw map[string]string) *Result {
	return NewResult(s.Sanitize(provider, raw))
}

func (s *Sanitizer) placeholder(locale string) string {
	if s.catalog == nil {
		return ""
	}
	return s.catalog.NotFound(locale)
}

func availableLocales(raw map[string]string) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
