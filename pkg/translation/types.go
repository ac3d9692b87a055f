package translation

import (
	"encoding/json"
	"sort"
)

// Result 翻译结果，locale -> 译文
//
// Result 创建后不再修改，所有访问器都返回副本。
type Result struct {
	translations map[string]string
}

// NewResult 创建翻译结果
func NewResult(translations map[string]string) *Result {
	copied := make(map[string]string, len(translations))
	for locale, text := range translations {
		copied[locale] = text
	}
	return &Result{translations: copied}
}

// Translations 返回 locale -> 译文 映射的副本
func (r *Result) Translations() map[string]string {
	copied := make(map[string]string, len(r.translations))
	for locale, text := range r.translations {
		copied[locale] = text
	}
	return copied
}

// Get 获取指定 locale 的译文，不存在时返回空字符串
func (r *Result) Get(locale string) string {
	return r.translations[locale]
}

// Lookup 获取指定 locale 的译文及其是否存在
func (r *Result) Lookup(locale string) (string, bool) {
	text, ok := r.translations[locale]
	return text, ok
}

// Locales 返回排序后的 locale 列表
func (r *Result) Locales() []string {
	locales := make([]string, 0, len(r.translations))
	for locale := range r.translations {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// Len 返回译文数量
func (r *Result) Len() int {
	return len(r.translations)
}

// Equal 判断两个结果是否相同
func (r *Result) Equal(other *Result) bool {
	if r == nil || other == nil {
		return r == other
	}
	if len(r.translations) != len(other.translations) {
		return false
	}
	for locale, text := range r.translations {
		if otherText, ok := other.translations[locale]; !ok || otherText != text {
			return false
		}
	}
	return true
}

// resultJSON 缓存中的序列化格式
type resultJSON struct {
	Translations map[string]string `json:"translations"`
}

// MarshalJSON 实现 json.Marshaler
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{Translations: r.translations})
}

// UnmarshalJSON 实现 json.Unmarshaler
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.translations = make(map[string]string, len(raw.Translations))
	for locale, text := range raw.Translations {
		r.translations[locale] = text
	}
	return nil
}
