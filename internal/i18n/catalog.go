// Package i18n 提供翻译结果占位文本和用户可见错误消息的本地化
package i18n

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/nerdneilsfield/go-locale-translator/pkg/translation"
)

//go:embed locales/active.*.toml
var localeFS embed.FS

// 消息ID
const (
	MsgNotFound          = "NotFound"
	MsgInsufficientFunds = "InsufficientFunds"
	MsgTranslationFailed = "TranslationFailed"
	MsgInvalidJSON       = "InvalidJSON"
	MsgMissingLocale     = "MissingLocale"
	MsgTimeout           = "Timeout"
)

// DefaultLanguage 找不到对应语言时使用的默认语言
const DefaultLanguage = "en"

// messageFiles 内置的消息文件
var messageFiles = []string{
	"locales/active.en.toml",
	"locales/active.uk.toml",
	"locales/active.es.toml",
}

// Catalog 基于 go-i18n 的消息目录
type Catalog struct {
	bundle          *goi18n.Bundle
	defaultLanguage language.Tag
}

// 确保 Catalog 实现 translation.Catalog 接口
var _ translation.Catalog = (*Catalog)(nil)

// New 创建消息目录，defaultLocale 无法解析时使用英语
func New(defaultLocale string) (*Catalog, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}

	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range messageFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	return &Catalog{
		bundle:          bundle,
		defaultLanguage: tag,
	}, nil
}

// MustNew 创建消息目录，失败时 panic
func MustNew(defaultLocale string) *Catalog {
	c, err := New(defaultLocale)
	if err != nil {
		panic(err)
	}
	return c
}

// Languages 返回已加载的语言
func (c *Catalog) Languages() []string {
	tags := c.bundle.LanguageTags()
	languages := make([]string, 0, len(tags))
	for _, tag := range tags {
		languages = append(languages, tag.String())
	}
	return languages
}

// T 渲染指定 locale 的消息，找不到时依次回退到默认语言和消息ID本身
func (c *Catalog) T(locale, id string, data map[string]any) string {
	if id == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, c.defaultLanguage.String())

	localizer := goi18n.NewLocalizer(c.bundle, languages...)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		return id
	}
	return msg
}

// NotFound 返回"未找到翻译"占位文本
func (c *Catalog) NotFound(locale string) string {
	return c.T(locale, MsgNotFound, nil)
}

// MissingLocale 返回缺少某个 locale 译文的提示
func (c *Catalog) MissingLocale(locale, missing string) string {
	return c.T(locale, MsgMissingLocale, map[string]any{"Locale": missing})
}

// UserMessage 将翻译错误转换为面向用户的本地化消息
func (c *Catalog) UserMessage(err error, locale string) string {
	if err == nil {
		return ""
	}

	switch {
	case translation.IsQuotaExceeded(err):
		return c.T(locale, MsgInsufficientFunds, nil)
	case errors.Is(err, context.DeadlineExceeded) || hasMessage(err, translation.TimeoutMessage):
		return c.T(locale, MsgTimeout, nil)
	case hasMessage(err, translation.InvalidJSONMessage):
		return c.T(locale, MsgInvalidJSON, nil)
	}

	if missing, ok := translation.MissingLocale(err); ok {
		return c.MissingLocale(locale, missing)
	}
	return c.T(locale, MsgTranslationFailed, nil)
}

// hasMessage 提供商已将错误归类为翻译失败时按消息识别
func hasMessage(err error, message string) bool {
	var te *translation.Error
	if errors.As(err, &te) {
		return te.Message == message
	}
	return false
}
