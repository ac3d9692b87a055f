package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// 输出格式
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatTable = "table"
)

// Output translate 命令的输出
type Output struct {
	RequestID    string            `json:"request_id"`
	Provider     string            `json:"provider"`
	Translations map[string]string `json:"translations"`
}

func isValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatTable:
		return true
	}
	return false
}

// renderResult 按格式输出翻译结果，locale 按字母顺序排列
func renderResult(w io.Writer, format string, out Output) error {
	locales := make([]string, 0, len(out.Translations))
	for locale := range out.Translations {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(out)

	case FormatTable:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.Style().Format.Header = text.FormatDefault
		t.SetTitle(out.Provider)
		t.SetCaption("request %s", out.RequestID)
		t.AppendHeader(table.Row{"Locale", "Translation"})
		for _, locale := range locales {
			t.AppendRow(table.Row{locale, out.Translations[locale]})
		}
		t.Render()
		return nil

	default:
		for _, locale := range locales {
			if _, err := fmt.Fprintf(w, "%s: %s\n", locale, out.Translations[locale]); err != nil {
				return err
			}
		}
		return nil
	}
}

// maskSecret 隐藏密钥中间部分
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", 4) + secret[len(secret)-4:]
}
