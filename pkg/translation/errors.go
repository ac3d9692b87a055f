package translation

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 错误类型
type Kind int

const (
	// KindTranslationFailed 翻译失败（格式错误、重试耗尽、未知异常）
	KindTranslationFailed Kind = iota
	// KindQuotaExceeded 提供商额度/余额耗尽
	KindQuotaExceeded
	// KindTransient 瞬时网络错误，仅在提供商内部用于触发重试
	KindTransient
)

// String 返回错误类型名称
func (k Kind) String() string {
	switch k {
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindTransient:
		return "transient"
	default:
		return "translation_failed"
	}
}

// 提供商与消息目录共享的错误消息
const (
	// TimeoutMessage 传输层超时后的统一错误消息
	TimeoutMessage = "translation request timed out"
	// InvalidJSONMessage 批量响应不是 JSON 对象
	InvalidJSONMessage = "invalid JSON"
	// MissingLocalePrefix 批量响应缺少某个 locale，后接 locale 代码
	MissingLocalePrefix = "missing locale: "
)

// MissingLocale 从缺少 locale 的翻译失败错误中取出 locale
func MissingLocale(err error) (string, bool) {
	var te *Error
	if !errors.As(err, &te) || te.Kind != KindTranslationFailed {
		return "", false
	}
	return strings.CutPrefix(te.Message, MissingLocalePrefix)
}

// 预定义错误，用于 errors.Is 按类型匹配
var (
	// ErrQuotaExceeded 额度耗尽
	ErrQuotaExceeded = &Error{Kind: KindQuotaExceeded, Message: "insufficient funds on the translation provider balance"}

	// ErrTranslationFailed 翻译失败
	ErrTranslationFailed = &Error{Kind: KindTranslationFailed, Message: "an error occurred during text translation"}

	// ErrTransient 瞬时错误
	ErrTransient = &Error{Kind: KindTransient, Message: "transient provider error"}

	// ErrEmptyText 空文本错误
	ErrEmptyText = errors.New("empty text provided")
)

// Error 翻译错误
type Error struct {
	Kind     Kind   // 错误类型
	Provider string // 发生错误的提供商
	Message  string // 错误消息
	Cause    error  // 原因
}

// Error 实现error接口
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s", e.Provider, msg)
	}
	return msg
}

// Unwrap 返回原因错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按错误类型匹配预定义错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewQuotaExceededError 创建额度耗尽错误
func NewQuotaExceededError(provider string, cause error) *Error {
	return &Error{
		Kind:     KindQuotaExceeded,
		Provider: provider,
		Message:  ErrQuotaExceeded.Message,
		Cause:    cause,
	}
}

// NewTranslationFailedError 创建翻译失败错误，message 为空时使用默认消息
func NewTranslationFailedError(provider, message string, cause error) *Error {
	if message == "" {
		message = ErrTranslationFailed.Message
	}
	return &Error{
		Kind:     KindTranslationFailed,
		Provider: provider,
		Message:  message,
		Cause:    cause,
	}
}

// NewTransientError 创建瞬时错误
func NewTransientError(provider string, cause error) *Error {
	msg := ErrTransient.Message
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Kind:     KindTransient,
		Provider: provider,
		Message:  msg,
		Cause:    cause,
	}
}

// IsQuotaExceeded 是否为额度耗尽错误
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsTranslationFailed 是否为翻译失败错误
func IsTranslationFailed(err error) bool {
	return errors.Is(err, ErrTranslationFailed)
}

// KindOf 返回错误类型，非 *Error 的错误视为翻译失败
func KindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return KindTranslationFailed, false
}
