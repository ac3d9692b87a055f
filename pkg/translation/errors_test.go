package translation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKind(t *testing.T) {
	quota := NewQuotaExceededError("deepl", nil)
	failed := NewTranslationFailedError("openai", "invalid JSON", nil)

	assert.ErrorIs(t, quota, ErrQuotaExceeded)
	assert.NotErrorIs(t, quota, ErrTranslationFailed)
	assert.ErrorIs(t, failed, ErrTranslationFailed)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", failed), ErrTranslationFailed)

	assert.True(t, IsQuotaExceeded(fmt.Errorf("wrapped: %w", quota)))
	assert.False(t, IsTranslationFailed(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "[openai] invalid JSON", NewTranslationFailedError("openai", "invalid JSON", nil).Error())
	assert.Equal(t, "[deepl] "+ErrTranslationFailed.Message, NewTranslationFailedError("deepl", "", nil).Error())
	assert.Equal(t, "quota_exceeded", (&Error{Kind: KindQuotaExceeded}).Error())
}

func TestError_UnwrapAndAs(t *testing.T) {
	cause := context.DeadlineExceeded
	err := fmt.Errorf("call: %w", NewTranslationFailedError("openai", TimeoutMessage, cause))

	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "openai", te.Provider)
	assert.Equal(t, TimeoutMessage, te.Message)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewTransientError(t *testing.T) {
	err := NewTransientError("openai", errors.New("connection reset"))
	assert.Equal(t, KindTransient, err.Kind)
	assert.Equal(t, "[openai] connection reset", err.Error())
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, ErrTransient.Message, NewTransientError("openai", nil).Message)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(fmt.Errorf("x: %w", NewQuotaExceededError("deepl", nil)))
	assert.True(t, ok)
	assert.Equal(t, KindQuotaExceeded, kind)
	assert.Equal(t, "quota_exceeded", kind.String())

	kind, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, "translation_failed", kind.String())

	assert.Equal(t, "transient", KindTransient.String())
}

func TestMissingLocale(t *testing.T) {
	locale, ok := MissingLocale(fmt.Errorf("x: %w", NewTranslationFailedError("openai", MissingLocalePrefix+"uk", nil)))
	assert.True(t, ok)
	assert.Equal(t, "uk", locale)

	_, ok = MissingLocale(NewTranslationFailedError("openai", InvalidJSONMessage, nil))
	assert.False(t, ok)
	_, ok = MissingLocale(&Error{Kind: KindTransient, Message: MissingLocalePrefix + "uk"})
	assert.False(t, ok)
	_, ok = MissingLocale(errors.New(MissingLocalePrefix + "uk"))
	assert.False(t, ok)
}
