package translation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockProvider 模拟提供商
type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Translate(ctx context.Context, text string) (*Result, error) {
	args := m.Called(ctx, text)
	result, _ := args.Get(0).(*Result)
	return result, args.Error(1)
}

func (m *MockProvider) GetName() string {
	return m.name
}

func TestFailoverManager_PrimarySucceeds(t *testing.T) {
	primary := &MockProvider{name: "deepl"}
	fallback := &MockProvider{name: "openai"}
	expected := NewResult(map[string]string{"en": "Hello"})
	primary.On("Translate", mock.Anything, "Привет").Return(expected, nil).Once()

	manager := NewFailoverManager(primary, fallback, nil)
	result, err := manager.Translate(context.Background(), "Привет")

	require.NoError(t, err)
	assert.Same(t, expected, result)
	primary.AssertExpectations(t)
	fallback.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything)
}

func TestFailoverManager_SwitchesOnAnyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"quota", NewQuotaExceededError("deepl", nil)},
		{"failed", NewTranslationFailedError("deepl", "boom", nil)},
		{"canceled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			primary := &MockProvider{name: "deepl"}
			fallback := &MockProvider{name: "openai"}
			expected := NewResult(map[string]string{"en": "Hello"})

			primary.On("Translate", mock.Anything, "Привет").Return(nil, tt.err).Once()
			fallback.On("Translate", mock.Anything, "Привет").Return(expected, nil).Once()

			manager := NewFailoverManager(primary, fallback, zap.New(core))
			result, err := manager.Translate(context.Background(), "Привет")

			require.NoError(t, err)
			assert.Same(t, expected, result)
			primary.AssertNumberOfCalls(t, "Translate", 1)
			fallback.AssertNumberOfCalls(t, "Translate", 1)

			entries := logs.FilterMessage("primary provider failed, switching to fallback").All()
			require.Len(t, entries, 1)
			fields := entries[0].ContextMap()
			assert.Equal(t, "deepl", fields["primary"])
			assert.Equal(t, "openai", fields["fallback"])
			assert.Equal(t, "Привет", fields["text_preview"])
		})
	}
}

func TestFailoverManager_FallbackErrorPropagates(t *testing.T) {
	primary := &MockProvider{name: "deepl"}
	fallback := &MockProvider{name: "openai"}
	fallbackErr := NewQuotaExceededError("openai", nil)

	primary.On("Translate", mock.Anything, mock.Anything).Return(nil, NewTranslationFailedError("deepl", "", nil))
	fallback.On("Translate", mock.Anything, mock.Anything).Return(nil, fallbackErr)

	manager := NewFailoverManager(primary, fallback, nil)
	result, err := manager.Translate(context.Background(), "text")

	assert.Nil(t, result)
	assert.Same(t, fallbackErr, err)
	assert.True(t, IsQuotaExceeded(err))
	fallback.AssertNumberOfCalls(t, "Translate", 1)
}

func TestFailoverManager_Name(t *testing.T) {
	manager := NewFailoverManager(&MockProvider{name: "deepl"}, &MockProvider{name: "openai"}, nil)
	assert.Equal(t, "manager", manager.GetName())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 50))
	assert.Equal(t, strings.Repeat("я", 50)+"...", Preview(strings.Repeat("я", 60), 50))
}
