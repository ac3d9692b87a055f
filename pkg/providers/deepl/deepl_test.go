package deepl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nerdneilsfield/go-locale-translator/pkg/providers"
	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-locale-translator/pkg/translation"
)

type stubCatalog struct{}

func (stubCatalog) NotFound(locale string) string { return "not found (" + locale + ")" }

// fakeTranslator 按目标语言返回预设结果
type fakeTranslator struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	calls     map[string]int
	order     []string
}

type fakeResponse struct {
	text string
	err  error
}

func newFakeTranslator() *fakeTranslator {
	return &fakeTranslator{
		responses: make(map[string][]fakeResponse),
		calls:     make(map[string]int),
	}
}

func (f *fakeTranslator) on(targetLang string, responses ...fakeResponse) *fakeTranslator {
	f.responses[targetLang] = responses
	return f
}

func (f *fakeTranslator) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (*Translation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.calls[targetLang]
	f.calls[targetLang]++
	f.order = append(f.order, targetLang)

	queue := f.responses[targetLang]
	if len(queue) == 0 {
		return &Translation{Text: text + "@" + targetLang}, nil
	}
	if idx >= len(queue) {
		idx = len(queue) - 1
	}
	resp := queue[idx]
	if resp.err != nil {
		return nil, resp.err
	}
	return &Translation{Text: resp.text}, nil
}

func newTestProvider(client Translator, locales []string, times int, logger *zap.Logger) *Provider {
	return New(client, Options{
		Locales:   locales,
		LocaleMap: map[string]string{"en": "en-US"},
		Retry:     retry.Policy{Times: times},
		Catalog:   stubCatalog{},
		Logger:    logger,
	})
}

func TestProvider_TranslatesEveryLocale(t *testing.T) {
	client := newFakeTranslator().
		on("en-US", fakeResponse{text: "Hello"}).
		on("uk", fakeResponse{text: "Привіт"})

	p := newTestProvider(client, []string{"en", "uk"}, 3, nil)
	result, err := p.Translate(context.Background(), "Привет")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "Hello", "uk": "Привіт"}, result.Translations())
	assert.Equal(t, []string{"en-US", "uk"}, client.order, "en is sent as en-US")
	assert.Equal(t, "deepl", p.GetName())
}

func TestProvider_QuotaErrorIsNotRetried(t *testing.T) {
	client := newFakeTranslator().
		on("en-US", fakeResponse{err: &APIError{StatusCode: StatusQuotaExceeded, Message: "Quota exceeded"}})

	p := newTestProvider(client, []string{"en", "uk"}, 3, nil)
	_, err := p.Translate(context.Background(), "text")

	require.Error(t, err)
	assert.True(t, translation.IsQuotaExceeded(err))
	assert.Equal(t, 1, client.calls["en-US"])
	assert.Zero(t, client.calls["uk"], "remaining locales are not attempted")
}

func TestProvider_QuotaDetectedByMessage(t *testing.T) {
	client := newFakeTranslator().
		on("en-US", fakeResponse{err: &APIError{StatusCode: http.StatusForbidden, Message: "Quota exceeded for this key"}})

	p := newTestProvider(client, []string{"en"}, 3, nil)
	_, err := p.Translate(context.Background(), "text")

	assert.True(t, translation.IsQuotaExceeded(err))
	assert.Equal(t, 1, client.calls["en-US"])
}

func TestProvider_RetriesTransientFailures(t *testing.T) {
	transient := &APIError{StatusCode: http.StatusServiceUnavailable, Message: "service temporarily unavailable"}
	client := newFakeTranslator().
		on("en-US", fakeResponse{err: transient}, fakeResponse{err: transient}, fakeResponse{text: "Hello"})

	p := newTestProvider(client, []string{"en"}, 3, nil)
	result, err := p.Translate(context.Background(), "text")

	require.NoError(t, err)
	assert.Equal(t, "Hello", result.Get("en"))
	assert.Equal(t, 3, client.calls["en-US"])
}

func TestProvider_ExhaustedRetriesBecomeTranslationFailed(t *testing.T) {
	client := newFakeTranslator().
		on("en-US", fakeResponse{err: &APIError{StatusCode: http.StatusServiceUnavailable, Message: "service temporarily unavailable"}})

	p := newTestProvider(client, []string{"en", "uk"}, 4, nil)
	_, err := p.Translate(context.Background(), "text")

	require.Error(t, err)
	assert.True(t, translation.IsTranslationFailed(err))
	assert.False(t, translation.IsQuotaExceeded(err))
	assert.Contains(t, err.Error(), "service temporarily unavailable")
	assert.Equal(t, 4, client.calls["en-US"])
	assert.Zero(t, client.calls["uk"])
}

func TestProvider_AbortsOnFirstFailingLocale(t *testing.T) {
	client := newFakeTranslator().
		on("en-US", fakeResponse{text: "Hello"}).
		on("uk", fakeResponse{err: errors.New("boom")}).
		on("es", fakeResponse{text: "Hola"})

	p := newTestProvider(client, []string{"en", "uk", "es"}, 1, nil)
	result, err := p.Translate(context.Background(), "text")

	assert.Nil(t, result, "partial results are discarded")
	assert.True(t, translation.IsTranslationFailed(err))
	assert.Zero(t, client.calls["es"])
}

func TestProvider_UnknownErrorMessage(t *testing.T) {
	client := newFakeTranslator().on("en-US", fakeResponse{err: errors.New("")})

	p := newTestProvider(client, []string{"en"}, 1, nil)
	_, err := p.Translate(context.Background(), "text")

	var te *translation.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, unknownErrorMessage, te.Message)
}

func TestProvider_EmptyTranslationBecomesPlaceholder(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	client := newFakeTranslator().
		on("en-US", fakeResponse{text: "Hello"}).
		on("uk", fakeResponse{text: "   "})

	p := newTestProvider(client, []string{"en", "uk"}, 3, zap.New(core))
	result, err := p.Translate(context.Background(), "text")

	require.NoError(t, err)
	assert.Equal(t, "Hello", result.Get("en"))
	assert.Equal(t, "not found (uk)", result.Get("uk"))
	assert.Equal(t, 1, client.calls["uk"], "empty text is not retried")

	entries := logs.FilterMessage("deepl: translation for locale 'uk' is missing or invalid").All()
	require.Len(t, entries, 1)
}

func TestProvider_CanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newFakeTranslator().on("en-US", fakeResponse{err: context.Canceled})

	p := newTestProvider(client, []string{"en"}, 5, nil)
	_, err := p.Translate(ctx, "text")

	assert.Error(t, err)
	assert.Equal(t, 1, client.calls["en-US"])
}

func TestClient_TranslateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "DeepL-Auth-Key secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Привет", r.PostForm.Get("text"))
		assert.Equal(t, "EN-US", r.PostForm.Get("target_lang"))
		assert.Empty(t, r.PostForm.Get("source_lang"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"RU","text":"Hello"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseConfig: providers.BaseConfig{
		APIKey:      "secret",
		APIEndpoint: server.URL + "/",
		Timeout:     5 * time.Second,
	}})

	result, err := client.TranslateText(context.Background(), "Привет", "", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "Hello", result.Text)
	assert.Equal(t, "RU", result.DetectedSourceLanguage)
}

func TestClient_QuotaStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(StatusQuotaExceeded)
	}))
	defer server.Close()

	client := NewClient(Config{BaseConfig: providers.BaseConfig{APIKey: "k", APIEndpoint: server.URL}})
	_, err := client.TranslateText(context.Background(), "x", "", "de")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, StatusQuotaExceeded, apiErr.StatusCode)
	assert.Equal(t, "Quota exceeded", apiErr.Message)
	assert.True(t, isQuotaError(err))
}

func TestClient_ErrorMessageFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Value for 'target_lang' not supported."}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseConfig: providers.BaseConfig{APIKey: "k", APIEndpoint: server.URL}})
	_, err := client.TranslateText(context.Background(), "x", "", "xx")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Value for 'target_lang' not supported.", apiErr.Message)
	assert.False(t, isQuotaError(err))
}

func TestClient_Usage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usage", r.URL.Path)
		_, _ = w.Write([]byte(`{"character_count":120,"character_limit":500000}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseConfig: providers.BaseConfig{APIKey: "k", APIEndpoint: server.URL}})
	usage, err := client.Usage(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(120), usage.CharacterCount)
	assert.Equal(t, int64(500000), usage.CharacterLimit)
}

func TestNewClient_Endpoint(t *testing.T) {
	assert.Equal(t, FreeEndpoint, NewClient(Config{BaseConfig: providers.BaseConfig{APIKey: "abc:fx"}}).Endpoint())
	assert.Equal(t, ProEndpoint, NewClient(Config{BaseConfig: providers.BaseConfig{APIKey: "abc"}}).Endpoint())
	assert.Equal(t, FreeEndpoint, NewClient(Config{UseFreeAPI: true}).Endpoint())
}
