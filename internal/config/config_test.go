package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "translator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEEPL_API_KEY", "")

	cfg, err := LoadConfig(writeConfig(t, "log_level: info\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "uk", "es"}, cfg.Locales)

	assert.Equal(t, 3, cfg.DeepL.RetryTimes)
	assert.Equal(t, map[string]string{"en": "en-US"}, cfg.DeepL.LocaleMap)
	request, connect := cfg.DeepL.Timeouts()
	assert.Equal(t, 30*time.Second, request)
	assert.Equal(t, 10*time.Second, connect)
	assert.Equal(t, time.Second, cfg.DeepL.Retry().Sleep)

	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Contains(t, cfg.OpenAI.SystemPrompt, ":locales")
	assert.Equal(t, 3, cfg.OpenAI.Retry().Times)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*24*time.Hour, cfg.Cache.TTLDuration())
	assert.Equal(t, "translation", cfg.Cache.Prefix)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, WrapManager, cfg.Cache.Wrap)
	assert.NotEmpty(t, cfg.Cache.Dir)
	assert.False(t, cfg.Stats.Enabled)
	assert.Equal(t, filepath.Join(cfg.Cache.Dir, "stats.json"), cfg.Stats.Path)
	assert.Equal(t, time.Minute, cfg.Stats.SaveIntervalDuration())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
locales: [en, de]
deepl:
  api_key: deepl-key
  retry_times: 5
  retry_sleep: 250
  locale_map:
    en: en-GB
openai:
  api_key: sk-file
  model: gpt-4o
cache:
  enabled: false
  wrap: providers
  driver: file
  dir: /tmp/translator-cache
stats:
  enabled: true
  path: /tmp/stats.json
  save_interval: 5
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "de"}, cfg.Locales)
	assert.Equal(t, "deepl-key", cfg.DeepL.APIKey)
	assert.Equal(t, 5, cfg.DeepL.Retry().Times)
	assert.Equal(t, 250*time.Millisecond, cfg.DeepL.Retry().Sleep)
	assert.Equal(t, "en-GB", cfg.DeepL.LocaleMap["en"])
	assert.Equal(t, "sk-file", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, WrapProviders, cfg.Cache.Wrap)
	assert.Equal(t, "/tmp/translator-cache", cfg.Cache.Dir)
	assert.True(t, cfg.Stats.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Stats.SaveIntervalDuration())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TRANSLATOR_DEEPL_API_KEY", "from-env")
	t.Setenv("TRANSLATOR_OPENAI_MODEL", "gpt-4o")
	t.Setenv("TRANSLATOR_LOCALES", "en,uk")

	cfg, err := LoadConfig(writeConfig(t, "deepl:\n  api_key: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.DeepL.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, []string{"en", "uk"}, cfg.Locales)
}

func TestLoadConfig_ProviderKeyFallbacks(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-generic")
	t.Setenv("DEEPL_API_KEY", "deepl-generic")

	cfg, err := LoadConfig(writeConfig(t, "openai:\n  api_key: sk-explicit\n"))
	require.NoError(t, err)

	assert.Equal(t, "sk-explicit", cfg.OpenAI.APIKey)
	assert.Equal(t, "deepl-generic", cfg.DeepL.APIKey)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")), "a missing .env is ignored")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRANSLATOR_TEST_DOTENV=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TRANSLATOR_TEST_DOTENV") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("TRANSLATOR_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"no locales", func(c *Config) { c.Locales = nil }, "at least one locale"},
		{"bad locale", func(c *Config) { c.Locales = []string{"en", "not a locale"} }, "invalid locale"},
		{"duplicate", func(c *Config) { c.Locales = []string{"en", "en"} }, "duplicate locale"},
		{"negative retries", func(c *Config) { c.OpenAI.RetryTimes = -1 }, "retry_times"},
		{"negative sleep", func(c *Config) { c.DeepL.RetrySleep = -5 }, "retry_sleep"},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -1 }, "cache.ttl"},
		{"bad wrap", func(c *Config) { c.Cache.Wrap = "both" }, "cache.wrap"},
		{"bad driver", func(c *Config) { c.Cache.Driver = "redis" }, "cache.driver"},
		{"postgres without dsn", func(c *Config) { c.Cache.Driver = "postgres" }, "cache.dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}

	assert.NoError(t, NewDefaultConfig().Validate())
}
