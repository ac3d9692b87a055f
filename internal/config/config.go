package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/retry"
)

// 缓存包装方式
const (
	WrapManager   = "manager"   // 缓存包装故障转移管理器
	WrapProviders = "providers" // 每个提供商单独缓存
)

// DeepLConfig DeepL 提供商配置
type DeepLConfig struct {
	APIKey         string            `mapstructure:"api_key"`
	APIEndpoint    string            `mapstructure:"api_endpoint"`
	UseFreeAPI     bool              `mapstructure:"use_free_api"`
	RequestTimeout int               `mapstructure:"request_timeout"` // 秒
	ConnectTimeout int               `mapstructure:"connect_timeout"` // 秒
	RetryTimes     int               `mapstructure:"retry_times"`
	RetrySleep     int               `mapstructure:"retry_sleep"` // 毫秒
	LocaleMap      map[string]string `mapstructure:"locale_map"`
}

// OpenAIConfig OpenAI 提供商配置
type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	OrgID          string  `mapstructure:"org_id"`
	Model          string  `mapstructure:"model"`
	SystemPrompt   string  `mapstructure:"system_prompt"`
	Temperature    float64 `mapstructure:"temperature"`
	RequestTimeout int     `mapstructure:"request_timeout"` // 秒
	ConnectTimeout int     `mapstructure:"connect_timeout"` // 秒
	RetryTimes     int     `mapstructure:"retry_times"`
	RetrySleep     int     `mapstructure:"retry_sleep"` // 毫秒
}

// CacheConfig 翻译缓存配置
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	TTL     int    `mapstructure:"ttl"` // 秒
	Prefix  string `mapstructure:"prefix"`
	Driver  string `mapstructure:"driver"` // memory, file, postgres
	Dir     string `mapstructure:"dir"`
	DSN     string `mapstructure:"dsn"`
	Wrap    string `mapstructure:"wrap"` // manager, providers
}

// StatsConfig 统计配置
type StatsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Path         string `mapstructure:"path"`
	SaveInterval int    `mapstructure:"save_interval"` // 秒，0 表示只在退出时保存
}

// Config 保存翻译器的所有配置
type Config struct {
	Locales  []string     `mapstructure:"locales"`
	LogLevel string       `mapstructure:"log_level"`
	Debug    bool         `mapstructure:"debug"`
	DeepL    DeepLConfig  `mapstructure:"deepl"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
	Cache    CacheConfig  `mapstructure:"cache"`
	Stats    StatsConfig  `mapstructure:"stats"`
}

// LoadConfig 加载配置
//
// 依次读取 .env（不存在时忽略）、配置文件和 TRANSLATOR_ 前缀的环境变量。
// configPath 为空时在家目录和当前目录查找 .translator.yaml。
func LoadConfig(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 如果配置路径已指定，则直接使用
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 查找家目录中的配置文件
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".translator")
		v.SetConfigType("yaml")
	}

	// 读取环境变量，嵌套键使用下划线，如 TRANSLATOR_DEEPL_API_KEY
	v.SetEnvPrefix("TRANSLATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果找不到配置文件，则使用默认值
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyEnvFallbacks(&config)

	if config.Cache.Dir == "" {
		config.Cache.Dir = getDefaultCacheDir()
	}
	if config.Stats.Path == "" {
		config.Stats.Path = filepath.Join(config.Cache.Dir, "stats.json")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// 默认值总能解码
	_ = v.Unmarshal(&config)
	config.Cache.Dir = getDefaultCacheDir()
	config.Stats.Path = filepath.Join(config.Cache.Dir, "stats.json")
	return &config
}

// Validate 校验配置
func (c *Config) Validate() error {
	if len(c.Locales) == 0 {
		return fmt.Errorf("at least one locale must be configured")
	}

	seen := make(map[string]bool, len(c.Locales))
	for _, locale := range c.Locales {
		if _, err := language.Parse(locale); err != nil {
			return fmt.Errorf("invalid locale %q: %w", locale, err)
		}
		if seen[locale] {
			return fmt.Errorf("duplicate locale %q", locale)
		}
		seen[locale] = true
	}

	if c.DeepL.RetryTimes < 0 || c.OpenAI.RetryTimes < 0 {
		return fmt.Errorf("retry_times must not be negative")
	}
	if c.DeepL.RetrySleep < 0 || c.OpenAI.RetrySleep < 0 {
		return fmt.Errorf("retry_sleep must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Stats.SaveInterval < 0 {
		return fmt.Errorf("stats.save_interval must not be negative")
	}

	switch c.Cache.Wrap {
	case WrapManager, WrapProviders:
	default:
		return fmt.Errorf("invalid cache.wrap %q: expected %s or %s", c.Cache.Wrap, WrapManager, WrapProviders)
	}

	switch c.Cache.Driver {
	case "memory", "file", "postgres":
	default:
		return fmt.Errorf("invalid cache.driver %q", c.Cache.Driver)
	}
	if c.Cache.Enabled && c.Cache.Driver == "postgres" && c.Cache.DSN == "" {
		return fmt.Errorf("cache.dsn is required for the postgres driver")
	}

	return nil
}

// Retry 返回 DeepL 的重试策略
func (c DeepLConfig) Retry() retry.Policy {
	return retry.FromMillis(c.RetryTimes, c.RetrySleep)
}

// Timeouts 返回请求超时和连接超时
func (c DeepLConfig) Timeouts() (request, connect time.Duration) {
	return seconds(c.RequestTimeout), seconds(c.ConnectTimeout)
}

// Retry 返回 OpenAI 的重试策略
func (c OpenAIConfig) Retry() retry.Policy {
	return retry.FromMillis(c.RetryTimes, c.RetrySleep)
}

// Timeouts 返回请求超时和连接超时
func (c OpenAIConfig) Timeouts() (request, connect time.Duration) {
	return seconds(c.RequestTimeout), seconds(c.ConnectTimeout)
}

// TTLDuration 返回缓存有效期
func (c CacheConfig) TTLDuration() time.Duration {
	return seconds(c.TTL)
}

// SaveIntervalDuration 返回统计自动保存间隔
func (c StatsConfig) SaveIntervalDuration() time.Duration {
	return seconds(c.SaveInterval)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("locales", []string{"en", "uk", "es"})
	v.SetDefault("log_level", "info")
	v.SetDefault("debug", false)

	v.SetDefault("deepl.api_key", "")
	v.SetDefault("deepl.api_endpoint", "")
	v.SetDefault("deepl.use_free_api", false)
	v.SetDefault("deepl.request_timeout", 30)
	v.SetDefault("deepl.connect_timeout", 10)
	v.SetDefault("deepl.retry_times", 3)
	v.SetDefault("deepl.retry_sleep", 1000)
	v.SetDefault("deepl.locale_map", map[string]string{"en": "en-US"})

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.org_id", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.system_prompt", openai.DefaultSystemPrompt)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.request_timeout", 30)
	v.SetDefault("openai.connect_timeout", 10)
	v.SetDefault("openai.retry_times", 3)
	v.SetDefault("openai.retry_sleep", 1000)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 86400*30)
	v.SetDefault("cache.prefix", "translation")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.wrap", WrapManager)

	v.SetDefault("stats.enabled", false)
	v.SetDefault("stats.path", "")
	v.SetDefault("stats.save_interval", 60)
}

// applyEnvFallbacks 未配置密钥时使用提供商的通用环境变量
func applyEnvFallbacks(config *Config) {
	if config.OpenAI.APIKey == "" {
		config.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if config.DeepL.APIKey == "" {
		config.DeepL.APIKey = os.Getenv("DEEPL_API_KEY")
	}
}

// loadDotEnv 加载 .env 文件，文件不存在时忽略
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// getDefaultCacheDir 获取默认缓存目录
func getDefaultCacheDir() string {
	// 优先使用系统缓存目录
	cacheDir, err := os.UserCacheDir()
	if err == nil {
		return filepath.Join(cacheDir, "translator")
	}

	// 如果无法获取系统缓存目录，使用用户主目录
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".translator", "cache")
	}

	// 最后的兜底方案
	return "./translator-cache"
}
