package factory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-locale-translator/internal/config"
	"github.com/nerdneilsfield/go-locale-translator/internal/i18n"
	"github.com/nerdneilsfield/go-locale-translator/pkg/cache"
	"github.com/nerdneilsfield/go-locale-translator/pkg/providers"
	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/deepl"
	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-locale-translator/pkg/providers/stats"
	"github.com/nerdneilsfield/go-locale-translator/pkg/translation"
)

// ManagerName 故障转移管理器在注册表中的名称
const ManagerName = "manager"

// Options 构建选项，客户端为 nil 时按配置创建真实客户端
type Options struct {
	DeepLClient deepl.Translator
	ChatClient  openai.ChatClient
	Logger      *zap.Logger
}

// Stack 组装好的翻译栈
type Stack struct {
	// Registry 包含 deepl、openai 和 manager 三个入口
	Registry *providers.Registry

	// Catalog 本地化消息目录
	Catalog *i18n.Catalog

	// Stats 统计管理器，未启用统计时为 nil
	Stats *stats.StatsManager

	// Store 缓存存储，未启用缓存时为 nil
	Store cache.Store

	deeplClient  deepl.Translator
	stopAutoSave context.CancelFunc
	autoSaveDone chan struct{}

	logger *zap.Logger
}

// Build 根据配置组装 DeepL、OpenAI、故障转移管理器和缓存装饰器
//
// cache.wrap 为 manager 时缓存整个故障转移管理器，为 providers 时
// 每个提供商单独缓存，两种方式不会同时启用。
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Stack, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := i18n.New(i18n.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("load message catalog: %w", err)
	}

	stack := &Stack{
		Registry: providers.NewRegistry(),
		Catalog:  catalog,
		logger:   logger,
	}

	if cfg.Stats.Enabled {
		stack.Stats = stats.NewStatsManager(cfg.Stats.Path, logger.Named("stats"))
		if err := stack.Stats.LoadFromDB(); err != nil {
			logger.Warn("failed to load provider statistics", zap.Error(err))
		}
	}

	if cfg.Cache.Enabled {
		store, err := cache.New(ctx, cache.Config{
			Driver: cfg.Cache.Driver,
			Dir:    cfg.Cache.Dir,
			DSN:    cfg.Cache.DSN,
		}, logger.Named("cache"))
		if err != nil {
			return nil, fmt.Errorf("create cache store: %w", err)
		}
		stack.Store = store
	}

	stack.deeplClient = opts.DeepLClient
	if stack.deeplClient == nil {
		stack.deeplClient = newDeepLClient(cfg)
	}

	deeplProvider := stack.instrument(newDeepLProvider(cfg, stack.deeplClient, catalog, logger), "")
	openaiProvider := stack.instrument(newOpenAIProvider(cfg, opts.ChatClient, catalog, logger), cfg.OpenAI.Model)

	if stack.Store != nil && cfg.Cache.Wrap == config.WrapProviders {
		deeplProvider = stack.cached(cfg, deeplProvider)
		openaiProvider = stack.cached(cfg, openaiProvider)
	}

	var manager translation.Provider = translation.NewFailoverManager(deeplProvider, openaiProvider, logger.Named(ManagerName))
	if stack.Store != nil && cfg.Cache.Wrap == config.WrapManager {
		manager = stack.cached(cfg, manager)
	}

	for name, provider := range map[string]translation.Provider{
		deepl.Name:  deeplProvider,
		openai.Name: openaiProvider,
		ManagerName: manager,
	} {
		if err := stack.Registry.Register(name, provider); err != nil {
			return nil, err
		}
	}

	if stack.Stats != nil && stack.Stats.Path() != "" {
		if interval := cfg.Stats.SaveIntervalDuration(); interval > 0 {
			stack.startAutoSave(ctx, interval)
		}
	}

	return stack, nil
}

// startAutoSave 后台定期保存统计，Close 时停止
func (s *Stack) startAutoSave(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	s.stopAutoSave = cancel
	s.autoSaveDone = make(chan struct{})

	go func() {
		defer close(s.autoSaveDone)
		s.Stats.AutoSaveRoutine(ctx, interval)
	}()
}

// Provider 获取指定名称的提供商，名称为空时返回故障转移管理器
func (s *Stack) Provider(name string) (translation.Provider, error) {
	if name == "" {
		name = ManagerName
	}
	return s.Registry.Get(name)
}

// DeepLUsage 查询 DeepL 账户用量，客户端不支持查询时返回错误
func (s *Stack) DeepLUsage(ctx context.Context) (*deepl.Usage, error) {
	reporter, ok := s.deeplClient.(deepl.UsageReporter)
	if !ok {
		return nil, fmt.Errorf("deepl client does not report usage")
	}
	return reporter.Usage(ctx)
}

// Close 保存统计并关闭缓存存储
//
// 启用了自动保存时由后台任务在退出前完成最后一次保存。
func (s *Stack) Close() error {
	var errs []error
	if s.stopAutoSave != nil {
		s.stopAutoSave()
		<-s.autoSaveDone
	} else if s.Stats != nil && s.Stats.Path() != "" {
		if err := s.Stats.SaveToDB(); err != nil {
			errs = append(errs, fmt.Errorf("save statistics: %w", err))
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// instrument 启用统计时用统计中间件包装提供商
func (s *Stack) instrument(provider translation.Provider, model string) translation.Provider {
	if s.Stats == nil {
		return provider
	}
	return stats.NewStatisticsMiddleware(provider, s.Stats, model, s.Catalog)
}

// cached 用缓存装饰器包装提供商
func (s *Stack) cached(cfg *config.Config, provider translation.Provider) translation.Provider {
	return translation.NewCachingProvider(provider, s.Store, cfg.Cache.TTLDuration(), cfg.Cache.Prefix, s.logger.Named("cache")).
		WithLocales(cfg.Locales)
}

// newDeepLClient 按配置创建 DeepL HTTP 客户端
func newDeepLClient(cfg *config.Config) *deepl.Client {
	base := providers.DefaultConfig()
	base.APIKey = cfg.DeepL.APIKey
	base.APIEndpoint = cfg.DeepL.APIEndpoint
	base.Timeout, base.ConnectTimeout = cfg.DeepL.Timeouts()
	base.Retry = cfg.DeepL.Retry()

	return deepl.NewClient(deepl.Config{
		BaseConfig: base,
		UseFreeAPI: cfg.DeepL.UseFreeAPI,
	})
}

// newDeepLProvider 创建 DeepL 提供商
func newDeepLProvider(cfg *config.Config, client deepl.Translator, catalog translation.Catalog, logger *zap.Logger) translation.Provider {
	return deepl.New(client, deepl.Options{
		Locales:   cfg.Locales,
		LocaleMap: cfg.DeepL.LocaleMap,
		Retry:     cfg.DeepL.Retry(),
		Catalog:   catalog,
		Logger:    logger.Named(deepl.Name),
	})
}

// newOpenAIProvider 创建 OpenAI 提供商
func newOpenAIProvider(cfg *config.Config, client openai.ChatClient, catalog translation.Catalog, logger *zap.Logger) translation.Provider {
	if client == nil {
		base := providers.DefaultConfig()
		base.APIKey = cfg.OpenAI.APIKey
		base.APIEndpoint = cfg.OpenAI.BaseURL
		base.Timeout, base.ConnectTimeout = cfg.OpenAI.Timeouts()
		base.Retry = cfg.OpenAI.Retry()

		client = openai.NewSDKClient(base, cfg.OpenAI.OrgID)
	}

	return openai.New(client, openai.Options{
		Locales:      cfg.Locales,
		Model:        cfg.OpenAI.Model,
		SystemPrompt: cfg.OpenAI.SystemPrompt,
		Temperature:  cfg.OpenAI.Temperature,
		Retry:        cfg.OpenAI.Retry(),
		Catalog:      catalog,
		Logger:       logger.Named(openai.Name),
	})
}
