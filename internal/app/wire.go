package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github-project-compare/internal/adapter/cache"
	"github-project-compare/internal/adapter/extractor"
	"github-project-compare/internal/adapter/gemini"
	"github-project-compare/internal/adapter/github"
	"github-project-compare/internal/adapter/ollama"
	"github-project-compare/internal/adapter/repository"
	"github-project-compare/internal/common"
	"github-project-compare/internal/config"
	"github-project-compare/internal/port"
	"github-project-compare/internal/service"

	"github.com/sirupsen/logrus"
)

// SetupLogging 统一日志格式
func SetupLogging(level logrus.Level) {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(level)
}

// Build 按配置组装对比服务；返回的 cleanup 用于释放外部客户端
func Build(ctx context.Context, cfg *config.Config) (*service.ComparisonService, func(), error) {
	fetcher := github.NewFetcher(cfg.GitHubToken)
	if cfg.GitHubToken == "" {
		logrus.Warn("⚠️ 未设置 GITHUB_TOKEN，使用匿名限流额度")
	}

	ext := extractor.NewExtractor(fetcher)
	ext.SetBatchLimit(cfg.FetchConcurrency)

	generator, closeGenerator, err := NewGenerator(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	store, err := NewCache(ctx, cfg.Cache)
	if err != nil {
		closeGenerator()
		return nil, nil, err
	}

	return service.NewComparisonService(fetcher, ext, generator, store), closeGenerator, nil
}

// NewGenerator 按 LLM_PROVIDER 创建生成后端；none 返回 nil，服务直接走兜底
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (port.Generator, func(), error) {
	noop := func() {}
	switch cfg.Provider {
	case config.ProviderGemini:
		g, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("AI 初始化失败: %w", err)
		}
		logrus.Info("🤖 使用 Gemini 生成对比")
		return g, func() { _ = g.Close() }, nil
	case config.ProviderOllama:
		g, err := ollama.NewGenerator(cfg.OllamaHost, cfg.OllamaModel)
		if err != nil {
			return nil, nil, fmt.Errorf("AI 初始化失败: %w", err)
		}
		return g, noop, nil
	default:
		logrus.Info("🛟 未配置模型，所有对比都使用兜底合成")
		return nil, noop, nil
	}
}

// NewCache 按 CACHE_BACKEND 创建缓存；PostgreSQL 启动时带退避重试
func NewCache(ctx context.Context, cfg config.CacheConfig) (port.ComparisonCache, error) {
	if cfg.Backend != config.CachePostgres {
		return cache.NewMemoryCache(cfg.Capacity), nil
	}

	var store *repository.PostgresCache
	err := common.Do(ctx, func() error {
		var err error
		store, err = repository.NewPostgresCache(cfg.DSN, cfg.Capacity)
		return err
	},
		common.WithMaxRetries(5),
		common.WithInitialDelay(time.Second),
		common.WithMaxDelay(10*time.Second),
		common.WithRetryIf(func(err error) bool { return !repository.IsConfigError(err) }),
		common.WithOnRetry(func(attempt int, err error) {
			logrus.Warnf("⏳ 数据库连接失败 (第 %d 次)，稍后重试: %v", attempt, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("DB 初始化失败: %w", err)
	}
	logrus.Info("🗄️ 使用 PostgreSQL 缓存")
	return store, nil
}
