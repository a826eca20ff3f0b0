package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// 生成后端
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

// 缓存后端
const (
	CacheMemory   = "memory"
	CachePostgres = "postgres"
)

type Config struct {
	Port     string
	LogLevel logrus.Level

	GitHubToken      string
	FetchConcurrency int

	LLM   LLMConfig
	Cache CacheConfig
}

type LLMConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OllamaHost   string
	OllamaModel  string
}

type CacheConfig struct {
	Backend  string
	DSN      string
	Capacity int
}

// Load 先读 .env，再解析命令行参数和环境变量
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()
	return load(args, os.Getenv)
}

func load(args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	port := fs.String("port", ":8080", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if envPort := env("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	level := logrus.InfoLevel
	if raw := env("LOG_LEVEL"); raw != "" {
		parsed, err := logrus.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL 无效: %w", err)
		}
		level = parsed
	}

	concurrency, err := positiveInt(env("FETCH_CONCURRENCY"), 4)
	if err != nil {
		return nil, fmt.Errorf("FETCH_CONCURRENCY 无效: %w", err)
	}
	capacity, err := positiveInt(env("CACHE_CAPACITY"), 50)
	if err != nil {
		return nil, fmt.Errorf("CACHE_CAPACITY 无效: %w", err)
	}

	cfg := &Config{
		Port:             *port,
		LogLevel:         level,
		GitHubToken:      env("GITHUB_TOKEN"),
		FetchConcurrency: concurrency,
		LLM: LLMConfig{
			Provider:     strings.ToLower(env("LLM_PROVIDER")),
			GeminiAPIKey: env("GEMINI_API_KEY"),
			GeminiModel:  env("GEMINI_MODEL"),
			OllamaHost:   env("OLLAMA_HOST"),
			OllamaModel:  env("OLLAMA_MODEL"),
		},
		Cache: CacheConfig{
			Backend:  firstNonEmpty(strings.ToLower(env("CACHE_BACKEND")), CacheMemory),
			DSN:      env("DATABASE_DSN"),
			Capacity: capacity,
		},
	}

	// 未显式指定时：有 Gemini key 就用 Gemini，否则只走兜底
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderNone
		if cfg.LLM.GeminiAPIKey != "" {
			cfg.LLM.Provider = ProviderGemini
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("LLM_PROVIDER=gemini 需要设置 GEMINI_API_KEY")
		}
	case ProviderOllama, ProviderNone:
	default:
		return fmt.Errorf("未知的 LLM_PROVIDER: %q", c.LLM.Provider)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CachePostgres:
		if c.Cache.DSN == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres 需要设置 DATABASE_DSN")
		}
	default:
		return fmt.Errorf("未知的 CACHE_BACKEND: %q", c.Cache.Backend)
	}
	return nil
}

func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("必须大于 0，实际为 %d", v)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
