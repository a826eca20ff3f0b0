package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(nil, envOf(nil))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, ProviderNone, cfg.LLM.Provider)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 50, cfg.Cache.Capacity)
}

func TestLoad_FromEnvironment(t *testing.T) {
	cfg, err := load([]string{"-port", ":9000"}, envOf(map[string]string{
		"PORT":              "7000",
		"LOG_LEVEL":         "debug",
		"GITHUB_TOKEN":      " ghp_x ",
		"FETCH_CONCURRENCY": "8",
		"LLM_PROVIDER":      "Ollama",
		"OLLAMA_HOST":       "http://ollama:11434",
		"OLLAMA_MODEL":      "qwen2.5",
		"CACHE_BACKEND":     "postgres",
		"DATABASE_DSN":      "host=db user=app",
		"CACHE_CAPACITY":    "10",
	}))

	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Port)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "ghp_x", cfg.GitHubToken)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "qwen2.5", cfg.LLM.OllamaModel)
	assert.Equal(t, CachePostgres, cfg.Cache.Backend)
	assert.Equal(t, 10, cfg.Cache.Capacity)
}

func TestLoad_PortFlag(t *testing.T) {
	cfg, err := load([]string{"-port", ":9000"}, envOf(nil))

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
}

func TestLoad_GeminiKeyImpliesProvider(t *testing.T) {
	cfg, err := load(nil, envOf(map[string]string{"GEMINI_API_KEY": "key"}))

	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown provider", env: map[string]string{"LLM_PROVIDER": "gpt"}},
		{name: "gemini without key", env: map[string]string{"LLM_PROVIDER": "gemini"}},
		{name: "postgres without dsn", env: map[string]string{"CACHE_BACKEND": "postgres"}},
		{name: "unknown cache", env: map[string]string{"CACHE_BACKEND": "redis"}},
		{name: "bad capacity", env: map[string]string{"CACHE_CAPACITY": "0"}},
		{name: "non numeric concurrency", env: map[string]string{"FETCH_CONCURRENCY": "many"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(nil, envOf(tt.env))

			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := load([]string{"-verbose"}, envOf(nil))

	assert.Error(t, err)
}
