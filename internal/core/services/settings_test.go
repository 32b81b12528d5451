package services

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docintel/internal/core/domain"
)

// mockEmbeddingValidator records validated configurations.
type mockEmbeddingValidator struct {
	err    error
	called *domain.EmbeddingSettings
}

func (m *mockEmbeddingValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	m.called = config
	return m.err
}

func newTestSettings(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)
	svc.getenv = func(key string) string { return env[key] }
	return svc, store
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc, _ := newTestSettings(map[string]string{EnvHome: "/data"})

	settings, err := svc.Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, "/data", settings.Storage.DataDir)
	assert.Equal(t, filepath.Join("/data", "uploads"), settings.Storage.UploadDir)
	assert.Equal(t, defaults.Ingest, settings.Ingest)
	assert.Equal(t, defaults.Search, settings.Search)
	assert.Equal(t, domain.EmbeddingProviderLocal, settings.Embedding.Provider)
	assert.Equal(t, "hashing-bow", settings.Embedding.Model)
	assert.Equal(t, 384, settings.Embedding.Dimensions)
	assert.Equal(t, defaults.Workers, settings.Workers)
	assert.Equal(t, defaults.Pipeline, settings.Pipeline)
	assert.Equal(t, defaults.Scheduler, settings.Scheduler)
}

func TestSettingsService_Get_FromConfig(t *testing.T) {
	svc, store := newTestSettings(nil)

	require.NoError(t, store.Set(keyDataDir, "/srv/docintel"))
	require.NoError(t, store.Set(keyUploadDir, "/srv/uploads"))
	require.NoError(t, store.Set(keyMaxFileSize, 1024))
	require.NoError(t, store.Set(keyAllowedExtensions, []any{".PDF", "txt", " "}))
	require.NoError(t, store.Set(keySearchMode, "text"))
	require.NoError(t, store.Set(keySearchLimit, 25))
	require.NoError(t, store.Set(keySearchThreshold, 0.7))
	require.NoError(t, store.Set(keyEmbedProvider, "ollama"))
	require.NoError(t, store.Set(keyEmbedRPS, 4))
	require.NoError(t, store.Set(keyEmbedCacheTTL, "90s"))
	require.NoError(t, store.Set(keyWorkerConcurrency, 4))
	require.NoError(t, store.Set("pipeline.chunker.chunk_size", 1000))

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, "/srv/docintel", settings.Storage.DataDir)
	assert.Equal(t, "/srv/uploads", settings.Storage.UploadDir)
	assert.Equal(t, int64(1024), settings.Ingest.MaxFileSize)
	assert.Equal(t, []string{"pdf", "txt"}, settings.Ingest.AllowedExtensions)
	assert.Equal(t, domain.SearchModeText, settings.Search.Mode)
	assert.Equal(t, 25, settings.Search.Limit)
	assert.InDelta(t, 0.7, settings.Search.Threshold, 1e-9)
	assert.Equal(t, domain.EmbeddingProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, defaultOllamaBaseURL, settings.Embedding.BaseURL)
	assert.InDelta(t, 4.0, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.Equal(t, 90*time.Second, settings.Embedding.CacheTTL)
	assert.Equal(t, 4, settings.Workers.Concurrency)
	assert.Equal(t, 1000, settings.Pipeline.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, 50, settings.Pipeline.GetProcessorConfig("chunker")["overlap"])
}

func TestSettingsService_Get_InvalidValuesFallBack(t *testing.T) {
	svc, store := newTestSettings(nil)

	require.NoError(t, store.Set(keySearchMode, "psychic"))
	require.NoError(t, store.Set(keyEmbedProvider, "carrier-pigeon"))
	require.NoError(t, store.Set(keyEmbedCacheTTL, "soon"))

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.SearchModeHybrid, settings.Search.Mode)
	assert.Equal(t, domain.EmbeddingProviderLocal, settings.Embedding.Provider)
	assert.Equal(t, 10*time.Minute, settings.Embedding.CacheTTL)
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	svc, store := newTestSettings(map[string]string{
		EnvHome:              "/env/home",
		EnvUploadDir:         "/env/uploads",
		EnvEmbeddingProvider: "openai",
		EnvEmbeddingModel:    "text-embedding-3-large",
		EnvOpenAIAPIKey:      "sk-env",
		EnvOllamaBaseURL:     "http://ollama:11434",
	})
	require.NoError(t, store.Set(keyDataDir, "/file/home"))
	require.NoError(t, store.Set(keyEmbedProvider, "local"))
	require.NoError(t, store.Set(keyEmbedAPIKey, "sk-file"))

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, "/env/home", settings.Storage.DataDir)
	assert.Equal(t, "/env/uploads", settings.Storage.UploadDir)
	assert.Equal(t, domain.EmbeddingProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	// The Ollama URL only applies to the Ollama provider.
	assert.Empty(t, settings.Embedding.BaseURL)
}

func TestSettingsService_Get_InvalidEnvironmentProvider(t *testing.T) {
	svc, _ := newTestSettings(map[string]string{EnvEmbeddingProvider: "bogus"})

	_, err := svc.Get()

	assert.Error(t, err)
}

func TestSettingsService_SaveAndReload(t *testing.T) {
	svc, _ := newTestSettings(nil)

	settings, err := svc.Get()
	require.NoError(t, err)
	settings.Search.Limit = 50
	settings.Search.DuplicateThreshold = 0.95
	settings.Workers.Concurrency = 8
	settings.Embedding.CacheTTL = time.Hour
	require.NoError(t, svc.Save(settings))

	reloaded, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 50, reloaded.Search.Limit)
	assert.InDelta(t, 0.95, reloaded.Search.DuplicateThreshold, 1e-9)
	assert.Equal(t, 8, reloaded.Workers.Concurrency)
	assert.Equal(t, time.Hour, reloaded.Embedding.CacheTTL)
}

func TestSettingsService_SetSearchMode(t *testing.T) {
	svc, _ := newTestSettings(nil)

	require.NoError(t, svc.SetSearchMode(domain.SearchModeVector))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeVector, settings.Search.Mode)

	assert.Error(t, svc.SetSearchMode("nope"))
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name      string
		provider  domain.EmbeddingProvider
		model     string
		apiKey    string
		wantErr   bool
		wantModel string
		wantURL   string
	}{
		{"local default model", domain.EmbeddingProviderLocal, "", "", false, "hashing-bow", ""},
		{"ollama sets base url", domain.EmbeddingProviderOllama, "", "", false, "nomic-embed-text", defaultOllamaBaseURL},
		{"ollama custom model", domain.EmbeddingProviderOllama, "all-minilm", "", false, "all-minilm", defaultOllamaBaseURL},
		{"openai with key", domain.EmbeddingProviderOpenAI, "", "sk-test", false, "text-embedding-3-small", ""},
		{"openai without key", domain.EmbeddingProviderOpenAI, "", "", true, "", ""},
		{"invalid provider", "invalid", "", "", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestSettings(nil)

			err := svc.SetEmbeddingProvider(tt.provider, tt.model, tt.apiKey)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			settings, err := svc.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)
			assert.Equal(t, tt.wantModel, settings.Embedding.Model)
			assert.Equal(t, tt.wantURL, settings.Embedding.BaseURL)
			assert.Equal(t, tt.apiKey, settings.Embedding.APIKey)
		})
	}
}

func TestSettingsService_SetEmbeddingProvider_KeyFromEnvironment(t *testing.T) {
	svc, store := newTestSettings(map[string]string{EnvOpenAIAPIKey: "sk-env"})

	require.NoError(t, svc.SetEmbeddingProvider(domain.EmbeddingProviderOpenAI, "", ""))

	_, stored := store.Get(keyEmbedAPIKey)
	assert.False(t, stored)
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(store *memory.ConfigStore)
		wantErr bool
	}{
		{"defaults", func(*memory.ConfigStore) {}, false},
		{"threshold out of range", func(s *memory.ConfigStore) { _ = s.Set(keySearchThreshold, 1.5) }, true},
		{"duplicate threshold out of range", func(s *memory.ConfigStore) { _ = s.Set(keyDuplicateThreshold, -0.1) }, true},
		{"openai without key", func(s *memory.ConfigStore) { _ = s.Set(keyEmbedProvider, "openai") }, true},
		{"embeddings disabled", func(s *memory.ConfigStore) { _ = s.Set(keyEmbedProvider, "none") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestSettings(nil)
			tt.setup(store)

			err := svc.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettingsService_ValidateEmbeddingConfig(t *testing.T) {
	store := memory.NewConfigStore()
	validator := &mockEmbeddingValidator{err: errors.New("unreachable")}
	svc := NewSettingsService(store, validator)
	svc.getenv = func(string) string { return "" }

	err := svc.ValidateEmbeddingConfig()

	assert.EqualError(t, err, "unreachable")
	require.NotNil(t, validator.called)
	assert.Equal(t, domain.EmbeddingProviderLocal, validator.called.Provider)

	assert.NoError(t, NewSettingsService(store, nil).ValidateEmbeddingConfig())
}

func TestSettingsService_GetSchedulerConfig(t *testing.T) {
	svc, store := newTestSettings(nil)

	require.NoError(t, store.Set("scheduler.enabled", false))
	require.NoError(t, store.Set("scheduler.embedding_refresh.enabled", true))
	require.NoError(t, store.Set("scheduler.embedding_refresh.interval", "30m"))
	require.NoError(t, store.Set("scheduler.process_pending.interval", "not-a-duration"))

	cfg := svc.GetSchedulerConfig()

	assert.False(t, cfg.Enabled)
	refresh := cfg.GetTaskConfig(domain.TaskIDEmbeddingRefresh)
	assert.True(t, refresh.Enabled)
	assert.Equal(t, 30*time.Minute, refresh.Interval)
	pending := cfg.GetTaskConfig(domain.TaskIDProcessPending)
	assert.True(t, pending.Enabled)
	assert.Equal(t, 15*time.Minute, pending.Interval)
}

func TestSettingsService_GetPipelineConfig(t *testing.T) {
	svc, store := newTestSettings(nil)

	require.NoError(t, store.Set("pipeline.chunker.overlap", 100))

	cfg := svc.GetPipelineConfig()

	assert.Equal(t, []string{"chunker"}, cfg.Processors)
	assert.Equal(t, 512, cfg.GetProcessorConfig("chunker")["chunk_size"])
	assert.Equal(t, 100, cfg.GetProcessorConfig("chunker")["overlap"])
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc, _ := newTestSettings(nil)

	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}
