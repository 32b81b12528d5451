package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir            = "storage.data_dir"
	keyUploadDir          = "storage.upload_dir"
	keyMaxFileSize        = "ingest.max_file_size"
	keyAllowedExtensions  = "ingest.allowed_extensions"
	keySearchMode         = "search.mode"
	keySearchLimit        = "search.limit"
	keySearchThreshold    = "search.threshold"
	keyDuplicateThreshold = "search.duplicate_threshold"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedDimensions    = "embedding.dimensions"
	keyEmbedRPS           = "embedding.requests_per_second"
	keyEmbedCacheSize     = "embedding.cache_size"
	keyEmbedCacheTTL      = "embedding.cache_ttl"
	keyWorkerConcurrency  = "workers.concurrency"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvHome              = "DOCINTEL_HOME"
	EnvUploadDir         = "DOCINTEL_UPLOAD_DIR"
	EnvEmbeddingProvider = "DOCINTEL_EMBEDDING_PROVIDER"
	EnvEmbeddingModel    = "DOCINTEL_EMBEDDING_MODEL"
	EnvOllamaBaseURL     = "OLLAMA_BASE_URL"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore        driven.ConfigStore
	embeddingValidator driven.EmbeddingConfigValidator
	getenv             func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore,
	embeddingValidator driven.EmbeddingConfigValidator,
) *SettingsService {
	return &SettingsService{
		configStore:        configStore,
		embeddingValidator: embeddingValidator,
		getenv:             os.Getenv,
	}
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Storage: s.getStorage(),
		Ingest: domain.IngestSettings{
			MaxFileSize:       int64(s.getInt(keyMaxFileSize, int(defaults.Ingest.MaxFileSize))),
			AllowedExtensions: s.getExtensions(defaults.Ingest.AllowedExtensions),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(defaults.Embedding.Provider),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDimensions, defaults.Embedding.Dimensions),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
			CacheSize:         s.getInt(keyEmbedCacheSize, defaults.Embedding.CacheSize),
			CacheTTL:          s.getDuration(keyEmbedCacheTTL, defaults.Embedding.CacheTTL),
		},
		Search: domain.SearchSettings{
			Mode:               s.getSearchMode(defaults.Search.Mode),
			Limit:              s.getInt(keySearchLimit, defaults.Search.Limit),
			Threshold:          s.getFloat(keySearchThreshold, defaults.Search.Threshold),
			DuplicateThreshold: s.getFloat(keyDuplicateThreshold, defaults.Search.DuplicateThreshold),
		},
		Workers: domain.WorkerSettings{
			Concurrency: s.getInt(keyWorkerConcurrency, defaults.Workers.Concurrency),
		},
		Pipeline:  s.GetPipelineConfig(),
		Scheduler: s.GetSchedulerConfig(),
	}

	// The model default depends on the provider, which may itself come
	// from the environment.
	if provider := domain.EmbeddingProvider(s.getenv(EnvEmbeddingProvider)); provider != "" {
		if !provider.IsValid() {
			return nil, fmt.Errorf("%s: invalid embedding provider %q", EnvEmbeddingProvider, provider)
		}
		settings.Embedding.Provider = provider
	}
	settings.Embedding.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[settings.Embedding.Provider])
	if model := s.getenv(EnvEmbeddingModel); model != "" {
		settings.Embedding.Model = model
	}
	if url := s.getenv(EnvOllamaBaseURL); url != "" && settings.Embedding.Provider == domain.EmbeddingProviderOllama {
		settings.Embedding.BaseURL = url
	}
	if key := s.getenv(EnvOpenAIAPIKey); key != "" && settings.Embedding.Provider == domain.EmbeddingProviderOpenAI {
		settings.Embedding.APIKey = key
	}
	if settings.Embedding.Provider == domain.EmbeddingProviderOllama && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = defaultOllamaBaseURL
	}

	return settings, nil
}

// Save persists application settings.
// Directories and environment-supplied values are left out of the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyMaxFileSize, settings.Ingest.MaxFileSize},
		{keyAllowedExtensions, settings.Ingest.AllowedExtensions},
		{keySearchMode, settings.Search.Mode.String()},
		{keySearchLimit, settings.Search.Limit},
		{keySearchThreshold, settings.Search.Threshold},
		{keyDuplicateThreshold, settings.Search.DuplicateThreshold},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyEmbedCacheTTL, settings.Embedding.CacheTTL.String()},
		{keyWorkerConcurrency, settings.Workers.Concurrency},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.getenv(EnvOpenAIAPIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// SetSearchMode updates the default search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid search mode: %s", mode)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Search.Mode = mode

	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.EmbeddingProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && s.getenv(EnvOpenAIAPIKey) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	if provider == domain.EmbeddingProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings are consistent.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Search.Mode.IsValid() {
		return fmt.Errorf("invalid search mode: %s", settings.Search.Mode)
	}
	if settings.Search.Threshold < 0 || settings.Search.Threshold > 1 {
		return fmt.Errorf("search threshold %v outside [0,1]", settings.Search.Threshold)
	}
	if settings.Search.DuplicateThreshold < 0 || settings.Search.DuplicateThreshold > 1 {
		return fmt.Errorf("duplicate threshold %v outside [0,1]", settings.Search.DuplicateThreshold)
	}
	if settings.Ingest.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive")
	}
	if settings.Workers.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be positive")
	}

	// Vector and hybrid search still work without embeddings, but degrade to text.
	if settings.Embedding.Provider != domain.EmbeddingProviderNone && !settings.Embedding.IsConfigured() {
		return fmt.Errorf(
			"embedding provider %q is not fully configured",
			settings.Embedding.Provider.Description(),
		)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.embeddingValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.embeddingValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getStorage() domain.StorageSettings {
	storage := domain.StorageSettings{
		DataDir:   s.configStore.GetString(keyDataDir),
		UploadDir: s.configStore.GetString(keyUploadDir),
	}
	if home := s.getenv(EnvHome); home != "" {
		storage.DataDir = home
	}
	if storage.DataDir == "" {
		storage.DataDir = filepath.Dir(s.configStore.Path())
	}
	if dir := s.getenv(EnvUploadDir); dir != "" {
		storage.UploadDir = dir
	}
	if storage.UploadDir == "" {
		storage.UploadDir = filepath.Join(storage.DataDir, "uploads")
	}
	return storage
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	d, ok := s.configStore.GetDuration(key)
	if !ok || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getExtensions(defaultVal []string) []string {
	vals := s.configStore.GetStringSlice(keyAllowedExtensions)
	if len(vals) == 0 {
		return defaultVal
	}
	exts := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(v), "."))
		if v != "" {
			exts = append(exts, v)
		}
	}
	return exts
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	mode := domain.SearchMode(s.configStore.GetString(keySearchMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	provider := domain.EmbeddingProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

// GetPipelineConfig returns the post-processor pipeline configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	defaults := domain.DefaultPipelineConfig()

	if processors := s.configStore.GetStringSlice("pipeline.processors"); len(processors) > 0 {
		defaults.Processors = processors
	}

	for _, name := range defaults.Processors {
		cfg := s.loadProcessorConfig("pipeline." + name + ".")
		if len(cfg) == 0 {
			continue
		}
		if defaults.ProcessorConfigs == nil {
			defaults.ProcessorConfigs = make(map[string]map[string]any)
		}
		existing := defaults.ProcessorConfigs[name]
		if existing == nil {
			existing = make(map[string]any)
		}
		for k, v := range cfg {
			existing[k] = v
		}
		defaults.ProcessorConfigs[name] = existing
	}

	return defaults
}

// loadProcessorConfig loads config keys with a given prefix into a map.
func (s *SettingsService) loadProcessorConfig(prefix string) map[string]any {
	cfg := make(map[string]any)

	knownKeys := []string{"chunk_size", "overlap"}
	for _, key := range knownKeys {
		if val, exists := s.configStore.Get(prefix + key); exists {
			cfg[key] = val
		}
	}

	return cfg
}

// GetSchedulerConfig returns the scheduler configuration.
// Returns default configuration if nothing is configured.
func (s *SettingsService) GetSchedulerConfig() domain.SchedulerConfig {
	defaults := domain.DefaultSchedulerConfig()

	defaults.Enabled = s.getBool("scheduler.enabled", defaults.Enabled)

	// Map from task ID to config key (underscore version for TOML)
	taskKeys := map[string]string{
		domain.TaskIDProcessPending:   "process_pending",
		domain.TaskIDEmbeddingRefresh: "embedding_refresh",
	}

	for taskID, configKey := range taskKeys {
		prefix := "scheduler." + configKey + "."
		taskCfg := defaults.TaskConfigs[taskID]

		taskCfg.Enabled = s.getBool(prefix+"enabled", taskCfg.Enabled)
		taskCfg.Interval = s.getDuration(prefix+"interval", taskCfg.Interval)

		defaults.TaskConfigs[taskID] = taskCfg
	}

	return defaults
}
