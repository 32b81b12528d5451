package domain

import "time"

const unknownDescription = "Unknown"

// EmbeddingProvider identifies the service that produces embedding vectors.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderLocal is the built-in deterministic hashing embedder.
	EmbeddingProviderLocal EmbeddingProvider = "local"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderNone disables embeddings entirely.
	EmbeddingProviderNone EmbeddingProvider = "none"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderLocal, EmbeddingProviderOllama, EmbeddingProviderOpenAI, EmbeddingProviderNone:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// IsRemote returns true if this provider is reached over the network.
func (p EmbeddingProvider) IsRemote() bool {
	return p == EmbeddingProviderOllama || p == EmbeddingProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderLocal:
		return "Local (hashing embedder, no network)"
	case EmbeddingProviderOllama:
		return "Ollama (local server)"
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	case EmbeddingProviderNone:
		return "Disabled"
	default:
		return unknownDescription
	}
}

// StorageSettings holds on-disk locations.
type StorageSettings struct {
	// DataDir holds the database and config.
	DataDir string

	// UploadDir holds stored uploads.
	UploadDir string
}

// IngestSettings holds gate limits.
type IngestSettings struct {
	// MaxFileSize is the largest accepted upload in bytes.
	MaxFileSize int64

	// AllowedExtensions lists accepted file extensions without the dot.
	AllowedExtensions []string
}

// IsAllowed returns true if ext (with or without a leading dot) is accepted.
func (s IngestSettings) IsAllowed(ext string) bool {
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	for _, allowed := range s.AllowedExtensions {
		if allowed == ext {
			return true
		}
	}
	return false
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size for the local embedder.
	Dimensions int

	// RequestsPerSecond limits calls to remote providers. Zero means unlimited.
	RequestsPerSecond float64

	// CacheSize is the number of query embeddings kept in memory. Zero disables the cache.
	CacheSize int

	// CacheTTL bounds how long a cached query embedding is reused.
	CacheTTL time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == EmbeddingProviderNone {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// SearchSettings holds search defaults.
type SearchSettings struct {
	// Mode is the default retrieval mode.
	Mode SearchMode

	// Limit is the default maximum number of results.
	Limit int

	// Threshold is the default minimum vector similarity.
	Threshold float64

	// DuplicateThreshold is the default minimum similarity for duplicate detection.
	DuplicateThreshold float64
}

// WorkerSettings holds background processing configuration.
type WorkerSettings struct {
	// Concurrency bounds how many documents are processed at once.
	Concurrency int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage   StorageSettings
	Ingest    IngestSettings
	Embedding EmbeddingSettings
	Search    SearchSettings
	Workers   WorkerSettings
	Pipeline  PipelineConfig
	Scheduler SchedulerConfig
}

// DefaultAppSettings returns settings with sensible defaults.
// Directories are left empty and resolved against the data directory at load time.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Ingest: IngestSettings{
			MaxFileSize:       50 * 1024 * 1024,
			AllowedExtensions: []string{"pdf", "docx", "txt", "xlsx", "csv", "md"},
		},
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderLocal,
			Model:      DefaultEmbeddingModels()[EmbeddingProviderLocal],
			Dimensions: 384,
			CacheSize:  256,
			CacheTTL:   10 * time.Minute,
		},
		Search: SearchSettings{
			Mode:               SearchModeHybrid,
			Limit:              10,
			Threshold:          0.5,
			DuplicateThreshold: 0.9,
		},
		Workers: WorkerSettings{
			Concurrency: 2,
		},
		Pipeline:  DefaultPipelineConfig(),
		Scheduler: DefaultSchedulerConfig(),
	}
}

// AllEmbeddingProviders returns every selectable provider.
func AllEmbeddingProviders() []EmbeddingProvider {
	return []EmbeddingProvider{
		EmbeddingProviderLocal,
		EmbeddingProviderOllama,
		EmbeddingProviderOpenAI,
		EmbeddingProviderNone,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[EmbeddingProvider]string {
	return map[EmbeddingProvider]string{
		EmbeddingProviderLocal:  "hashing-bow",
		EmbeddingProviderOllama: "nomic-embed-text",
		EmbeddingProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration:
// a chunker with 512 character chunks overlapping by 50.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": 512,
				"overlap":    50,
			},
		},
	}
}
