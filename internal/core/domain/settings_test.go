package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingProvider_IsValid(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.IsValid(), "provider %s should be valid", p)
	}
	assert.False(t, EmbeddingProvider("anthropic").IsValid())
}

func TestEmbeddingProvider_Properties(t *testing.T) {
	assert.True(t, EmbeddingProviderOpenAI.RequiresAPIKey())
	assert.False(t, EmbeddingProviderOllama.RequiresAPIKey())
	assert.True(t, EmbeddingProviderOllama.IsRemote())
	assert.False(t, EmbeddingProviderLocal.IsRemote())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"local", EmbeddingSettings{Provider: EmbeddingProviderLocal}, true},
		{"ollama", EmbeddingSettings{Provider: EmbeddingProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: EmbeddingProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: EmbeddingProviderOpenAI, APIKey: "sk"}, true},
		{"none", EmbeddingSettings{Provider: EmbeddingProviderNone}, false},
		{"empty", EmbeddingSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestIngestSettings_IsAllowed(t *testing.T) {
	s := DefaultAppSettings().Ingest

	assert.True(t, s.IsAllowed("pdf"))
	assert.True(t, s.IsAllowed(".csv"))
	assert.False(t, s.IsAllowed("exe"))
	assert.False(t, s.IsAllowed(""))
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, int64(50*1024*1024), s.Ingest.MaxFileSize)
	assert.Equal(t, EmbeddingProviderLocal, s.Embedding.Provider)
	assert.Equal(t, 10, s.Search.Limit)
	assert.InDelta(t, 0.5, s.Search.Threshold, 1e-9)
	assert.InDelta(t, 0.9, s.Search.DuplicateThreshold, 1e-9)
	assert.Equal(t, 2, s.Workers.Concurrency)

	chunker := s.Pipeline.GetProcessorConfig("chunker")
	assert.Equal(t, 512, chunker["chunk_size"])
	assert.Equal(t, 50, chunker["overlap"])
}

func TestPipelineConfig_GetProcessorConfig_Nil(t *testing.T) {
	var c PipelineConfig
	assert.Nil(t, c.GetProcessorConfig("chunker"))
}
