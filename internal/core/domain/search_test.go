package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchMode_IsValid(t *testing.T) {
	for _, m := range AllSearchModes() {
		assert.True(t, m.IsValid(), "mode %s should be valid", m)
		assert.NotEqual(t, unknownDescription, m.Description())
	}
	assert.False(t, SearchMode("").IsValid())
	assert.False(t, SearchMode("semantic").IsValid())
	assert.Equal(t, unknownDescription, SearchMode("x").Description())
}

func TestSearchMode_RequiresEmbedding(t *testing.T) {
	assert.False(t, SearchModeText.RequiresEmbedding())
	assert.True(t, SearchModeVector.RequiresEmbedding())
	assert.True(t, SearchModeHybrid.RequiresEmbedding())
}
