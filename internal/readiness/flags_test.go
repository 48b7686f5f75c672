package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStartsWithSymbolDatabaseReady(t *testing.T) {
	f := New()
	assert.True(t, f.SymbolDatabaseReady())
	assert.False(t, f.InvertedIndexReady())
	assert.False(t, f.EmbeddingReady())
}

func TestSetInvertedIndexReady(t *testing.T) {
	f := New()
	f.SetInvertedIndexReady(true)
	assert.True(t, f.InvertedIndexReady())
	f.SetInvertedIndexReady(false)
	assert.False(t, f.InvertedIndexReady())
}

func TestSetEmbeddingReady(t *testing.T) {
	f := New()
	f.SetEmbeddingReady(true)
	assert.True(t, f.EmbeddingReady())
}

func TestSetSymbolDatabaseReadyDegrades(t *testing.T) {
	f := New()
	f.SetSymbolDatabaseReady(false)
	assert.False(t, f.SymbolDatabaseReady())
	f.SetSymbolDatabaseReady(true)
	assert.True(t, f.SymbolDatabaseReady())
}
