package code_analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

func sampleEntry() CacheEntry {
	return CacheEntry{
		ContentHash:    "abc123",
		StructuralHash: "def456",
		LineCount:      42,
		Category:       models.CategoryUtility,
		Imports:        []string{"./helpers"},
		Exports:        []string{"formatDate"},
		Complexity:     3,
	}
}

// Test cache setup and basic get/set behavior
func TestMetadataCache_BasicOperations(t *testing.T) {
	tempDir := t.TempDir()

	cache, err := NewMetadataCache(tempDir)
	require.NoError(t, err)
	require.NotNil(t, cache)

	mtime := time.Now().Truncate(time.Second)

	// Should not be cached initially
	_, found := cache.Get("src/utils.js", mtime)
	assert.False(t, found)

	cache.Set("src/utils.js", mtime, sampleEntry())

	cached, found := cache.Get("src/utils.js", mtime)
	assert.True(t, found)
	assert.Equal(t, "abc123", cached.ContentHash)
	assert.Equal(t, models.CategoryUtility, cached.Category)
	assert.Equal(t, []string{"formatDate"}, cached.Exports)
}

// A modification time mismatch is a miss, not an error
func TestMetadataCache_MtimeMismatchIsMiss(t *testing.T) {
	cache, err := NewMetadataCache(t.TempDir())
	require.NoError(t, err)

	mtime := time.Now().Truncate(time.Second)
	cache.Set("src/utils.js", mtime, sampleEntry())

	_, found := cache.Get("src/utils.js", mtime.Add(time.Second))
	assert.False(t, found)

	// The original timestamp still hits
	_, found = cache.Get("src/utils.js", mtime)
	assert.True(t, found)
}

// Save/load round-trips the versioned document
func TestMetadataCache_SaveLoadRoundTrip(t *testing.T) {
	tempDir := t.TempDir()

	cache, err := NewMetadataCache(tempDir)
	require.NoError(t, err)

	mtime := time.Now().Truncate(time.Second)
	cache.Set("src/a.js", mtime, sampleEntry())
	cache.Set("src/b.js", mtime, sampleEntry())
	require.NoError(t, cache.Save())

	reloaded, err := NewMetadataCache(tempDir)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	cached, found := reloaded.Get("src/a.js", mtime)
	assert.True(t, found)
	assert.Equal(t, 42, cached.LineCount)
}

// A format version mismatch discards the entire cache
func TestMetadataCache_VersionMismatchDiscardsCache(t *testing.T) {
	tempDir := t.TempDir()

	doc := cacheDocument{
		Version: "0-obsolete",
		Entries: map[string]CacheEntry{"src/a.js": sampleEntry()},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "metadata.json"), data, 0644))

	cache, err := NewMetadataCache(tempDir)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())
}

// Corrupt cache content degrades to a cold start
func TestMetadataCache_CorruptFileIsColdStart(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "metadata.json"), []byte("{not json"), 0644))

	cache, err := NewMetadataCache(tempDir)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())
}

// Hit/miss counters drive the reported hit rate
func TestMetadataCache_HitRateTracking(t *testing.T) {
	cache, err := NewMetadataCache(t.TempDir())
	require.NoError(t, err)

	mtime := time.Now().Truncate(time.Second)
	cache.Set("src/a.js", mtime, sampleEntry())

	cache.Get("src/a.js", mtime) // hit
	cache.Get("src/a.js", mtime) // hit
	cache.Get("src/b.js", mtime) // miss

	hits, misses := cache.HitMissCounts()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)

	stats := cache.GetPerformanceStats()
	assert.InDelta(t, 66.6, stats["hit_rate_percent"].(float64), 1.0)
}
