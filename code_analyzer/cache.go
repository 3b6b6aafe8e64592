package code_analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// CacheFormatVersion identifies the on-disk cache document layout. Any
// mismatch with a loaded document discards the whole cache.
const CacheFormatVersion = "1"

// CacheEntry is the per-file slice of analysis results persisted between
// runs. An entry is only valid while its ModTime matches the on-disk file.
type CacheEntry struct {
	ModTime         time.Time           `json:"mod_time"`
	Size            int64               `json:"size"`
	ContentHash     string              `json:"content_hash"`
	StructuralHash  string              `json:"structural_hash"`
	LineCount       int                 `json:"line_count"`
	Category        models.FileCategory `json:"category"`
	Imports         []string            `json:"imports,omitempty"`
	Exports         []string            `json:"exports,omitempty"`
	Complexity      int                 `json:"complexity"`
	UnsafeTypeCount int                 `json:"unsafe_type_count"`
	IsBarrel        bool                `json:"is_barrel"`
	IsTest          bool                `json:"is_test"`
	HasJSX          bool                `json:"has_jsx"`
}

// cacheDocument is the versioned on-disk representation.
type cacheDocument struct {
	Version string                `json:"version"`
	Entries map[string]CacheEntry `json:"entries"`
}

// CacheStats tracks cache performance metrics.
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// MetadataCache persists per-file analysis results keyed by relative path,
// validated by modification time. It is the only shared mutable structure
// touched during a parallel scan and guards all access with a mutex.
type MetadataCache struct {
	cachePath string
	entries   map[string]CacheEntry
	stats     *CacheStats
	mutex     sync.RWMutex
}

// NewMetadataCache creates a cache backed by cacheDir/metadata.json.
// If cacheDir is empty, it defaults to ".reposcope-cache" in the current
// working directory.
func NewMetadataCache(cacheDir string) (*MetadataCache, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".reposcope-cache")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &MetadataCache{
		cachePath: filepath.Join(cacheDir, "metadata.json"),
		entries:   make(map[string]CacheEntry),
		stats: &CacheStats{
			LastResetTime: time.Now(),
		},
	}

	// A load failure is a cold start, never a fatal error.
	cache.Load()

	return cache, nil
}

// Get returns the cached entry for path if its stored modification time
// equals mtime. Any mismatch is a miss, not an error.
func (mc *MetadataCache) Get(path string, mtime time.Time) (CacheEntry, bool) {
	mc.mutex.RLock()
	entry, found := mc.entries[path]
	mc.mutex.RUnlock()

	if !found || !entry.ModTime.Equal(mtime) {
		mc.recordCacheMiss()
		return CacheEntry{}, false
	}

	mc.recordCacheHit()
	return entry, true
}

// Set stores the entry for path, stamping it with mtime.
func (mc *MetadataCache) Set(path string, mtime time.Time, entry CacheEntry) {
	entry.ModTime = mtime

	mc.mutex.Lock()
	mc.entries[path] = entry
	mc.mutex.Unlock()
}

// Load reads the persisted cache document. A missing file, unreadable
// content, or a format version mismatch leaves the cache empty.
func (mc *MetadataCache) Load() bool {
	data, err := os.ReadFile(mc.cachePath)
	if err != nil {
		return false
	}

	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}

	// Version mismatch invalidates the entire cache.
	if doc.Version != CacheFormatVersion {
		return false
	}

	mc.mutex.Lock()
	mc.entries = doc.Entries
	if mc.entries == nil {
		mc.entries = make(map[string]CacheEntry)
	}
	mc.mutex.Unlock()

	return true
}

// Save persists the cache document to disk.
func (mc *MetadataCache) Save() error {
	mc.mutex.RLock()
	doc := cacheDocument{
		Version: CacheFormatVersion,
		Entries: mc.entries,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	mc.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to encode cache document: %w", err)
	}

	if err := os.WriteFile(mc.cachePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Clear removes all entries and deletes the on-disk document.
func (mc *MetadataCache) Clear() error {
	mc.mutex.Lock()
	mc.entries = make(map[string]CacheEntry)
	mc.mutex.Unlock()

	if err := os.Remove(mc.cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}

	return nil
}

// Len returns the number of cached entries.
func (mc *MetadataCache) Len() int {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return len(mc.entries)
}

// recordCacheHit increments cache hit counter
func (mc *MetadataCache) recordCacheHit() {
	mc.stats.mutex.Lock()
	defer mc.stats.mutex.Unlock()
	mc.stats.TotalRequests++
	mc.stats.CacheHits++
}

// recordCacheMiss increments cache miss counter
func (mc *MetadataCache) recordCacheMiss() {
	mc.stats.mutex.Lock()
	defer mc.stats.mutex.Unlock()
	mc.stats.TotalRequests++
	mc.stats.CacheMisses++
}

// HitMissCounts returns the raw hit/miss counters.
func (mc *MetadataCache) HitMissCounts() (hits int64, misses int64) {
	mc.stats.mutex.RLock()
	defer mc.stats.mutex.RUnlock()
	return mc.stats.CacheHits, mc.stats.CacheMisses
}

// GetPerformanceStats returns detailed cache performance statistics.
func (mc *MetadataCache) GetPerformanceStats() map[string]interface{} {
	mc.stats.mutex.RLock()
	defer mc.stats.mutex.RUnlock()

	hitRate := 0.0
	if mc.stats.TotalRequests > 0 {
		hitRate = float64(mc.stats.CacheHits) / float64(mc.stats.TotalRequests) * 100
	}

	uptime := time.Since(mc.stats.LastResetTime)

	return map[string]interface{}{
		"total_requests":   mc.stats.TotalRequests,
		"cache_hits":       mc.stats.CacheHits,
		"cache_misses":     mc.stats.CacheMisses,
		"hit_rate_percent": hitRate,
		"uptime_seconds":   uptime.Seconds(),
		"cache_path":       mc.cachePath,
		"cached_entries":   mc.Len(),
	}
}
