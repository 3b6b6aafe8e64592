package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// Global cache for ignore-file patterns
var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// defaultIgnorePatterns are directories and file suffixes that are never
// worth analyzing. Directory matches prune the whole subtree before it is
// stat'd.
var defaultIgnorePatterns = []string{
	".git",
	".svn",
	".hg",
	".idea",
	".vscode",
	".cache",
	".reposcope-cache",
	"node_modules",
	"bower_components",
	"vendor",
	"__pycache__",
	".pytest_cache",
	"dist",
	"build",
	"out",
	"coverage",
	".next",
	".nuxt",
	"*.min.js",
	"*.min.css",
	"*.map",
	"*.lock",
	"*.log",
	"*.pyc",
	"*.exe",
	"*.dll",
}

// GetIgnorePatterns reads and returns the patterns from the project's
// .reposcope-ignore file. If the file does not exist, it returns an empty
// pattern list. Results are cached by modification time.
func GetIgnorePatterns(rootDir string) ([]string, error) {
	ignorePath := filepath.Join(rootDir, ".reposcope-ignore")

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking .reposcope-ignore: %w", err)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .reposcope-ignore: %w", err)
	}

	// Update cache
	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: patterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return patterns, nil
}

// IsDefaultIgnored checks a path against the built-in ignore patterns.
func IsDefaultIgnored(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")

	for _, part := range parts {
		part = strings.ToLower(part)
		for _, pattern := range defaultIgnorePatterns {
			if strings.HasPrefix(pattern, "*") {
				if strings.HasSuffix(part, strings.TrimPrefix(pattern, "*")) {
					return true
				}
			} else if part == pattern {
				return true
			}
		}
	}
	return false
}

// IsIgnored checks if a path matches any of the user-supplied patterns.
func IsIgnored(path string, patterns []string) bool {
	path = filepath.ToSlash(path)
	for _, pattern := range patterns {
		if match, _ := filepath.Match(pattern, path); match {
			return true
		}
		if match, _ := filepath.Match(pattern, filepath.Base(path)); match {
			return true
		}
		// Patterns like "dir/" ignore entire directories
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}
	return false
}

// readIgnoreFile reads an ignore file and returns the list of patterns.
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// ClearIgnoreCache clears all cached ignore patterns.
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
