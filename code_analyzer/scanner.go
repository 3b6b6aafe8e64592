package code_analyzer

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/reposcope/reposcope/code_analyzer/models"
	"github.com/reposcope/reposcope/utils"
)

// ScanOptions controls how the scanner traverses and analyzes the tree.
type ScanOptions struct {
	EnableCache    bool
	EnableParallel bool
	EnableGit      bool
	Workers        int
}

// ProjectScanner walks the source tree, dispatches files to the source
// parser across a bounded worker pool, and consults the metadata cache.
type ProjectScanner struct {
	cache   *MetadataCache
	git     *utils.GitHistory
	options ScanOptions
	log     *logrus.Logger
}

// NewProjectScanner creates a scanner. cache may be nil when caching is
// disabled; git availability is probed once by the caller.
func NewProjectScanner(cache *MetadataCache, git *utils.GitHistory, options ScanOptions, log *logrus.Logger) *ProjectScanner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if options.Workers < 1 {
		options.Workers = 1
	}
	return &ProjectScanner{
		cache:   cache,
		git:     git,
		options: options,
		log:     log,
	}
}

// Scan walks rootDir depth-first, pruning ignored directories before
// descending, and returns the mapping of relative path to FileRecord.
// Unreadable files are logged and excluded; they never contribute edges.
func (s *ProjectScanner) Scan(ctx context.Context, rootDir string) (map[string]*models.FileRecord, error) {
	patterns, err := utils.GetIgnorePatterns(rootDir)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			s.log.WithField("path", path).WithError(walkErr).Warn("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relativePath, err := filepath.Rel(rootDir, path)
		if err != nil || relativePath == "." {
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)

		// Prune ignored subtrees before descending so they are never stat'd.
		if utils.IsDefaultIgnored(relativePath) || utils.IsIgnored(relativePath, patterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !IsEligibleFile(relativePath) {
			return nil
		}

		paths = append(paths, relativePath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make(map[string]*models.FileRecord, len(paths))

	if !s.options.EnableParallel {
		for _, relativePath := range paths {
			if ctx.Err() != nil {
				break
			}
			if record := s.analyzeFile(ctx, rootDir, relativePath); record != nil {
				records[record.RelativePath] = record
			}
		}
		return records, nil
	}

	// Parallel scan: workers send results back over a channel; the map is
	// only written by the collector, and the cache guards itself.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.options.Workers)

	results := make(chan *models.FileRecord, len(paths))

	for _, relativePath := range paths {
		// Stop scheduling new work on cancellation; in-flight tasks finish.
		if groupCtx.Err() != nil {
			break
		}
		relativePath := relativePath
		group.Go(func() error {
			if record := s.analyzeFile(groupCtx, rootDir, relativePath); record != nil {
				results <- record
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	close(results)

	for record := range results {
		records[record.RelativePath] = record
	}

	return records, nil
}

// analyzeFile produces the FileRecord for one file, consulting the cache
// first. A nil return means the file could not be read and is excluded from
// the result mapping entirely.
func (s *ProjectScanner) analyzeFile(ctx context.Context, rootDir, relativePath string) *models.FileRecord {
	fullPath := filepath.Join(rootDir, filepath.FromSlash(relativePath))

	fileInfo, err := os.Stat(fullPath)
	if err != nil {
		s.log.WithField("file", relativePath).WithError(err).Warn("failed to stat file")
		return nil
	}

	var record *models.FileRecord

	if s.options.EnableCache && s.cache != nil {
		if entry, found := s.cache.Get(relativePath, fileInfo.ModTime()); found {
			record = s.recordFromCache(relativePath, fileInfo, entry)
		}
	}

	if record == nil {
		content, err := os.ReadFile(fullPath)
		if err != nil {
			s.log.WithField("file", relativePath).WithError(err).Warn("failed to read file")
			return nil
		}
		record = s.parseFile(relativePath, fileInfo, content)

		if s.options.EnableCache && s.cache != nil {
			s.cache.Set(relativePath, fileInfo.ModTime(), cacheEntryFrom(record))
		}
	}

	// History enrichment is optional and may not be cached: its truth lives
	// in the repository, not in the file bytes.
	if s.options.EnableGit && s.git != nil && s.git.Available() {
		record.Git = s.git.FileInsights(ctx, relativePath)
	}

	return record
}

// parseFile runs the parser ladder on file content and assembles the record.
func (s *ProjectScanner) parseFile(relativePath string, fileInfo os.FileInfo, content []byte) *models.FileRecord {
	language := DetectLanguage(relativePath)

	var result *models.ParseResult
	if sourceExtensions[ext(relativePath)] {
		result = ParseWithFallback(content, language)
	} else {
		// Styles, assets, and config files carry no parseable structure.
		result = MinimalParseResult(content)
	}

	lineCount := bytes.Count(content, []byte("\n")) + 1
	category := Categorize(relativePath, result, lineCount)

	return &models.FileRecord{
		RelativePath:    relativePath,
		Size:            fileInfo.Size(),
		LineCount:       lineCount,
		Category:        category,
		ContentHash:     HashContent(content),
		StructuralHash:  result.StructuralHash,
		ModTime:         fileInfo.ModTime(),
		Imports:         result.Imports,
		Exports:         result.Exports,
		Complexity:      result.Complexity,
		UnsafeTypeCount: result.UnsafeTypeCount,
		IsEntryPoint:    IsEntryPointFile(relativePath),
		IsBarrel:        category == models.CategoryBarrel,
		IsTest:          IsTestFile(relativePath),
	}
}

// recordFromCache rebuilds a FileRecord from a validated cache entry.
func (s *ProjectScanner) recordFromCache(relativePath string, fileInfo os.FileInfo, entry CacheEntry) *models.FileRecord {
	return &models.FileRecord{
		RelativePath:    relativePath,
		Size:            fileInfo.Size(),
		LineCount:       entry.LineCount,
		Category:        entry.Category,
		ContentHash:     entry.ContentHash,
		StructuralHash:  entry.StructuralHash,
		ModTime:         fileInfo.ModTime(),
		Imports:         entry.Imports,
		Exports:         entry.Exports,
		Complexity:      entry.Complexity,
		UnsafeTypeCount: entry.UnsafeTypeCount,
		IsEntryPoint:    IsEntryPointFile(relativePath),
		IsBarrel:        entry.IsBarrel,
		IsTest:          entry.IsTest,
	}
}

func cacheEntryFrom(record *models.FileRecord) CacheEntry {
	return CacheEntry{
		ModTime:         record.ModTime,
		Size:            record.Size,
		ContentHash:     record.ContentHash,
		StructuralHash:  record.StructuralHash,
		LineCount:       record.LineCount,
		Category:        record.Category,
		Imports:         record.Imports,
		Exports:         record.Exports,
		Complexity:      record.Complexity,
		UnsafeTypeCount: record.UnsafeTypeCount,
		IsBarrel:        record.IsBarrel,
		IsTest:          record.IsTest,
	}
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
