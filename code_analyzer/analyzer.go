package code_analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reposcope/reposcope/code_analyzer/contracts"
	"github.com/reposcope/reposcope/code_analyzer/models"
	"github.com/reposcope/reposcope/config"
	"github.com/reposcope/reposcope/utils"
)

// CodeAnalyzer runs the full project intelligence pipeline: scan, graph,
// duplicates, classification, scoring, recommendations.
type CodeAnalyzer struct {
	cwd    string
	config *config.Config
	cache  *MetadataCache
	log    *logrus.Logger
}

// NewCodeAnalyzer initializes a new CodeAnalyzer.
func NewCodeAnalyzer(cwd string, cfg *config.Config) contracts.IProjectAnalyzer {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Verbosity); err == nil {
		log.SetLevel(level)
	}

	var cache *MetadataCache
	if cfg.EnableCache {
		var err error
		cache, err = NewMetadataCache("")
		if err != nil {
			// Fall back to no caching if cache initialization fails.
			log.WithError(err).Warn("failed to initialize metadata cache")
			cache = nil
		}
	}

	return &CodeAnalyzer{
		cwd:    cwd,
		config: cfg,
		cache:  cache,
		log:    log,
	}
}

// Analyze runs every pipeline stage over rootDir and folds the results into
// an AnalysisReport. The report is read-only once returned.
func (analyzer *CodeAnalyzer) Analyze(ctx context.Context, rootDir string) (*models.AnalysisReport, error) {
	start := time.Now()

	// Git availability is probed once here; everything downstream treats a
	// negative probe as "no history available" without retrying.
	git := utils.NewGitHistory(rootDir)
	if analyzer.config.EnableGit && !git.Available() {
		analyzer.log.Debug("no git repository detected, history enrichment disabled")
	}

	scanner := NewProjectScanner(analyzer.cache, git, ScanOptions{
		EnableCache:    analyzer.config.EnableCache && analyzer.cache != nil,
		EnableParallel: analyzer.config.EnableParallel,
		EnableGit:      analyzer.config.EnableGit,
		Workers:        analyzer.config.Workers,
	}, analyzer.log)

	records, err := scanner.Scan(ctx, rootDir)
	if err != nil {
		return nil, fmt.Errorf("project scan failed: %w", err)
	}

	graph := NewDependencyGraphBuilder(rootDir).Build(records)

	detector := NewDuplicateDetector(rootDir, analyzer.config.Thresholds.DuplicateSimilarity, analyzer.config.Workers)
	clusters := detector.Detect(ctx, records)

	classifier := NewUsageClassifier(ClassifierOptions{
		MinExports:           analyzer.config.Thresholds.UnwiredMinExports,
		MinLines:             analyzer.config.Thresholds.UnwiredMinLines,
		ActiveHistoryCommits: analyzer.config.Thresholds.ActiveHistoryCommits,
		RecentWindow:         time.Duration(analyzer.config.Thresholds.RecentWindowDays) * 24 * time.Hour,
	})
	unused, unwired := classifier.Classify(records)

	var highRisk []string
	for _, record := range records {
		if level := ScoreFile(record); level == models.RiskHigh || level == models.RiskCritical {
			highRisk = append(highRisk, record.RelativePath)
		}
	}
	sort.Strings(highRisk)

	engine := NewRecommendationEngine(analyzer.config.Thresholds.WiringSimilarityFloor)
	for _, record := range records {
		engine.Recommend(record)
		if record.UnwiredType != "" {
			record.WiringSuggestions = engine.SuggestWiringTargets(record, records)
		}
	}

	// Persist the cache only after all in-flight work has completed, so a
	// cancelled run never writes half-updated entries.
	if analyzer.cache != nil {
		if err := analyzer.cache.Save(); err != nil {
			analyzer.log.WithError(err).Warn("failed to persist metadata cache")
		}
	}

	hits, misses := int64(0), int64(0)
	if analyzer.cache != nil {
		hits, misses = analyzer.cache.HitMissCounts()
	}
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses) * 100
	}

	return &models.AnalysisReport{
		RootDir:           rootDir,
		GeneratedAt:       time.Now(),
		Files:             records,
		Graph:             graph,
		DuplicateClusters: clusters,
		UnusedFiles:       unused,
		UnwiredFiles:      unwired,
		HighRiskFiles:     highRisk,
		Stats: models.ScanStats{
			FilesScanned: len(records),
			CacheHits:    int(hits),
			CacheMisses:  int(misses),
			CacheHitRate: hitRate,
			Duration:     time.Since(start),
		},
	}, nil
}

// GetCacheStats returns cache statistics for the CLI layer.
func (analyzer *CodeAnalyzer) GetCacheStats() map[string]interface{} {
	if analyzer.cache == nil {
		return map[string]interface{}{"cache_enabled": false}
	}

	stats := analyzer.cache.GetPerformanceStats()
	stats["cache_enabled"] = true
	return stats
}

// ClearCache removes all cached analysis results.
func (analyzer *CodeAnalyzer) ClearCache() error {
	if analyzer.cache == nil {
		return nil
	}
	return analyzer.cache.Clear()
}
