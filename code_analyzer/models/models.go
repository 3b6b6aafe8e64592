package models

import "time"

// FileCategory classifies what role a file plays in the project.
type FileCategory string

const (
	CategoryComponent      FileCategory = "component"
	CategoryHook           FileCategory = "hook"
	CategoryService        FileCategory = "service"
	CategoryUtility        FileCategory = "utility"
	CategoryTypes          FileCategory = "types"
	CategoryConfig         FileCategory = "config"
	CategoryTest           FileCategory = "test"
	CategoryCoreLogic      FileCategory = "core-logic"
	CategoryStyle          FileCategory = "style"
	CategoryAsset          FileCategory = "asset"
	CategoryEntryPoint     FileCategory = "entry-point"
	CategoryBarrel         FileCategory = "barrel"
	CategoryLanguageModule FileCategory = "language-module"
	CategoryUnknown        FileCategory = "unknown"
)

// RiskLevel buckets a numeric risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// UnwiredType classifies a disconnected-but-substantial file.
type UnwiredType string

const (
	UnwiredNewFeature     UnwiredType = "new-feature"
	UnwiredOrphanedUseful UnwiredType = "orphaned-useful"
	UnwiredDeadCode       UnwiredType = "dead-code"
)

// RecommendedAction is the per-file action derived by the recommendation engine.
type RecommendedAction string

const (
	ActionKeep     RecommendedAction = "keep"
	ActionMerge    RecommendedAction = "merge"
	ActionArchive  RecommendedAction = "archive"
	ActionWire     RecommendedAction = "wire"
	ActionRefactor RecommendedAction = "refactor"
	ActionReview   RecommendedAction = "review"
)

// GitInsights summarizes the commit history of a single file.
type GitInsights struct {
	HasHistory  bool      `json:"has_history"`
	CommitCount int       `json:"commit_count"`
	FirstCommit time.Time `json:"first_commit,omitempty"`
	LastCommit  time.Time `json:"last_commit,omitempty"`
	Authors     []string  `json:"authors,omitempty"`
}

// WiringSuggestion is a ranked candidate target for integrating an unwired file.
type WiringSuggestion struct {
	TargetPath      string   `json:"target_path"`
	Similarity      float64  `json:"similarity"`
	Reason          string   `json:"reason"`
	IntegrationHint string   `json:"integration_hint"`
	SharedExports   []string `json:"shared_exports,omitempty"`
	SharedImports   []string `json:"shared_imports,omitempty"`
}

// FileRecord holds everything the engine knows about one analyzed file.
// The relative path is the record's identity; later analysis passes mutate
// the record in place until it is folded into the AnalysisReport.
type FileRecord struct {
	RelativePath   string       `json:"relative_path"`
	Size           int64        `json:"size"`
	LineCount      int          `json:"line_count"`
	Category       FileCategory `json:"category"`
	ContentHash    string       `json:"content_hash"`
	StructuralHash string       `json:"structural_hash"`
	ModTime        time.Time    `json:"mod_time"`

	Imports []string `json:"imports,omitempty"`
	Exports []string `json:"exports,omitempty"`

	// Resolved in-tree dependency edges, filled by the graph builder.
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`

	Complexity      int `json:"complexity"`
	UnsafeTypeCount int `json:"unsafe_type_count"`

	IsEntryPoint      bool `json:"is_entry_point"`
	IsBarrel          bool `json:"is_barrel"`
	IsBarrelExported  bool `json:"is_barrel_exported"`
	IsDynamicImported bool `json:"is_dynamic_imported"`
	IsTest            bool `json:"is_test"`

	Issues []string     `json:"issues,omitempty"`
	Git    *GitInsights `json:"git,omitempty"`

	UnwiredType       UnwiredType        `json:"unwired_type,omitempty"`
	WiringSuggestions []WiringSuggestion `json:"wiring_suggestions,omitempty"`

	StabilityScore float64   `json:"stability_score"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      RiskLevel `json:"risk_level"`

	Recommendation           RecommendedAction `json:"recommendation"`
	RecommendationReasons    []string          `json:"recommendation_reasons,omitempty"`
	RecommendationConfidence int               `json:"recommendation_confidence"`

	DuplicateOf          string   `json:"duplicate_of,omitempty"`
	StructuralDuplicates []string `json:"structural_duplicates,omitempty"`
}

// ParseResult is what a source parser extracts from one file's content.
type ParseResult struct {
	Imports         []string
	Exports         []string
	Complexity      int
	UnsafeTypeCount int
	StructuralHash  string
	HasJSX          bool
}

// DependencyGraph maps each file path to its resolved in-tree dependencies.
// The reverse mapping is derived on demand and never mutated independently.
type DependencyGraph struct {
	Edges map[string][]string `json:"edges"`
}

// Reverse derives the dependents mapping from the forward edges.
func (g *DependencyGraph) Reverse() map[string][]string {
	reverse := make(map[string][]string)
	for from, targets := range g.Edges {
		for _, to := range targets {
			reverse[to] = append(reverse[to], from)
		}
	}
	return reverse
}

// EdgeCount returns the total number of resolved dependency edges.
func (g *DependencyGraph) EdgeCount() int {
	count := 0
	for _, targets := range g.Edges {
		count += len(targets)
	}
	return count
}

// DuplicateCluster groups files judged to be copies of one base file.
type DuplicateCluster struct {
	ID               string   `json:"id"`
	Similarity       float64  `json:"similarity"`
	Files            []string `json:"files"`
	BaseFile         string   `json:"base_file"`
	EstimatedSavings int      `json:"estimated_savings"`
	Confidence       float64  `json:"confidence"`
}

// ScanStats reports timing and cache effectiveness for one analysis run.
type ScanStats struct {
	FilesScanned int           `json:"files_scanned"`
	CacheHits    int           `json:"cache_hits"`
	CacheMisses  int           `json:"cache_misses"`
	CacheHitRate float64       `json:"cache_hit_rate"`
	Duration     time.Duration `json:"duration_ns"`
}

// AnalysisReport is the engine's sole output contract. It is read-only once
// produced; rendering to any human-facing format happens outside the engine.
type AnalysisReport struct {
	RootDir           string                 `json:"root_dir"`
	GeneratedAt       time.Time              `json:"generated_at"`
	Files             map[string]*FileRecord `json:"files"`
	Graph             *DependencyGraph       `json:"graph"`
	DuplicateClusters []DuplicateCluster     `json:"duplicate_clusters,omitempty"`
	UnusedFiles       []string               `json:"unused_files,omitempty"`
	UnwiredFiles      []string               `json:"unwired_files,omitempty"`
	HighRiskFiles     []string               `json:"high_risk_files,omitempty"`
	Stats             ScanStats              `json:"stats"`
}
