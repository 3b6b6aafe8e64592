package code_analyzer

import (
	"sort"
	"time"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// ClassifierOptions are the thresholds separating noise from findings.
type ClassifierOptions struct {
	MinExports           int
	MinLines             int
	ActiveHistoryCommits int
	RecentWindow         time.Duration
}

// UsageClassifier labels disconnected files as unused, and substantial
// disconnected files as unwired new-feature / orphaned-useful / dead-code.
type UsageClassifier struct {
	options ClassifierOptions
}

// NewUsageClassifier creates a classifier with the given thresholds.
func NewUsageClassifier(options ClassifierOptions) *UsageClassifier {
	return &UsageClassifier{options: options}
}

// Classify mutates unwired_type and issue lists on the records and returns
// the unused and unwired path lists. Absence of commit history degrades the
// three-way split to recency-only; it never errors.
func (c *UsageClassifier) Classify(records map[string]*models.FileRecord) (unused []string, unwired []string) {
	for path, record := range records {
		if !c.isUnused(record) {
			continue
		}

		unused = append(unused, path)
		record.Issues = append(record.Issues, "no inbound references")

		if !c.isUnwiredCandidate(record) {
			continue
		}

		record.UnwiredType = c.classifyUnwired(record)
		unwired = append(unwired, path)
	}

	sort.Strings(unused)
	sort.Strings(unwired)
	return unused, unwired
}

// isUnused: zero dependents, not an entry point, not reachable through a
// barrel, not a test, and not configuration or an asset.
func (c *UsageClassifier) isUnused(record *models.FileRecord) bool {
	if len(record.Dependents) > 0 {
		return false
	}
	if record.IsEntryPoint || record.IsBarrelExported || record.IsTest || record.IsDynamicImported {
		return false
	}
	switch record.Category {
	case models.CategoryConfig, models.CategoryAsset:
		return false
	}
	return true
}

// isUnwiredCandidate filters out small or trivial disconnected files: they
// are noise, not findings. Dynamically-imported files are reachable even
// though the static graph cannot see it.
func (c *UsageClassifier) isUnwiredCandidate(record *models.FileRecord) bool {
	if record.IsDynamicImported {
		return false
	}
	return len(record.Exports) >= c.options.MinExports && record.LineCount >= c.options.MinLines
}

// classifyUnwired decides among new-feature, orphaned-useful, and dead-code.
func (c *UsageClassifier) classifyUnwired(record *models.FileRecord) models.UnwiredType {
	recentlyModified := time.Since(record.ModTime) <= c.options.RecentWindow

	if record.Git == nil || !record.Git.HasHistory {
		// No version-control data: two-way split purely from recency.
		if recentlyModified {
			return models.UnwiredNewFeature
		}
		return models.UnwiredDeadCode
	}

	if recentlyModified && record.Git.CommitCount <= 2 {
		return models.UnwiredNewFeature
	}
	if record.Git.CommitCount >= c.options.ActiveHistoryCommits {
		return models.UnwiredOrphanedUseful
	}
	return models.UnwiredDeadCode
}
