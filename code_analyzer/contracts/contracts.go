package contracts

import (
	"context"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// ISourceParser extracts structural signals from one file's content.
// Implementations must never fail fatally; on any parse problem they return
// an error so the caller can fall back to a weaker parser variant.
type ISourceParser interface {
	Parse(content []byte, language string) (*models.ParseResult, error)
}

// IProjectAnalyzer runs the full analysis pipeline over a project tree.
type IProjectAnalyzer interface {
	Analyze(ctx context.Context, rootDir string) (*models.AnalysisReport, error)
	GetCacheStats() map[string]interface{}
	ClearCache() error
}
