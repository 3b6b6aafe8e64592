package code_analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reposcope/reposcope/code_analyzer/models"
	"github.com/reposcope/reposcope/config"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig
	cfg.EnableCache = false
	cfg.EnableGit = false
	cfg.Workers = 2
	cfg.Verbosity = "error"
	return &cfg
}

// orphanSource builds a substantial disconnected module: enough exports and
// lines to clear the unwired thresholds.
func orphanSource() string {
	var b strings.Builder
	b.WriteString("export function exportReport(rows) {\n")
	for i := 0; i < 30; i++ {
		b.WriteString("\trows.push('row');\n")
	}
	b.WriteString("\treturn rows;\n}\n\n")
	b.WriteString("export function exportSummary(rows) {\n")
	for i := 0; i < 30; i++ {
		b.WriteString("\trows.pop();\n")
	}
	b.WriteString("\treturn rows;\n}\n")
	return b.String()
}

func TestCodeAnalyzer_FullPipeline(t *testing.T) {
	root := t.TempDir()

	writeFixture(t, root, "src/app.js", `
import { format } from './utils/format';

export function start() {
	return format('ready');
}
`)
	writeFixture(t, root, "src/utils/format.js", `
export function format(message) {
	return '[app] ' + message;
}
`)
	writeFixture(t, root, "src/reports/orphan.js", orphanSource())

	duplicate := `
export function clamp(value, min, max) {
	if (value < min) {
		return min;
	}
	return value > max ? max : value;
}
`
	writeFixture(t, root, "src/math/clamp.js", duplicate)
	writeFixture(t, root, "src/legacy/clamp.js", duplicate)

	analyzer := NewCodeAnalyzer(root, testConfig())
	report, err := analyzer.Analyze(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, root, report.RootDir)
	assert.Len(t, report.Files, 5)
	assert.Equal(t, 5, report.Stats.FilesScanned)
	assert.False(t, report.GeneratedAt.IsZero())

	// Graph: app depends on format, nothing else resolves
	assert.Equal(t, []string{"src/utils/format.js"}, report.Files["src/app.js"].Dependencies)
	assert.Equal(t, []string{"src/app.js"}, report.Files["src/utils/format.js"].Dependents)

	// The byte-identical pair forms one exact cluster
	require.Len(t, report.DuplicateClusters, 1)
	cluster := report.DuplicateClusters[0]
	assert.Equal(t, float64(100), cluster.Confidence)
	assert.ElementsMatch(t, []string{"src/math/clamp.js", "src/legacy/clamp.js"}, cluster.Files)

	// The non-base copy is marked and recommended for merging
	marked := report.Files["src/math/clamp.js"]
	if marked.DuplicateOf == "" {
		marked = report.Files["src/legacy/clamp.js"]
	}
	assert.NotEmpty(t, marked.DuplicateOf)
	assert.Equal(t, models.ActionMerge, marked.Recommendation)
	assert.Equal(t, 95, marked.RecommendationConfidence)

	// The substantial disconnected module is both unused and unwired
	assert.Contains(t, report.UnusedFiles, "src/reports/orphan.js")
	assert.Contains(t, report.UnwiredFiles, "src/reports/orphan.js")
	// Freshly written with no history reads as a not-yet-integrated feature
	assert.Equal(t, models.UnwiredNewFeature, report.Files["src/reports/orphan.js"].UnwiredType)

	// Wired files never show up in the findings
	assert.NotContains(t, report.UnusedFiles, "src/utils/format.js")
	assert.NotContains(t, report.UnusedFiles, "src/app.js")

	// Every file carries scores and a recommendation
	for path, file := range report.Files {
		assert.NotEmpty(t, file.Recommendation, path)
		assert.NotEmpty(t, file.RiskLevel, path)
		assert.GreaterOrEqual(t, file.StabilityScore, 0.0, path)
		assert.LessOrEqual(t, file.StabilityScore, 100.0, path)
	}
}

func TestCodeAnalyzer_CacheDisabledStats(t *testing.T) {
	analyzer := NewCodeAnalyzer(t.TempDir(), testConfig())

	stats := analyzer.GetCacheStats()
	assert.Equal(t, false, stats["cache_enabled"])

	assert.NoError(t, analyzer.ClearCache())
}

func TestCodeAnalyzer_ContextCancellation(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "src/app.js", "export const x = 1;\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer := NewCodeAnalyzer(root, testConfig())
	report, err := analyzer.Analyze(ctx, root)

	// A cancelled run still returns cleanly with whatever completed
	require.NoError(t, err)
	require.NotNil(t, report)
}
