package code_analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// duplicateRecord builds a record the way the scanner would, from content.
func duplicateRecord(t *testing.T, root, relPath, content string) *models.FileRecord {
	t.Helper()
	writeFixture(t, root, relPath, content)

	result := ParseWithFallback([]byte(content), DetectLanguage(relPath))
	return &models.FileRecord{
		RelativePath:   relPath,
		LineCount:      strings.Count(content, "\n") + 1,
		ContentHash:    HashContent([]byte(content)),
		StructuralHash: result.StructuralHash,
		Imports:        result.Imports,
		Exports:        result.Exports,
	}
}

func TestDuplicateDetector_ExactClusters(t *testing.T) {
	root := t.TempDir()

	content := `
export function clamp(value, min, max) {
	if (value < min) {
		return min;
	}
	return value > max ? max : value;
}
`
	records := map[string]*models.FileRecord{
		"a/clamp.js":    duplicateRecord(t, root, "a/clamp.js", content),
		"b/clamp2.js":   duplicateRecord(t, root, "b/clamp2.js", content),
		"c/unrelated.js": duplicateRecord(t, root, "c/unrelated.js", "export const unrelated = true;\n"),
	}

	detector := NewDuplicateDetector(root, 0.85, 2)
	clusters := detector.Detect(context.Background(), records)

	require.Len(t, clusters, 1)
	cluster := clusters[0]

	assert.Equal(t, 1.0, cluster.Similarity)
	assert.Equal(t, float64(100), cluster.Confidence)
	assert.ElementsMatch(t, []string{"a/clamp.js", "b/clamp2.js"}, cluster.Files)
	// Shortest path wins as base
	assert.Equal(t, "a/clamp.js", cluster.BaseFile)
	assert.NotEmpty(t, cluster.ID)

	assert.Equal(t, "a/clamp.js", records["b/clamp2.js"].DuplicateOf)
	assert.Empty(t, records["a/clamp.js"].DuplicateOf)
	assert.Empty(t, records["c/unrelated.js"].DuplicateOf)

	assert.Equal(t, records["b/clamp2.js"].LineCount, cluster.EstimatedSavings)
}

func TestDuplicateDetector_StructuralClusters(t *testing.T) {
	root := t.TempDir()

	template := `
import helper from './helper';

export function greet(name) {
	const tone = %q;
	if (!name) {
		return helper(name);
	}
	return helper(name) + tone;
}

export function farewell(name) {
	return helper(name);
}
`
	friendly := strings.Replace(template, "%q", `"friendly"`, 1)
	formal := strings.Replace(template, "%q", `"formal"`, 1)

	records := map[string]*models.FileRecord{
		"src/greetA.js": duplicateRecord(t, root, "src/greetA.js", friendly),
		"src/greetB.js": duplicateRecord(t, root, "src/greetB.js", formal),
	}

	// Literal-only changes keep the structural hash identical
	require.Equal(t, records["src/greetA.js"].StructuralHash, records["src/greetB.js"].StructuralHash)
	require.NotEqual(t, records["src/greetA.js"].ContentHash, records["src/greetB.js"].ContentHash)

	detector := NewDuplicateDetector(root, 0.85, 2)
	clusters := detector.Detect(context.Background(), records)

	require.Len(t, clusters, 1)
	cluster := clusters[0]

	assert.GreaterOrEqual(t, cluster.Similarity, 0.85)
	assert.Less(t, cluster.Similarity, 1.0)
	assert.ElementsMatch(t, []string{"src/greetA.js", "src/greetB.js"}, cluster.Files)

	assert.Equal(t, []string{"src/greetB.js"}, records["src/greetA.js"].StructuralDuplicates)
	assert.Equal(t, []string{"src/greetA.js"}, records["src/greetB.js"].StructuralDuplicates)

	// Structural membership never sets duplicate_of; that is the exact phase's mark
	assert.Empty(t, records["src/greetA.js"].DuplicateOf)
	assert.Empty(t, records["src/greetB.js"].DuplicateOf)
}

// Files claimed by the exact phase stay out of structural clustering even
// though byte-identical files always share a structural hash.
func TestDuplicateDetector_ExactClaimExcludesStructuralPhase(t *testing.T) {
	root := t.TempDir()

	content := `
export function noop() {
	return null;
}
`
	records := map[string]*models.FileRecord{
		"a/noop.js":  duplicateRecord(t, root, "a/noop.js", content),
		"b/noop2.js": duplicateRecord(t, root, "b/noop2.js", content),
	}

	detector := NewDuplicateDetector(root, 0.85, 1)
	clusters := detector.Detect(context.Background(), records)

	require.Len(t, clusters, 1)
	assert.Equal(t, float64(100), clusters[0].Confidence)
	assert.Empty(t, records["a/noop.js"].StructuralDuplicates)
	assert.Empty(t, records["b/noop2.js"].StructuralDuplicates)
}

func TestDuplicateDetector_BelowThresholdDoesNotCluster(t *testing.T) {
	root := t.TempDir()

	first := `
export function alpha(a) {
	const mode = "one";
	return a + mode;
}
`
	second := `
export function beta(b) {
	const kind = "two";
	return b + kind;
}
`
	records := map[string]*models.FileRecord{
		"src/alpha.js": duplicateRecord(t, root, "src/alpha.js", first),
		"src/beta.js":  duplicateRecord(t, root, "src/beta.js", second),
	}

	// Same shape, but no shared exports or imports and renamed lines keep the
	// pairwise similarity under the threshold.
	require.Equal(t, records["src/alpha.js"].StructuralHash, records["src/beta.js"].StructuralHash)

	detector := NewDuplicateDetector(root, 0.85, 1)
	clusters := detector.Detect(context.Background(), records)

	assert.Empty(t, clusters)
	assert.Empty(t, records["src/alpha.js"].StructuralDuplicates)
}

func TestChooseBaseFile(t *testing.T) {
	assert.Equal(t, "a.js", chooseBaseFile([]string{"src/deep/a.js", "a.js", "b.js"}))
	assert.Equal(t, "a.js", chooseBaseFile([]string{"b.js", "a.js"}))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, jaccard([]string{"a", "b"}, []string{"b", "a"}))
	assert.Equal(t, 0.0, jaccard([]string{"a"}, []string{"b"}))
	assert.Equal(t, 0.0, jaccard(nil, nil))
	assert.InDelta(t, 1.0/3.0, jaccard([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
}

func TestLineSequenceSimilarity(t *testing.T) {
	a := []string{"one", "two", "three", "four"}
	b := []string{"one", "two", "changed", "four"}

	assert.Equal(t, 1.0, lineSequenceSimilarity(a, a))
	assert.InDelta(t, 0.75, lineSequenceSimilarity(a, b), 1e-9)
	assert.Equal(t, 0.0, lineSequenceSimilarity(a, nil))
}
