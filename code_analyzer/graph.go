package code_analyzer

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// resolveExtensions are tried, in order, when a relative import does not
// name an existing file directly.
var resolveExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".py", ".go", ".css", ".scss", ".json"}

var dynamicImportRegex = regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`)

// DependencyGraphBuilder resolves raw import strings to concrete in-tree
// files and fills each record's dependency/dependent lists in place.
type DependencyGraphBuilder struct {
	rootDir string
}

// NewDependencyGraphBuilder creates a builder for the project at rootDir.
func NewDependencyGraphBuilder(rootDir string) *DependencyGraphBuilder {
	return &DependencyGraphBuilder{rootDir: rootDir}
}

// Build resolves edges for every record and returns the forward adjacency.
// Dangling or package-style imports never produce edges. After direct edges
// exist, a second pass marks barrel-exported files and a third flags
// dynamically-imported targets.
func (b *DependencyGraphBuilder) Build(records map[string]*models.FileRecord) *models.DependencyGraph {
	graph := &models.DependencyGraph{Edges: make(map[string][]string)}

	for _, record := range records {
		for _, importString := range record.Imports {
			// Package-style imports are intentionally left unresolved.
			if !strings.HasPrefix(importString, "./") && !strings.HasPrefix(importString, "../") {
				continue
			}

			resolved := b.resolve(record.RelativePath, importString, records)
			if resolved == "" || resolved == record.RelativePath {
				continue
			}

			record.Dependencies = append(record.Dependencies, resolved)
			records[resolved].Dependents = append(records[resolved].Dependents, record.RelativePath)
			graph.Edges[record.RelativePath] = append(graph.Edges[record.RelativePath], resolved)
		}
	}

	// Deterministic ordering keeps reports stable across runs.
	for _, record := range records {
		sort.Strings(record.Dependencies)
		sort.Strings(record.Dependents)
	}
	for from := range graph.Edges {
		sort.Strings(graph.Edges[from])
	}

	b.markBarrelExports(records)
	b.markDynamicImports(records)

	return graph
}

// resolve maps one relative import to an in-tree path by trying the literal
// path, each supported extension, and an index file in the directory. The
// first candidate present in the file set wins.
func (b *DependencyGraphBuilder) resolve(fromPath, importString string, records map[string]*models.FileRecord) string {
	base := path.Dir(fromPath)
	candidate := path.Clean(path.Join(base, importString))

	if _, ok := records[candidate]; ok {
		return candidate
	}

	for _, extension := range resolveExtensions {
		if _, ok := records[candidate+extension]; ok {
			return candidate + extension
		}
	}

	for _, extension := range resolveExtensions {
		indexCandidate := path.Join(candidate, "index"+extension)
		if _, ok := records[indexCandidate]; ok {
			return indexCandidate
		}
	}

	return ""
}

// markBarrelExports flags every direct dependency of a barrel file. The flag
// suppresses false-positive unused/unwired findings later: a file re-exported
// through a barrel is reachable even when nothing imports it directly.
func (b *DependencyGraphBuilder) markBarrelExports(records map[string]*models.FileRecord) {
	for _, record := range records {
		if !record.IsBarrel {
			continue
		}
		for _, dependency := range record.Dependencies {
			records[dependency].IsBarrelExported = true
		}
	}
}

// markDynamicImports re-scans file contents for dynamic-import call patterns
// and flags their targets. Static graph connectivity cannot see these, so
// flagged files are excluded from unused/unwired/archive candidacy.
func (b *DependencyGraphBuilder) markDynamicImports(records map[string]*models.FileRecord) {
	for _, record := range records {
		content, err := os.ReadFile(filepath.Join(b.rootDir, filepath.FromSlash(record.RelativePath)))
		if err != nil {
			continue
		}

		for _, match := range dynamicImportRegex.FindAllStringSubmatch(string(content), -1) {
			specifier := match[1]
			if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
				continue
			}
			if resolved := b.resolve(record.RelativePath, specifier, records); resolved != "" {
				records[resolved].IsDynamicImported = true
			}
		}
	}
}
