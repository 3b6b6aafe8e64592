package code_analyzer

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/reposcope/reposcope/code_analyzer/models"
)

// Extension sets used by the scanner's eligibility filter and the
// categorizer. Source extensions are parsed; asset and style extensions are
// recorded without parsing.
var (
	sourceExtensions = map[string]bool{
		".js": true, ".jsx": true, ".ts": true, ".tsx": true,
		".mjs": true, ".cjs": true, ".py": true, ".go": true,
	}
	styleExtensions = map[string]bool{
		".css": true, ".scss": true, ".sass": true, ".less": true,
	}
	assetExtensions = map[string]bool{
		".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
		".ico": true, ".woff": true, ".woff2": true, ".ttf": true,
	}
	// Explicitly excluded even though their base extension would qualify.
	excludedSuffixes = []string{".min.js", ".min.css", ".d.ts.map", ".map"}
)

var (
	testNameRegex   = regexp.MustCompile(`(\.test\.|\.spec\.|_test\.|^test_)`)
	hookNameRegex   = regexp.MustCompile(`^use[A-Z]`)
	configFileNames = map[string]bool{
		"package.json": true, "tsconfig.json": true, "jsconfig.json": true,
		"webpack.config.js": true, "vite.config.js": true, "vite.config.ts": true,
		"babel.config.js": true, ".babelrc": true, ".eslintrc": true,
		".eslintrc.js": true, ".eslintrc.json": true, "jest.config.js": true,
		"rollup.config.js": true, "setup.py": true, "pyproject.toml": true,
		"go.mod": true, "go.sum": true, "Makefile": true, "Dockerfile": true,
	}
	entryPointNames = map[string]bool{
		"main.js": true, "main.ts": true, "main.tsx": true, "main.jsx": true,
		"app.js": true, "app.ts": true, "app.tsx": true, "app.jsx": true,
		"server.js": true, "server.ts": true,
		"main.py": true, "manage.py": true, "__main__.py": true,
		"main.go": true,
	}
)

// IsEligibleFile reports whether the scanner should record a file at all.
func IsEligibleFile(relPath string) bool {
	lower := strings.ToLower(relPath)
	for _, suffix := range excludedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	ext := strings.ToLower(filepath.Ext(relPath))
	if sourceExtensions[ext] || styleExtensions[ext] || assetExtensions[ext] {
		return true
	}
	return configFileNames[filepath.Base(relPath)]
}

// IsTestFile reports whether a path matches the test-name patterns.
func IsTestFile(relPath string) bool {
	base := filepath.Base(relPath)
	if testNameRegex.MatchString(base) {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if part == "__tests__" || part == "test" || part == "tests" {
			return true
		}
	}
	return false
}

// IsEntryPointFile reports whether a path names a known application entry.
func IsEntryPointFile(relPath string) bool {
	base := strings.ToLower(filepath.Base(relPath))
	if entryPointNames[base] {
		return true
	}
	// A top-level index file is an entry; index files in subdirectories are
	// barrel candidates instead.
	if !strings.Contains(filepath.ToSlash(relPath), "/") {
		name := strings.TrimSuffix(base, filepath.Ext(base))
		return name == "index"
	}
	return false
}

// isIndexLike reports whether the file is named like an aggregator.
func isIndexLike(relPath string) bool {
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) == "index"
}

// Categorize assigns a file category using a fixed decision order. The
// ordering is a behavioral contract: earlier rules always win, and changing
// it changes categorization outcomes.
func Categorize(relPath string, result *models.ParseResult, lineCount int) models.FileCategory {
	base := filepath.Base(relPath)
	ext := strings.ToLower(filepath.Ext(relPath))
	lowerPath := strings.ToLower(filepath.ToSlash(relPath))

	// 1. Test-name patterns
	if IsTestFile(relPath) {
		return models.CategoryTest
	}

	// 2. Config-name patterns
	if configFileNames[base] || strings.Contains(base, ".config.") ||
		ext == ".toml" || ext == ".ini" || ext == ".env" {
		return models.CategoryConfig
	}

	// 3. Known entry-point filenames
	if IsEntryPointFile(relPath) {
		return models.CategoryEntryPoint
	}

	// 4. Barrel heuristic: index-like file with both imports and exports
	if isIndexLike(relPath) && result != nil && len(result.Imports) > 0 && len(result.Exports) > 0 {
		return models.CategoryBarrel
	}

	// 5. Type-definition markers
	if strings.HasSuffix(base, ".d.ts") || base == "types.ts" || base == "types.js" ||
		strings.Contains(lowerPath, "/types/") {
		return models.CategoryTypes
	}

	// 6. Style and asset extensions
	if styleExtensions[ext] {
		return models.CategoryStyle
	}
	if assetExtensions[ext] {
		return models.CategoryAsset
	}

	// 7. Language-specific module (non-JS source languages)
	if ext == ".py" || ext == ".go" {
		return models.CategoryLanguageModule
	}

	// 8. Hook-naming convention
	if hookNameRegex.MatchString(strings.TrimSuffix(base, ext)) {
		return models.CategoryHook
	}

	// 9. JSX/UI markers
	if result != nil && result.HasJSX {
		return models.CategoryComponent
	}

	// 10. Service/API naming
	if strings.Contains(lowerPath, "service") || strings.Contains(lowerPath, "/api/") ||
		strings.Contains(base, "client") || strings.HasSuffix(strings.TrimSuffix(base, ext), "Api") {
		return models.CategoryService
	}

	// 11. Utility naming
	if strings.Contains(lowerPath, "util") || strings.Contains(lowerPath, "helper") ||
		strings.Contains(lowerPath, "/lib/") {
		return models.CategoryUtility
	}

	// 12. Has exports, no UI markers
	if result != nil && len(result.Exports) > 0 {
		return models.CategoryCoreLogic
	}

	return models.CategoryUnknown
}
