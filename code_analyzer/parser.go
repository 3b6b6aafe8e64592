package code_analyzer

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/zeebo/xxh3"

	"github.com/reposcope/reposcope/code_analyzer/contracts"
	"github.com/reposcope/reposcope/code_analyzer/models"
)

// DetectLanguage identifies the language of a file from its path. Extension
// mapping covers the supported grammars; anything else is matched against
// chroma's lexer registry so unusual extensions still get a usable hint.
func DetectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".py":
		return "python"
	case ".go":
		return "go"
	}

	if lexer := lexers.Match(filepath.Base(path)); lexer != nil {
		return strings.ToLower(lexer.Config().Name)
	}

	return ""
}

// grammarFor returns the tree-sitter grammar for a language, or nil when no
// grammar is available and the regex variant must be used instead.
func grammarFor(language string) *sitter.Language {
	switch language {
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	case "tsx":
		return tsx.GetLanguage()
	case "python":
		return python.GetLanguage()
	case "go":
		return golang.GetLanguage()
	default:
		return nil
	}
}

// ParseWithFallback applies the parser ladder: AST parse when a grammar
// exists, regex on AST failure or missing grammar, and finally a minimal
// record so that no file is ever dropped for parse reasons alone.
func ParseWithFallback(content []byte, language string) *models.ParseResult {
	if grammarFor(language) != nil {
		if result, err := NewTreeSitterParser().Parse(content, language); err == nil {
			return result
		}
	}

	if result, err := NewRegexParser().Parse(content, language); err == nil {
		return result
	}

	return MinimalParseResult(content)
}

// MinimalParseResult is the last-resort record for unparseable content.
func MinimalParseResult(content []byte) *models.ParseResult {
	return &models.ParseResult{
		Complexity:     1,
		StructuralHash: hashBytes(normalizeStructure(string(content))),
	}
}

func hashBytes(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// HashContent returns the content-addressed hash of raw file bytes.
func HashContent(content []byte) string {
	return hashBytes(content)
}

// ---------------------------------------------------------------------------
// Tree-sitter variant
// ---------------------------------------------------------------------------

// TreeSitterParser walks a parse tree to extract imports, exports,
// decision-point complexity, unsafe-type counts, and a structural hash built
// from node types only, so renamed-but-structurally-identical files collide.
type TreeSitterParser struct{}

// NewTreeSitterParser creates the AST-based parser variant.
func NewTreeSitterParser() contracts.ISourceParser {
	return &TreeSitterParser{}
}

// decisionNodeTypes are the node types counted as decision points across the
// supported grammars.
var decisionNodeTypes = map[string]bool{
	"if_statement":           true,
	"for_statement":          true,
	"for_in_statement":       true,
	"while_statement":        true,
	"do_statement":           true,
	"switch_case":            true,
	"case_clause":            true,
	"expression_case":        true,
	"type_case":              true,
	"catch_clause":           true,
	"except_clause":          true,
	"ternary_expression":     true,
	"conditional_expression": true,
	"elif_clause":            true,
}

func (p *TreeSitterParser) Parse(content []byte, language string) (*models.ParseResult, error) {
	lang := grammarFor(language)
	if lang == nil {
		return nil, fmt.Errorf("no grammar available for language %q", language)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter produced no parse tree")
	}

	root := tree.RootNode()
	if root == nil || root.HasError() && root.NamedChildCount() == 0 {
		return nil, fmt.Errorf("tree-sitter could not parse content")
	}

	result := &models.ParseResult{Complexity: 1}
	hasher := xxh3.New()

	p.walk(root, content, language, result, hasher)

	result.StructuralHash = fmt.Sprintf("%016x", hasher.Sum64())
	return result, nil
}

// walk visits every node (anonymous nodes included, so operators like && are
// seen) in pre-order, feeding node types to the structural hasher as it goes.
func (p *TreeSitterParser) walk(node *sitter.Node, content []byte, language string, result *models.ParseResult, hasher *xxh3.Hasher) {
	nodeType := node.Type()

	// Identifiers and literals contribute only their type name to the hash,
	// which is exactly what serializing types gives us for free.
	hasher.WriteString(nodeType)
	hasher.WriteString("(")

	switch {
	case decisionNodeTypes[nodeType], nodeType == "&&", nodeType == "||", nodeType == "and", nodeType == "or":
		result.Complexity++
	case nodeType == "jsx_element" || nodeType == "jsx_self_closing_element":
		result.HasJSX = true
	case nodeType == "predefined_type" && node.Content(content) == "any":
		result.UnsafeTypeCount++
	}

	switch nodeType {
	case "import_statement", "import_from_statement", "import_declaration":
		if spec := p.importSource(node, content); spec != "" {
			result.Imports = append(result.Imports, spec)
		}
	case "call_expression":
		// require("...") style imports
		if node.ChildCount() >= 2 && node.Child(0).Content(content) == "require" {
			if spec := p.importSource(node, content); spec != "" {
				result.Imports = append(result.Imports, spec)
			}
		}
	case "export_statement":
		result.Exports = append(result.Exports, p.exportedNames(node, content)...)
		// Re-export form: export { X } from './x' is also an import.
		if spec := p.importSource(node, content); spec != "" {
			result.Imports = append(result.Imports, spec)
		}
	}

	// Python and Go have no export statements; top-level declarations are the
	// file's public surface.
	if node.Parent() != nil && node.Parent().Type() == "module" && language == "python" {
		switch nodeType {
		case "function_definition", "class_definition":
			if name := p.namedChildOfType(node, content, "identifier"); name != "" && !strings.HasPrefix(name, "_") {
				result.Exports = append(result.Exports, name)
			}
		}
	}
	if language == "go" && node.Parent() != nil && node.Parent().Type() == "source_file" {
		switch nodeType {
		case "function_declaration", "method_declaration":
			if name := p.namedChildOfType(node, content, "identifier", "field_identifier"); name != "" && isCapitalized(name) {
				result.Exports = append(result.Exports, name)
			}
		case "type_declaration":
			if name := p.descendantOfType(node, "type_identifier", content); name != "" && isCapitalized(name) {
				result.Exports = append(result.Exports, name)
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		p.walk(node.Child(i), content, language, result, hasher)
	}

	hasher.WriteString(")")
}

// importSource finds the quoted module specifier inside an import-like node.
func (p *TreeSitterParser) importSource(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "string", "interpreted_string_literal":
			return strings.Trim(child.Content(content), `"'`)
		case "dotted_name", "relative_import":
			return child.Content(content)
		case "import_spec", "import_spec_list", "arguments":
			if spec := p.importSource(child, content); spec != "" {
				return spec
			}
		}
	}
	return ""
}

// exportedNames collects symbol names declared by a JS/TS export statement.
func (p *TreeSitterParser) exportedNames(node *sitter.Node, content []byte) []string {
	var names []string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "function_declaration", "generator_function_declaration", "class_declaration",
			"interface_declaration", "enum_declaration", "type_alias_declaration", "abstract_class_declaration":
			if name := p.namedChildOfType(child, content, "identifier", "type_identifier"); name != "" {
				names = append(names, name)
			}
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				decl := child.NamedChild(j)
				if decl.Type() == "variable_declarator" {
					if name := p.namedChildOfType(decl, content, "identifier"); name != "" {
						names = append(names, name)
					}
				}
			}
		case "export_clause":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() == "export_specifier" {
					if name := p.namedChildOfType(spec, content, "identifier"); name != "" {
						names = append(names, name)
					}
				}
			}
		case "default":
			names = append(names, "default")
		}
	}

	return names
}

func (p *TreeSitterParser) namedChildOfType(node *sitter.Node, content []byte, types ...string) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		for _, t := range types {
			if child.Type() == t {
				return child.Content(content)
			}
		}
	}
	return ""
}

func (p *TreeSitterParser) descendantOfType(node *sitter.Node, nodeType string, content []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == nodeType {
			return child.Content(content)
		}
		if name := p.descendantOfType(child, nodeType, content); name != "" {
			return name
		}
	}
	return ""
}

func isCapitalized(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

// ---------------------------------------------------------------------------
// Regex variant
// ---------------------------------------------------------------------------

// RegexParser extracts the same signals as the AST variant through pattern
// matching, at lower precision. It is the fallback when no grammar exists or
// the AST parse fails.
type RegexParser struct{}

// NewRegexParser creates the pattern-matching parser variant.
func NewRegexParser() contracts.ISourceParser {
	return &RegexParser{}
}

var (
	jsImportRegex   = regexp.MustCompile(`import\s+(?:[\w{}\s*,$]+\s+from\s+)?['"]([^'"]+)['"]`)
	requireRegex    = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	pyImportRegex   = regexp.MustCompile(`(?m)^\s*(?:from\s+(\S+)\s+import|import\s+([\w.]+))`)
	goImportRegex   = regexp.MustCompile(`(?m)^\s*(?:import\s+)?"([^"]+)"`)
	jsExportRegex   = regexp.MustCompile(`export\s+(?:default\s+)?(?:async\s+)?(?:function\*?|class|const|let|var|interface|type|enum)\s+([A-Za-z_$][\w$]*)`)
	exportListRegex = regexp.MustCompile(`export\s*\{([^}]*)\}`)
	moduleExports   = regexp.MustCompile(`module\.exports(?:\.(\w+))?\s*=`)
	pyDefRegex      = regexp.MustCompile(`(?m)^(?:def|class)\s+([A-Za-z_]\w*)`)
	goFuncRegex     = regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s+)?([A-Z]\w*)`)
	decisionRegex   = regexp.MustCompile(`\b(if|else if|elif|for|while|case|catch|except)\b|\?|&&|\|\|`)
	unsafeTypeRegex = regexp.MustCompile(`:\s*any\b|\bas\s+any\b|<any>`)
	jsxRegex        = regexp.MustCompile(`<[A-Z]\w*[\s/>]|return\s*\(?\s*<`)
)

func (p *RegexParser) Parse(content []byte, language string) (*models.ParseResult, error) {
	source := string(content)

	result := &models.ParseResult{Complexity: 1}

	switch language {
	case "python":
		for _, m := range pyImportRegex.FindAllStringSubmatch(source, -1) {
			if m[1] != "" {
				result.Imports = append(result.Imports, m[1])
			} else if m[2] != "" {
				result.Imports = append(result.Imports, m[2])
			}
		}
		for _, m := range pyDefRegex.FindAllStringSubmatch(source, -1) {
			if !strings.HasPrefix(m[1], "_") {
				result.Exports = append(result.Exports, m[1])
			}
		}
	case "go":
		for _, m := range goImportRegex.FindAllStringSubmatch(source, -1) {
			result.Imports = append(result.Imports, m[1])
		}
		for _, m := range goFuncRegex.FindAllStringSubmatch(source, -1) {
			result.Exports = append(result.Exports, m[1])
		}
	default:
		for _, m := range jsImportRegex.FindAllStringSubmatch(source, -1) {
			result.Imports = append(result.Imports, m[1])
		}
		for _, m := range requireRegex.FindAllStringSubmatch(source, -1) {
			result.Imports = append(result.Imports, m[1])
		}
		for _, m := range jsExportRegex.FindAllStringSubmatch(source, -1) {
			result.Exports = append(result.Exports, m[1])
		}
		for _, m := range exportListRegex.FindAllStringSubmatch(source, -1) {
			for _, name := range strings.Split(m[1], ",") {
				name = strings.TrimSpace(name)
				// "foo as bar" exports bar
				if idx := strings.Index(name, " as "); idx >= 0 {
					name = strings.TrimSpace(name[idx+4:])
				}
				if name != "" {
					result.Exports = append(result.Exports, name)
				}
			}
		}
		for _, m := range moduleExports.FindAllStringSubmatch(source, -1) {
			if m[1] != "" {
				result.Exports = append(result.Exports, m[1])
			} else {
				result.Exports = append(result.Exports, "default")
			}
		}
	}

	result.Complexity += len(decisionRegex.FindAllString(source, -1))
	result.UnsafeTypeCount = len(unsafeTypeRegex.FindAllString(source, -1))
	result.HasJSX = jsxRegex.MatchString(source)
	result.StructuralHash = hashBytes(normalizeStructure(source))

	return result, nil
}

var (
	stringLiteralRegex = regexp.MustCompile(`"[^"]*"|'[^']*'|` + "`[^`]*`")
	numberLiteralRegex = regexp.MustCompile(`\b\d[\d_.]*\b`)
	identifierRegex    = regexp.MustCompile(`\b[A-Za-z_$][\w$]*\b`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
)

// normalizeStructure collapses identifiers and literals so that two files
// differing only in naming normalize to the same byte sequence.
func normalizeStructure(source string) []byte {
	normalized := stringLiteralRegex.ReplaceAllString(source, "s")
	normalized = numberLiteralRegex.ReplaceAllString(normalized, "0")
	normalized = identifierRegex.ReplaceAllString(normalized, "x")
	normalized = whitespaceRegex.ReplaceAllString(normalized, " ")
	return []byte(normalized)
}
