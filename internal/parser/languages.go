package parser

import (
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Supported language names
const (
	LangGo         = "go"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
	LangJavaScript = "javascript"
	LangPython     = "python"
)

var extensions = map[string]string{
	".go":  LangGo,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".py":  LangPython,
	".pyi": LangPython,
}

// Extensions returns every file extension with a grammar
func Extensions() []string {
	out := make([]string, 0, len(extensions))
	for ext := range extensions {
		out = append(out, ext)
	}
	return out
}

// LanguageFor returns the language of path from its extension
func LanguageFor(path string) (string, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

func grammar(lang string) *tree_sitter.Language {
	switch lang {
	case LangGo:
		return tree_sitter.NewLanguage(tree_sitter_go.Language())
	case LangTypeScript:
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case LangTSX:
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	case LangJavaScript:
		return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	case LangPython:
		return tree_sitter.NewLanguage(tree_sitter_python.Language())
	default:
		return nil
	}
}

// Declaration queries. Every pattern captures the declaration as @decl and
// its name as @name. When @body is captured the signature is the text
// before it, otherwise the first line of @decl.
const goQuery = `
(function_declaration name: (identifier) @name body: (block) @body) @decl
(method_declaration name: (field_identifier) @name body: (block) @body) @decl
(type_declaration (type_spec name: (type_identifier) @name)) @decl
`

const typeScriptQuery = `
(function_declaration name: (identifier) @name body: (statement_block) @body) @decl
(variable_declarator name: (identifier) @name value: (arrow_function body: (_) @body)) @decl
(method_definition name: (property_identifier) @name body: (statement_block) @body) @decl
(class_declaration name: (type_identifier) @name body: (class_body) @body) @decl
(interface_declaration name: (type_identifier) @name) @decl
(type_alias_declaration name: (type_identifier) @name) @decl
`

const javaScriptQuery = `
(function_declaration name: (identifier) @name body: (statement_block) @body) @decl
(variable_declarator name: (identifier) @name value: (arrow_function body: (_) @body)) @decl
(method_definition name: (property_identifier) @name body: (statement_block) @body) @decl
(class_declaration name: (identifier) @name body: (class_body) @body) @decl
`

const pythonQuery = `
(function_definition name: (identifier) @name body: (block) @body) @decl
(class_definition name: (identifier) @name body: (block) @body) @decl
`

func querySource(lang string) string {
	switch lang {
	case LangGo:
		return goQuery
	case LangTypeScript, LangTSX:
		return typeScriptQuery
	case LangJavaScript:
		return javaScriptQuery
	case LangPython:
		return pythonQuery
	default:
		return ""
	}
}
