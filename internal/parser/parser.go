// Package parser extracts top-level declarations from source files with
// tree-sitter and turns them into index declarations.
package parser

import (
	"fmt"
	"strings"
	"sync"

	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/internal/index"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// maxSignatureLen caps a signature that has no body to cut at
const maxSignatureLen = 200

type compiled struct {
	lang     *tree_sitter.Language
	query    *tree_sitter.Query
	captures []string
}

// Extractor parses files and returns their declarations. Compiled queries
// are shared; each Extract call uses its own parser, so an Extractor is
// safe for concurrent use.
type Extractor struct {
	mu       sync.Mutex
	compiled map[string]*compiled
}

// New creates an extractor. Grammars and queries are loaded lazily.
func New() *Extractor {
	return &Extractor{compiled: make(map[string]*compiled)}
}

// Supports reports whether path has a known grammar
func (e *Extractor) Supports(path string) bool {
	_, ok := LanguageFor(path)
	return ok
}

func (e *Extractor) load(lang string) (*compiled, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.compiled[lang]; ok {
		return c, nil
	}

	tsLang := grammar(lang)
	if tsLang == nil {
		return nil, fmt.Errorf("no grammar for %s", lang)
	}
	query, qErr := tree_sitter.NewQuery(tsLang, querySource(lang))
	if qErr != nil {
		return nil, fmt.Errorf("compile %s query: %w", lang, qErr)
	}

	c := &compiled{lang: tsLang, query: query, captures: query.CaptureNames()}
	e.compiled[lang] = c
	return c, nil
}

// Extract parses src as the file at path
func (e *Extractor) Extract(path string, src []byte) ([]index.Declaration, error) {
	lang, ok := LanguageFor(path)
	if !ok {
		return nil, derrors.NewParseError(path, "unsupported file type", nil)
	}

	c, err := e.load(lang)
	if err != nil {
		return nil, derrors.NewParseError(path, "failed to load grammar", err)
	}

	p := tree_sitter.NewParser()
	defer p.Close()
	if err := p.SetLanguage(c.lang); err != nil {
		return nil, derrors.NewParseError(path, "failed to set language", err)
	}

	tree := p.Parse(src, nil)
	if tree == nil {
		return nil, derrors.NewParseError(path, "parse returned no tree", nil)
	}
	defer tree.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	var decls []index.Declaration
	matches := cursor.Matches(c.query, tree.RootNode(), src)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var name string
		var decl, body *tree_sitter.Node
		for i := range match.Captures {
			capture := &match.Captures[i]
			switch c.captures[capture.Index] {
			case "name":
				name = capture.Node.Utf8Text(src)
			case "decl":
				decl = &capture.Node
			case "body":
				body = &capture.Node
			}
		}
		if name == "" || decl == nil {
			continue
		}

		decls = append(decls, index.Declaration{
			Name:      name,
			FilePath:  path,
			Signature: signature(src, decl, body),
		})
	}
	return decls, nil
}

// signature returns the declaration text before its body, or its first
// line when it has none
func signature(src []byte, decl, body *tree_sitter.Node) string {
	var text string
	if body != nil && body.StartByte() > decl.StartByte() {
		text = string(src[decl.StartByte():body.StartByte()])
	} else {
		text = decl.Utf8Text(src)
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimRight(text, " \t{")
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "=>")
	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > maxSignatureLen {
		text = string(r[:maxSignatureLen])
	}
	return text
}

// Close releases the compiled queries
func (e *Extractor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for lang, c := range e.compiled {
		c.query.Close()
		delete(e.compiled, lang)
	}
}
