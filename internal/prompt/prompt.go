// Package prompt assembles the text sent to completion providers.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/NikitaCOEUR/fimcache/internal/index"
	"github.com/NikitaCOEUR/fimcache/internal/retrieval"
)

//go:embed default.tmpl
var defaultTemplate string

// Input holds the structured parts of a prompt
type Input struct {
	CodePrefix    string
	Declarations  []index.Declaration
	Snippets      []retrieval.Snippet
	FunctionNames []string
}

// Builder renders prompts from a template
type Builder struct {
	tmpl *template.Template
}

// New parses the embedded default template
func New() *Builder {
	return &Builder{tmpl: template.Must(parse("default", defaultTemplate))}
}

// FromFile parses the template at path. An empty path returns the default
// builder.
func FromFile(path string) (*Builder, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	tmpl, err := parse(path, string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template %s: %w", path, err)
	}
	return &Builder{tmpl: tmpl}, nil
}

func parse(name, text string) (*template.Template, error) {
	return template.New(name).Option("missingkey=error").Funcs(sprig.TxtFuncMap()).Parse(text)
}

// Build renders in. The same input always yields the same prompt.
func (b *Builder) Build(in Input) (string, error) {
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, in); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
