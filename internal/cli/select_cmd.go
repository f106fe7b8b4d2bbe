package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/NikitaCOEUR/fimcache/internal/logger"
)

// SelectParams contains parameters for the Select command
type SelectParams struct {
	ProjectDir string
	AuthPath   string
	LogLevel   string
	FilePath   string
	Prefix     string
	MaxChars   int
	Out        io.Writer
}

// Select indexes the project and prints the declarations a completion at
// the end of Prefix would inject, one signature per line
func Select(ctx context.Context, params SelectParams) error {
	log := logger.New(params.LogLevel, os.Stderr)

	filePath, err := absFile(params.FilePath)
	if err != nil {
		return err
	}

	p, err := initializeProject(params.ProjectDir, params.AuthPath, log)
	if err != nil {
		return err
	}
	defer p.Close()

	if _, err := p.indexer.IndexTree(ctx, p.dir); err != nil {
		return fmt.Errorf("failed to index %s: %w", p.dir, err)
	}

	maxChars := params.MaxChars
	if maxChars <= 0 {
		maxChars = p.cfg.Index.MaxChars
	}

	out := stdout(params.Out)
	decls := p.session.Index().SelectRelevant(filePath, params.Prefix, nil, maxChars)
	if len(decls) == 0 {
		_, _ = fmt.Fprintln(out, "No relevant declarations")
		return nil
	}
	for _, d := range decls {
		_, _ = fmt.Fprintf(out, "%s\t%s\n", d.FilePath, d.Signature)
	}
	return nil
}
