package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/internal/logger"
	"github.com/NikitaCOEUR/fimcache/internal/session"
)

// CompleteParams contains parameters for the Complete command
type CompleteParams struct {
	ProjectDir string
	AuthPath   string
	LogLevel   string
	FilePath   string
	// Line and Column are zero-based
	Line       int
	Column     int
	MultiModel bool
	Out        io.Writer
}

// Complete indexes the project, runs one trigger at the cursor and prints
// the response as JSON
func Complete(ctx context.Context, params CompleteParams) error {
	log := logger.New(params.LogLevel, os.Stderr)

	filePath, err := absFile(params.FilePath)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(filePath)
	if err != nil {
		return derrors.NewNotFoundError(filePath, fmt.Sprintf("failed to read %s: %v", filePath, err))
	}

	p, err := initializeProject(params.ProjectDir, params.AuthPath, log)
	if err != nil {
		return err
	}
	defer p.Close()

	files, err := p.indexer.IndexTree(ctx, p.dir)
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", p.dir, err)
	}
	log.Debug().Int("files", files).Msg("Project indexed")

	if err := p.session.OpenFile(filePath, src); err != nil {
		log.Warn().Str("file", filePath).Err(err).Msg("Failed to index current file")
	}

	resp, err := p.session.Complete(ctx, session.Request{
		FilePath:   filePath,
		Document:   string(src),
		Line:       params.Line,
		Column:     params.Column,
		MultiModel: params.MultiModel,
	})
	if err != nil {
		return err
	}
	return writeJSON(stdout(params.Out), resp)
}
