package cli

import (
	"context"
	"fmt"

	"github.com/NikitaCOEUR/fimcache/internal/status"
)

// StatusParams contains parameters for the Status command
type StatusParams struct {
	ProjectDir string
	AuthPath   string
	// Index also indexes the project and reports its size
	Index bool
}

// Status displays the configuration status of a project
func Status(ctx context.Context, params StatusParams) error {
	dir, err := resolveDir(params.ProjectDir)
	if err != nil {
		return err
	}

	data, err := status.CollectAll(dir, params.AuthPath)
	if err != nil {
		return fmt.Errorf("failed to collect status data: %w", err)
	}

	if params.Index {
		data.Index, err = status.CollectIndex(ctx, data.ProjectDir, data.Extensions)
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", data.ProjectDir, err)
		}
	}

	fmt.Println(status.Render(data))
	return nil
}
