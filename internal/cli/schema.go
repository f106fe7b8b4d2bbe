package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/NikitaCOEUR/fimcache/internal/config"
)

// Schema prints the configuration JSON Schema to out, or writes it to
// outputPath when set
func Schema(outputPath string, out io.Writer) error {
	schemaJSON := config.GetSchemaJSON()

	if outputPath == "" {
		_, err := fmt.Fprintln(stdout(out), schemaJSON)
		return err
	}

	if err := os.WriteFile(outputPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to %s: %w", outputPath, err)
	}
	fmt.Printf("JSON Schema written to: %s\n", outputPath)
	return nil
}
