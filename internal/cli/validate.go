package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/NikitaCOEUR/fimcache/internal/config"
)

// errValidationFailed is returned when a config file has errors
var errValidationFailed = errors.New("validation failed")

// findConfig returns the first supported config file in dir
func findConfig(dir string) (string, error) {
	if path := config.LocalConfigPath(dir); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("no config file found in %s", dir)
}

// Validate checks a configuration file against the JSON Schema, then
// against the rules the schema cannot express. An empty path looks for a
// config in the current directory.
func Validate(configPath string) error {
	if configPath == "" {
		dir, err := resolveDir("")
		if err != nil {
			return err
		}
		if configPath, err = findConfig(dir); err != nil {
			return err
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	fmt.Printf("Validating: %s\n\n", configPath)

	result, err := config.ValidateWithSchema(configPath, content)
	if err != nil {
		return err
	}
	// semantic rules need a document that decodes
	if result.Valid {
		semantic, err := config.Validate(configPath)
		if err != nil {
			return err
		}
		result.Valid = semantic.Valid
		result.Errors = append(result.Errors, semantic.Errors...)
	}

	if result.Valid {
		fmt.Println("✅ Configuration is valid!")
		return nil
	}

	fmt.Println("❌ Configuration has errors:")
	for i, e := range result.Errors {
		fmt.Printf("%d. [%s] %s\n", i+1, e.Field, e.Message)
	}
	fmt.Printf("\nFound %d error(s)\n", len(result.Errors))
	return errValidationFailed
}
