package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NikitaCOEUR/fimcache/internal/config"
	"github.com/NikitaCOEUR/fimcache/internal/derrors"
)

const sampleConfig = `# fimcache project configuration
# Run 'fimcache schema' for the full JSON Schema.

# Completion providers, tried in order. With multi_model set, up to three
# are queried concurrently.
providers: []
  # - name: deepseek
  #   kind: deepseek          # deepseek, qwen, thudm or openai
  #   url: https://api.deepseek.com/chat/completions
  #   model: deepseek-chat
  #   key: '{{ env "DEEPSEEK_API_KEY" }}'
  #   timeout: 15s
  #   sampling:
  #     max_tokens: 512

# multi_model: false

# Milliseconds between two provider requests
# debounce_ms: 1000

# index:
  # Character budget for declarations injected into the prompt
  # max_chars: 2048
  # extensions: [.go, .ts, .tsx, .js, .jsx, .mjs, .cjs, .py]

# Similar code retrieval service
# retrieval:
  # enabled: true
  # url: http://localhost:8000/retrieve

# Set to true to ignore parent configs (only use this directory's config)
# local_only: false

# Set to true to ignore the global config (~/.config/fimcache/global.yml)
# ignore_global: false
`

// Init creates a sample .fimcache.yml in the current directory, or the
// global config filled with every default
func Init(global bool) error {
	var configPath, content string

	if global {
		globalPath, err := config.GetGlobalConfigPath()
		if err != nil {
			return derrors.NewConfigurationError("", "failed to get global config path", err)
		}
		configPath = globalPath
		content = "# fimcache global configuration\n" + config.DefaultsYAML()

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return derrors.NewConfigurationError(configPath, "failed to create config directory", err)
		}
	} else {
		currentDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		configPath = filepath.Join(currentDir, config.SupportedConfigNames[0])
		content = sampleConfig
	}

	if _, err := os.Stat(configPath); err == nil {
		return derrors.NewAlreadyExistsError(configPath, fmt.Sprintf("config file already exists: %s", configPath))
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return derrors.NewConfigurationError(configPath, "failed to create config file", err)
	}

	if global {
		fmt.Printf("Created global config: %s\n", configPath)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Add at least one provider")
		fmt.Println("  2. The global config is loaded in every directory without authorization")
	} else {
		fmt.Printf("Created sample config: %s\n", configPath)
		fmt.Println("\nNext steps:")
		fmt.Println("  1. Edit the config file to suit your needs")
		fmt.Println("  2. Run 'fimcache allow' to trust this directory and its endpoints")
		fmt.Println("  3. Run 'fimcache status' to check the result")
	}

	return nil
}
