package cli

import (
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".fimcache.yml")
	writeFile(t, configPath, globalWithProvider("https://llm.example.com/v1"))

	require.NoError(t, Validate(configPath))
}

func TestValidate_SchemaError(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".fimcache.yml")
	writeFile(t, configPath, "aliases:\n  ll: ls -la\n")

	err := Validate(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_SemanticError(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".fimcache.yml")
	writeFile(t, configPath, heredoc.Doc(`
		admission:
		  reject_ratio: 0.6
		  relax_ratio: 0.5
	`))

	err := Validate(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_TOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".fimcache.toml")
	writeFile(t, configPath, "debounce_ms = 500\n\n[cache]\nttl = \"1h\"\n")

	require.NoError(t, Validate(configPath))
}

func TestValidate_AutoDetect(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, ".fimcache.yml"), "context_lines: 3\n")

	require.NoError(t, Validate(""))
}

func TestValidate_NoConfigFound(t *testing.T) {
	t.Chdir(t.TempDir())

	err := Validate("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file found")
}

func TestValidate_MissingFile(t *testing.T) {
	err := Validate(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
