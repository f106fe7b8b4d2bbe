package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/NikitaCOEUR/fimcache/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSchema_Print(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Schema("", &out))

	assert.True(t, gjson.Valid(out.String()))
	assert.Equal(t, "object", gjson.Get(out.String(), "type").String())
	assert.True(t, gjson.Get(out.String(), "properties.providers").Exists())
}

func TestSchema_WriteToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "fimcache.schema.json")

	require.NoError(t, Schema(outputFile, nil))

	content, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Equal(t, config.GetSchemaJSON(), string(content))
}

func TestSchema_InvalidPath(t *testing.T) {
	err := Schema(filepath.Join(t.TempDir(), "missing", "schema.json"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write schema")
}
