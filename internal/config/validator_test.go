package config

import (
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(result *ValidationResult) []string {
	out := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestValidate_ValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".fimcache.yml")
	writeFile(t, path, heredoc.Doc(`
		debounce_ms: 500
		providers:
		  - name: ds
		    kind: deepseek
		    url: https://api.deepseek.com/chat/completions
		    model: deepseek-chat
		    key: '{{ env "DEEPSEEK_API_KEY" }}'
		  - name: local
		    kind: qwen
		    url: '{{ env "QWEN_URL" }}'
		    model: qwen2.5-coder
	`))

	result, err := Validate(path)
	require.NoError(t, err)
	assert.True(t, result.Valid, "%v", result.Errors)
	assert.Empty(t, result.Errors)
}

func TestValidate_FileNotFound(t *testing.T) {
	_, err := Validate(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorContains(t, err, "not found")
}

func TestValidate_SyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".fimcache.yml")
	writeFile(t, path, "providers: [\n")

	result, err := Validate(path)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"syntax"}, fields(result))
}

func TestValidate_SemanticErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"negative debounce", "debounce_ms: -1\n", "debounce_ms"},
		{"negative context", "context_lines: -2\n", "context_lines"},
		{"extension without dot", "index:\n  extensions: [go]\n", "index/extensions"},
		{"ratio out of range", "admission:\n  reject_ratio: 1.5\n  relax_ratio: 2\n", "admission/reject_ratio"},
		{"zero relax ratio", "admission:\n  relax_ratio: 0\n", "admission/relax_ratio"},
		{"reject above relax", "admission:\n  reject_ratio: 0.6\n  relax_ratio: 0.5\n", "admission"},
		{"unknown kind", "providers:\n  - kind: claude\n    url: https://x.io\n    model: m\n", "providers/0/kind"},
		{"empty model", "providers:\n  - kind: qwen\n    url: https://x.io\n", "providers/0/model"},
		{"bad scheme", "providers:\n  - kind: qwen\n    url: ftp://x.io\n    model: m\n", "providers/0/url"},
		{"missing url", "providers:\n  - kind: qwen\n    model: m\n", "providers/0/url"},
		{"duplicate names", "providers:\n  - {name: a, kind: qwen, url: 'https://x.io', model: m}\n  - {name: a, kind: qwen, url: 'https://y.io', model: m}\n", "providers/1/name"},
		{"retrieval without url", "retrieval:\n  enabled: true\n", "retrieval/url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".fimcache.yml")
			writeFile(t, path, tt.content)

			result, err := Validate(path)
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.Contains(t, fields(result), tt.field)
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	assert.NoError(t, validateEndpoint("https://api.deepseek.com/chat/completions"))
	assert.NoError(t, validateEndpoint("http://localhost:8080/v1"))
	assert.NoError(t, validateEndpoint(`{{ env "URL" }}`))
	assert.Error(t, validateEndpoint(""))
	assert.Error(t, validateEndpoint("localhost:8080"))
	assert.Error(t, validateEndpoint("https://"))
}
