package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReformat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "x := 1", "x := 1"},
		{"surrounding whitespace", "  \n x := 1 \n", "x := 1"},
		{"fenced", "```\nx := 1\n```", "x := 1"},
		{"fenced with language", "```go\nfunc f() {}\n```\n", "func f() {}"},
		{"leading blank lines", "\n\n```typescript\nconst a = 1;\n```", "const a = 1;"},
		{"inner fence kept", "a\n```\nb", "a\n```\nb"},
		{"only fences", "```\n```", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reformat(tt.input))
		})
	}
}

func TestReformatAll(t *testing.T) {
	got := ReformatAll([]string{"```\na\n```", "  ", "b"})
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Empty(t, ReformatAll(nil))
}
