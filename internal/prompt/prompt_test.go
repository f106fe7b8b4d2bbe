package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/NikitaCOEUR/fimcache/internal/index"
	"github.com/NikitaCOEUR/fimcache/internal/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_AllSections(t *testing.T) {
	in := Input{
		CodePrefix: "func main() {\n\tload",
		Declarations: []index.Declaration{
			{Name: "loadUser", FilePath: "user.go", Signature: "func loadUser(id string) (*User, error)"},
		},
		Snippets:      []retrieval.Snippet{{Code: "u, err := loadUser(id)", FilePath: "x.go", Language: "go"}},
		FunctionNames: []string{"loadUser", "saveUser"},
	}

	out, err := New().Build(in)
	require.NoError(t, err)

	assert.Contains(t, out, "[Code Prefix]\nfunc main() {\n\tload\n")
	assert.Contains(t, out, "[Relevant Declarations]\n// user.go\nfunc loadUser(id string) (*User, error)")
	assert.Contains(t, out, "[Most Similar Code]")
	assert.Contains(t, out, `"code_content": "u, err := loadUser(id)"`)
	assert.Contains(t, out, "[Functions in Scope]\nloadUser, saveUser")
	assert.Contains(t, out, "Respond ONLY with the code completion.")
}

func TestBuild_OptionalSectionsOmitted(t *testing.T) {
	out, err := New().Build(Input{CodePrefix: "x"})
	require.NoError(t, err)

	assert.NotContains(t, out, "[Relevant Declarations]")
	assert.NotContains(t, out, "[Most Similar Code]")
	assert.NotContains(t, out, "[Functions in Scope]")
}

func TestBuild_Deterministic(t *testing.T) {
	in := Input{CodePrefix: "a", FunctionNames: []string{"b", "c"}}
	b := New()

	first, err := b.Build(in)
	require.NoError(t, err)
	second, err := b.Build(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{ .CodePrefix | upper }}|{{ len .FunctionNames }}`), 0o644))

	b, err := FromFile(path)
	require.NoError(t, err)

	out, err := b.Build(Input{CodePrefix: "abc", FunctionNames: []string{"f"}})
	require.NoError(t, err)
	assert.Equal(t, "ABC|1", out)
}

func TestFromFile_Empty(t *testing.T) {
	b, err := FromFile("")
	require.NoError(t, err)
	out, err := b.Build(Input{CodePrefix: "x"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "You are an intelligent code completion assistant."))
}

func TestFromFile_Errors(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.tmpl"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{ .CodePrefix `), 0o644))
	_, err = FromFile(path)
	assert.Error(t, err)
}

func TestBuild_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{ .Nope }}`), 0o644))

	b, err := FromFile(path)
	require.NoError(t, err)
	_, err = b.Build(Input{})
	assert.Error(t, err)
}
