package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/NikitaCOEUR/fimcache/internal/admission"
	"github.com/NikitaCOEUR/fimcache/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	allowed  map[string]bool
	rejected map[string]bool
}

func (f *fakeAuth) IsAllowed(path string) (bool, error) {
	return f.allowed[path], nil
}

func (f *fakeAuth) EndpointsApproved(path string, _ []string) bool {
	return !f.rejected[path]
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// isolate points the global config at an empty temp dir
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	return filepath.Join(home, "fimcache", GlobalConfigName)
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New())
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 1000, cfg.DebounceMs)
	assert.Equal(t, time.Second, cfg.Debounce())
	assert.Equal(t, 5, cfg.ContextLines)
	assert.Equal(t, 2048, cfg.Index.MaxChars)
	assert.Equal(t, 10, cfg.Index.HistorySize)
	assert.Contains(t, cfg.Index.Extensions, ".py")
	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Cache.MaxCandidates)
	assert.Equal(t, 60*time.Second, cfg.Admission.BaseCooldown)
	assert.Equal(t, 10, cfg.Admission.MinSamples)
	assert.InDelta(t, 0.3, cfg.Admission.RejectRatio, 1e-9)
	assert.InDelta(t, 0.5, cfg.Admission.RelaxRatio, 1e-9)
	assert.Equal(t, 5, cfg.Admission.MaxFactor)
	assert.Equal(t, 5*time.Second, cfg.Retrieval.Timeout)
	assert.Empty(t, cfg.Providers)
	assert.False(t, cfg.MultiModel)
}

func TestLoader_LoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".fimcache.yml")
	writeFile(t, configPath, heredoc.Doc(`
		debounce_ms: 250
		multi_model: true
		cache:
		  ttl: 1h
		providers:
		  - name: ds
		    kind: deepseek
		    url: https://api.deepseek.com/chat/completions
		    model: deepseek-chat
		    key: secret
		    timeout: 10s
		    sampling:
		      max_tokens: 64
	`))

	cfg, err := New().Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.DebounceMs)
	assert.True(t, cfg.MultiModel)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 500, cfg.Cache.Capacity, "defaults fill missing keys")
	require.Len(t, cfg.Providers, 1)
	p := cfg.Providers[0]
	assert.Equal(t, "ds", p.Name)
	assert.Equal(t, "deepseek", p.Kind)
	assert.Equal(t, 10*time.Second, p.Timeout)
	require.NotNil(t, p.Sampling.MaxTokens)
	assert.Equal(t, 64, *p.Sampling.MaxTokens)
	assert.Equal(t, tmpDir, cfg.ConfigDir)
}

func TestLoader_LoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".fimcache.toml")
	writeFile(t, configPath, heredoc.Doc(`
		local_only = true
		context_lines = 8

		[[providers]]
		name = "qwen"
		kind = "qwen"
		url = "https://example.com/v1/chat/completions"
		model = "qwen2.5-coder"
	`))

	cfg, err := New().Load(configPath)
	require.NoError(t, err)

	assert.True(t, cfg.LocalOnly)
	assert.Equal(t, 8, cfg.ContextLines)
	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, "qwen2.5-coder", cfg.Providers[0].Model)
}

func TestLoader_LoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".fimcache.json")
	writeFile(t, configPath, `{"index": {"max_chars": 100}, "retrieval": {"enabled": true, "url": "http://rag:8000/query"}}`)

	cfg, err := New().Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Index.MaxChars)
	assert.True(t, cfg.Retrieval.Enabled)
	assert.Equal(t, "http://rag:8000/query", cfg.Retrieval.URL)
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.ini")
	writeFile(t, configPath, "a=b")

	_, err := New().Load(configPath)
	assert.ErrorContains(t, err, "unsupported config format")
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".fimcache.yml")
	writeFile(t, configPath, "providers: [\n")

	_, err := New().Load(configPath)
	assert.Error(t, err)
}

func TestLoader_CacheInvalidatedOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".fimcache.yml")
	writeFile(t, configPath, "debounce_ms: 100\n")

	l := New()
	cfg, err := l.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.DebounceMs)

	writeFile(t, configPath, "debounce_ms: 20000\n")
	cfg, err = l.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 20000, cfg.DebounceMs)
}

func TestLocalConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	assert.Empty(t, LocalConfigPath(tmpDir))

	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, ".fimcache.yml"), 0755))
	assert.Empty(t, LocalConfigPath(tmpDir), "directories are skipped")

	writeFile(t, filepath.Join(tmpDir, ".fimcache.json"), "{}")
	assert.Equal(t, filepath.Join(tmpDir, ".fimcache.json"), LocalConfigPath(tmpDir))
}

func TestFindConfigFiles_RootToLeaf(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "a", "b")
	writeFile(t, filepath.Join(root, ".fimcache.yml"), "{}")
	writeFile(t, filepath.Join(child, ".fimcache.toml"), "")

	files, err := FindConfigFiles(child)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, ".fimcache.yml"),
		filepath.Join(child, ".fimcache.toml"),
	}, files)
}

func TestGetGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path, err := GetGlobalConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/fimcache/global.yml", path)
}

func TestLoadHierarchy_MergeOrder(t *testing.T) {
	globalPath := isolate(t)
	writeFile(t, globalPath, heredoc.Doc(`
		debounce_ms: 500
		context_lines: 7
		providers:
		  - name: global
		    kind: openai
		    url: https://api.openai.com/v1/chat/completions
		    model: gpt-4o-mini
	`))

	root := t.TempDir()
	child := filepath.Join(root, "svc")
	writeFile(t, filepath.Join(root, ".fimcache.yml"), "debounce_ms: 800\n")
	writeFile(t, filepath.Join(child, ".fimcache.yml"), heredoc.Doc(`
		providers:
		  - name: local
		    kind: deepseek
		    url: https://api.deepseek.com/chat/completions
		    model: deepseek-chat
	`))

	cfg, files, err := New().LoadHierarchy(child)
	require.NoError(t, err)

	assert.Equal(t, []string{globalPath, filepath.Join(root, ".fimcache.yml"), filepath.Join(child, ".fimcache.yml")}, files)
	assert.Equal(t, 800, cfg.DebounceMs)
	assert.Equal(t, 7, cfg.ContextLines)
	require.Len(t, cfg.Providers, 1, "provider lists are replaced, not appended")
	assert.Equal(t, "local", cfg.Providers[0].Name)
	assert.Equal(t, child, cfg.ConfigDir)
}

func TestLoadHierarchy_NoConfig(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, files, err := New().LoadHierarchy(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.Equal(t, Default().DebounceMs, cfg.DebounceMs)
	assert.Equal(t, dir, cfg.ConfigDir)
}

func TestLoadHierarchy_LocalOnly(t *testing.T) {
	globalPath := isolate(t)
	writeFile(t, globalPath, "context_lines: 9\n")

	root := t.TempDir()
	child := filepath.Join(root, "svc")
	writeFile(t, filepath.Join(root, ".fimcache.yml"), "debounce_ms: 800\n")
	writeFile(t, filepath.Join(child, ".fimcache.yml"), "local_only: true\nmulti_model: true\n")

	cfg, files, err := New().LoadHierarchy(child)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(child, ".fimcache.yml")}, files)
	assert.Equal(t, 1000, cfg.DebounceMs)
	assert.Equal(t, 5, cfg.ContextLines)
	assert.True(t, cfg.MultiModel)
	assert.True(t, cfg.LocalOnly)
}

func TestLoadHierarchy_IgnoreGlobal(t *testing.T) {
	globalPath := isolate(t)
	writeFile(t, globalPath, "context_lines: 9\n")

	root := t.TempDir()
	child := filepath.Join(root, "svc")
	writeFile(t, filepath.Join(root, ".fimcache.yml"), "debounce_ms: 800\n")
	writeFile(t, filepath.Join(child, ".fimcache.yml"), "ignore_global: true\n")

	cfg, files, err := New().LoadHierarchy(child)
	require.NoError(t, err)

	assert.NotContains(t, files, globalPath)
	assert.Len(t, files, 2)
	assert.Equal(t, 800, cfg.DebounceMs)
	assert.Equal(t, 5, cfg.ContextLines)
}

func TestLoadHierarchy_InvalidGlobalIsSkipped(t *testing.T) {
	globalPath := isolate(t)
	writeFile(t, globalPath, "providers: [\n")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".fimcache.yml"), "debounce_ms: 42\n")

	cfg, files, err := New().LoadHierarchy(dir)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.DebounceMs)
	assert.Len(t, files, 1)
}

func TestLoadHierarchyWithAuth(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	child := filepath.Join(root, "svc")
	writeFile(t, filepath.Join(root, ".fimcache.yml"), "debounce_ms: 800\n")
	writeFile(t, filepath.Join(child, ".fimcache.yml"), "context_lines: 2\n")

	t.Run("unauthorized directories are skipped", func(t *testing.T) {
		auth := &fakeAuth{allowed: map[string]bool{child: true}}
		cfg, files, err := New().LoadHierarchyWithAuth(child, auth)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(child, ".fimcache.yml")}, files)
		assert.Equal(t, 1000, cfg.DebounceMs)
		assert.Equal(t, 2, cfg.ContextLines)
	})

	t.Run("changed endpoints are skipped", func(t *testing.T) {
		auth := &fakeAuth{
			allowed:  map[string]bool{root: true, child: true},
			rejected: map[string]bool{child: true},
		}
		cfg, files, err := New().LoadHierarchyWithAuth(child, auth)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, ".fimcache.yml")}, files)
		assert.Equal(t, 800, cfg.DebounceMs)
		assert.Equal(t, 5, cfg.ContextLines)
		assert.Equal(t, root, cfg.ConfigDir)
	})
}

func TestLoader_Endpoints(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".fimcache.yml"), heredoc.Doc(`
		providers:
		  - kind: deepseek
		    url: https://b.example.com/v1
		    model: m
		  - kind: qwen
		    url: https://a.example.com/v1
		    model: m
		  - kind: qwen
		    url: https://a.example.com/v1
		    model: n
		retrieval:
		  url: http://rag.local/query
	`))

	endpoints, err := New().Endpoints(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://rag.local/query", "https://a.example.com/v1", "https://b.example.com/v1"}, endpoints)

	none, err := New().Endpoints(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestConfig_ProviderConfigs(t *testing.T) {
	temp := 0.5
	cfg := &Config{Providers: []ProviderConfig{
		{Name: "ds", Kind: "DeepSeek", URL: "https://x", Model: "m", Key: "k"},
		{Name: "q", Kind: "qwen", URL: "https://y", Model: "m", Key: "k", Timeout: time.Second,
			Sampling: SamplingOverrides{Temperature: &temp}},
		{Name: "bad", Kind: "unknown", URL: "https://z", Model: "m", Key: "k"},
	}}

	got := cfg.ProviderConfigs()
	require.Len(t, got, 3)

	assert.Equal(t, provider.KindDeepSeek, got[0].Kind)
	assert.Equal(t, provider.DefaultTimeout, got[0].Timeout)
	assert.Equal(t, 1024, got[0].Sampling.MaxTokens)
	assert.True(t, got[0].Configured())

	assert.Equal(t, time.Second, got[1].Timeout)
	assert.InDelta(t, 0.5, got[1].Sampling.Temperature, 1e-9)
	assert.InDelta(t, 0.7, got[1].Sampling.TopP, 1e-9)

	assert.False(t, got[2].Configured())
	assert.Contains(t, got[2].Missing(), "kind")
}

func TestConfig_ComponentOptions(t *testing.T) {
	cfg := Default()

	adm := cfg.AdmissionOptions()
	assert.Equal(t, time.Second, adm.Debounce)
	assert.Equal(t, 60*time.Second, adm.BaseCooldown)
	assert.InDelta(t, 0.3, adm.RejectRatio, 1e-9)

	cfg.Admission.RejectRatio = 0
	assert.Equal(t, admission.BreakerOff, cfg.AdmissionOptions().RejectRatio)

	c := cfg.CacheOptions()
	assert.Equal(t, 500, c.Capacity)
	assert.Equal(t, 24*time.Hour, c.TTL)

	r := cfg.RetrievalConfig()
	assert.False(t, r.Enabled)
	assert.Equal(t, 5*time.Second, r.Timeout)
}

func TestConfig_Endpoints(t *testing.T) {
	cfg := &Config{
		Providers: []ProviderConfig{{URL: "https://b"}, {URL: "https://a"}, {URL: ""}},
		Retrieval: RetrievalConfig{URL: "https://a"},
	}
	assert.Equal(t, []string{"https://a", "https://b"}, cfg.Endpoints())
}
