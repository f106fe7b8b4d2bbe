package status

import (
	"errors"
	"testing"
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/completion"
	"github.com/NikitaCOEUR/fimcache/internal/config"
	"github.com/stretchr/testify/assert"
)

func baseData() *Data {
	return &Data{
		ProjectDir:   "/test/dir",
		Version:      "1.0.0",
		AuthPath:     "/test/authorized.json",
		Authorized:   true,
		LocalConfigs: make([]config.FileInfo, 0),
		Providers:    make([]completion.ProviderInfo, 0),
		Flags:        make([]string, 0),
		Settings: Settings{
			Debounce:      time.Second,
			ContextLines:  5,
			MaxChars:      2048,
			HistorySize:   10,
			CacheCapacity: 500,
			CacheTTL:      24 * time.Hour,
			MaxCandidates: 3,
			BaseCooldown:  time.Minute,
			MinSamples:    10,
			RejectRatio:   0.3,
			RelaxRatio:    0.5,
			MaxFactor:     5,
		},
	}
}

func TestRender_EmptyData(t *testing.T) {
	output := Render(baseData())

	assert.Contains(t, output, "Project:")
	assert.Contains(t, output, "/test/dir")
	assert.Contains(t, output, "1.0.0")
	assert.Contains(t, output, "Configuration hierarchy:")
	assert.Contains(t, output, "No configuration files found")
	assert.Contains(t, output, "No provider configured")
	assert.Contains(t, output, "Settings:")
	assert.Contains(t, output, "1s")
	assert.Contains(t, output, "2,048 chars")
	assert.Contains(t, output, "24h0m0s")

	assert.NotContains(t, output, "Trust:")
	assert.NotContains(t, output, "Flags:")
	assert.NotContains(t, output, "Index:")
}

func TestRender_UntrustedConfig(t *testing.T) {
	data := baseData()
	data.HasAnyConfig = true
	data.Authorized = false
	data.LocalConfigs = []config.FileInfo{
		{Path: "/test/.fimcache.yml", Authorized: true, EndpointsApproved: false},
		{Path: "/test/dir/.fimcache.yml", Authorized: false},
		{Path: "/test/dir/sub/.fimcache.json", Err: errors.New("bad json")},
	}

	output := Render(data)

	assert.Contains(t, output, "Trust:")
	assert.Contains(t, output, "fimcache allow /test/dir")
	assert.Contains(t, output, "(endpoints changed)")
	assert.Contains(t, output, "(not authorized)")
	assert.Contains(t, output, "(invalid: bad json)")
}

func TestRender_TrustedConfig(t *testing.T) {
	data := baseData()
	data.HasAnyConfig = true
	data.Trust = &TrustInfo{AllowedAt: time.Now().Add(-2 * time.Hour), EndpointsApproved: true}
	data.GlobalConfig = &config.GlobalInfo{Path: "/home/u/.config/fimcache/global.yml", Exists: true, Loaded: false}
	data.LocalConfigs = []config.FileInfo{
		{Path: "/test/dir/.fimcache.yml", Authorized: true, EndpointsApproved: true, Loaded: true, LocalOnly: true},
	}
	data.Flags = []string{"local_only"}

	output := Render(data)

	assert.Contains(t, output, "Every project config is trusted")
	assert.Contains(t, output, "2 hours ago")
	assert.NotContains(t, output, "Endpoints changed")
	assert.Contains(t, output, "global.yml (global)")
	assert.Contains(t, output, "(ignored)")
	assert.Contains(t, output, "(local only)")
	assert.Contains(t, output, "Flags:")
}

func TestRender_Providers(t *testing.T) {
	data := baseData()
	data.Providers = []completion.ProviderInfo{
		{Name: "ds", Kind: "deepseek", Model: "deepseek-chat", Host: "api.deepseek.com", Configured: true, Selected: true},
		{Name: "qwen", Kind: "qwen", Model: "qwen2.5", Host: "x.io", Missing: []string{"key"}},
	}
	data.RetrievalHost = "rag.local"

	output := Render(data)

	assert.Contains(t, output, "[deepseek] deepseek-chat @ api.deepseek.com")
	assert.Contains(t, output, "(active)")
	assert.Contains(t, output, "missing: key")
	assert.Contains(t, output, "Retrieval")
	assert.Contains(t, output, "rag.local")
}

func TestRender_Index(t *testing.T) {
	data := baseData()
	data.Index = &IndexInfo{Files: 1200, Declarations: 15000, Names: 9000, Chars: 2048000, Took: 1500 * time.Millisecond}

	output := Render(data)

	assert.Contains(t, output, "Index:")
	assert.Contains(t, output, "1,200")
	assert.Contains(t, output, "15,000 (9,000 names)")
	assert.Contains(t, output, "2.0 MB")
	assert.Contains(t, output, "1.5s")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1m0s", formatDuration(time.Minute))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
}
