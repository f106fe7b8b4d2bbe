// Package config handles loading and merging of fimcache configuration files.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed defaults.yml
var defaultsYAML []byte

// AuthChecker decides whether a project directory may contribute its config
type AuthChecker interface {
	IsAllowed(path string) (bool, error)
	EndpointsApproved(path string, endpoints []string) bool
}

// SupportedConfigNames contains supported configuration file names (in order of preference)
var SupportedConfigNames = []string{
	".fimcache.yml",
	".fimcache.yaml",
	".fimcache.toml",
	".fimcache.json",
}

const (
	// GlobalConfigName is the name of the global config file
	GlobalConfigName = "global.yml"
	// DotEnvName is the file read for template variables next to the project config
	DotEnvName = ".env"
)

// LocalConfigPath returns the first supported config file in dir, or ""
func LocalConfigPath(dir string) string {
	for _, name := range SupportedConfigNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// IndexConfig controls declaration indexing and selection
type IndexConfig struct {
	MaxChars    int      `koanf:"max_chars" json:"max_chars"`
	HistorySize int      `koanf:"history_size" json:"history_size"`
	Extensions  []string `koanf:"extensions" json:"extensions"`
}

// CacheConfig controls the completion reuse cache
type CacheConfig struct {
	Capacity      int           `koanf:"capacity" json:"capacity"`
	TTL           time.Duration `koanf:"ttl" json:"ttl"`
	MaxCandidates int           `koanf:"max_candidates" json:"max_candidates"`
}

// AdmissionConfig controls the circuit breaker. The debounce lives at the
// top level as debounce_ms.
type AdmissionConfig struct {
	BaseCooldown time.Duration `koanf:"base_cooldown" json:"base_cooldown"`
	MinSamples   int           `koanf:"min_samples" json:"min_samples"`
	RejectRatio  float64       `koanf:"reject_ratio" json:"reject_ratio"`
	RelaxRatio   float64       `koanf:"relax_ratio" json:"relax_ratio"`
	MaxFactor    int           `koanf:"max_factor" json:"max_factor"`
}

// PromptConfig points at an optional custom prompt template
type PromptConfig struct {
	Template string `koanf:"template" json:"template"`
}

// ProviderConfig is one completion endpoint as written in a config file
type ProviderConfig struct {
	Name     string            `koanf:"name" json:"name"`
	Kind     string            `koanf:"kind" json:"kind"`
	URL      string            `koanf:"url" json:"url"`
	Model    string            `koanf:"model" json:"model"`
	Key      string            `koanf:"key" json:"-"`
	Timeout  time.Duration     `koanf:"timeout" json:"timeout"`
	Stream   bool              `koanf:"stream" json:"stream"`
	Sampling SamplingOverrides `koanf:"sampling" json:"sampling"`
}

// RetrievalConfig points at the optional similar-code service
type RetrievalConfig struct {
	Enabled bool          `koanf:"enabled" json:"enabled"`
	URL     string        `koanf:"url" json:"url"`
	Key     string        `koanf:"key" json:"-"`
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
}

// Config represents a merged fimcache configuration
type Config struct {
	DebounceMs   int              `koanf:"debounce_ms" json:"debounce_ms"`
	MultiModel   bool             `koanf:"multi_model" json:"multi_model"`
	ContextLines int              `koanf:"context_lines" json:"context_lines"`
	Index        IndexConfig      `koanf:"index" json:"index"`
	Cache        CacheConfig      `koanf:"cache" json:"cache"`
	Admission    AdmissionConfig  `koanf:"admission" json:"admission"`
	Prompt       PromptConfig     `koanf:"prompt" json:"prompt"`
	Providers    []ProviderConfig `koanf:"providers" json:"providers"`
	Retrieval    RetrievalConfig  `koanf:"retrieval" json:"retrieval"`
	LocalOnly    bool             `koanf:"local_only" json:"local_only"`
	IgnoreGlobal bool             `koanf:"ignore_global" json:"ignore_global"`

	// ConfigDir is the directory of the innermost project config, or the
	// project directory when none was loaded. Exposed to templates as
	// FIMCACHE_DIR.
	ConfigDir string `koanf:"-" json:"-"`

	dotenv map[string]string
}

// Endpoints returns the distinct provider and retrieval URLs, sorted
func (c *Config) Endpoints() []string {
	urls := make([]string, 0, len(c.Providers)+1)
	for _, p := range c.Providers {
		urls = append(urls, p.URL)
	}
	urls = append(urls, c.Retrieval.URL)
	return uniqueSorted(urls)
}

// layer is one parsed config file
type layer struct {
	path         string
	dir          string
	k            *koanf.Koanf
	localOnly    bool
	ignoreGlobal bool
	endpoints    []string
}

// cachedLayer stores a parsed file with its modification time and size
type cachedLayer struct {
	layer   *layer
	modTime time.Time
	size    int64
}

// Loader handles loading and parsing configuration files
type Loader struct {
	// Cache for parsed layers with modtime validation
	parsedCache map[string]*cachedLayer
}

// New creates a new config loader
func New() *Loader {
	return &Loader{
		parsedCache: make(map[string]*cachedLayer),
	}
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

func (l *Loader) loadLayer(path string) (*layer, error) {
	fileInfo, statErr := os.Stat(path)
	if cached, exists := l.parsedCache[path]; exists {
		if statErr == nil && !fileInfo.ModTime().After(cached.modTime) && fileInfo.Size() == cached.size {
			return cached.layer, nil
		}
		delete(l.parsedCache, path)
	}

	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lay := &layer{
		path:         path,
		dir:          filepath.Dir(path),
		k:            k,
		localOnly:    k.Bool("local_only"),
		ignoreGlobal: k.Bool("ignore_global"),
		endpoints:    rawEndpoints(k),
	}

	if statErr == nil {
		l.parsedCache[path] = &cachedLayer{
			layer:   lay,
			modTime: fileInfo.ModTime(),
			size:    fileInfo.Size(),
		}
	}
	return lay, nil
}

// rawEndpoints lists the URLs a file declares, before template expansion
func rawEndpoints(k *koanf.Koanf) []string {
	var urls []string
	if providers, ok := k.Get("providers").([]interface{}); ok {
		for _, p := range providers {
			if m, ok := p.(map[string]interface{}); ok {
				if u, ok := m["url"].(string); ok {
					urls = append(urls, u)
				}
			}
		}
	}
	urls = append(urls, k.String("retrieval.url"))
	return uniqueSorted(urls)
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Load reads and parses a single configuration file on top of the defaults.
// Templates are not expanded.
func (l *Loader) Load(path string) (*Config, error) {
	lay, err := l.loadLayer(path)
	if err != nil {
		return nil, err
	}
	cfg, err := merge([]*layer{lay})
	if err != nil {
		return nil, err
	}
	cfg.ConfigDir = lay.dir
	return cfg, nil
}

// Endpoints returns the endpoints declared by the config file of dir, or nil
// when dir has none.
func (l *Loader) Endpoints(dir string) ([]string, error) {
	path := LocalConfigPath(dir)
	if path == "" {
		return nil, nil
	}
	lay, err := l.loadLayer(path)
	if err != nil {
		return nil, err
	}
	return lay.endpoints, nil
}

// Default returns the built-in configuration
func Default() *Config {
	cfg, err := merge(nil)
	if err != nil {
		panic(fmt.Sprintf("embedded defaults are invalid: %v", err))
	}
	return cfg
}

// DefaultsYAML returns the embedded default configuration
func DefaultsYAML() string {
	return string(defaultsYAML)
}

func merge(layers []*layer) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	for _, lay := range layers {
		if err := k.Merge(lay.k); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", lay.path, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// GetGlobalConfigPath returns the path to the global config file
func GetGlobalConfigPath() (string, error) {
	// Try XDG_CONFIG_HOME first
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, "fimcache", GlobalConfigName), nil
}

// FindConfigFiles searches for config files from current dir up to root
// Returns paths in order from root to leaf (for proper merging)
func FindConfigFiles(startDir string) ([]string, error) {
	var configs []string
	currentDir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if path := LocalConfigPath(currentDir); path != "" {
			configs = append(configs, path)
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}

	// Reverse to get root-to-leaf order
	for i, j := 0, len(configs)-1; i < j; i, j = i+1, j-1 {
		configs[i], configs[j] = configs[j], configs[i]
	}

	return configs, nil
}

// LoadHierarchy loads and merges all configs from global to current directory
func (l *Loader) LoadHierarchy(dir string) (*Config, []string, error) {
	return l.LoadHierarchyWithAuth(dir, nil)
}

// LoadHierarchyWithAuth loads and merges all configs from global to current
// directory. Order: defaults → global → root → ... → dir.
//
// A project config is skipped unless auth allows its directory and approves
// its endpoints. A config with local_only drops every layer above it, and a
// config with ignore_global drops the global layer. Template strings are
// expanded after merging.
func (l *Loader) LoadHierarchyWithAuth(dir string, auth AuthChecker) (*Config, []string, error) {
	var global *layer
	if globalPath, err := GetGlobalConfigPath(); err == nil {
		if _, err := os.Stat(globalPath); err == nil {
			// An invalid global config is skipped; local configs still apply
			if lay, err := l.loadLayer(globalPath); err == nil {
				global = lay
			}
		}
	}

	configFiles, err := FindConfigFiles(dir)
	if err != nil {
		return nil, nil, err
	}

	var locals []*layer
	useGlobal := global != nil
	for _, path := range configFiles {
		configDir := filepath.Dir(path)

		if auth != nil {
			allowed, err := auth.IsAllowed(configDir)
			if err != nil {
				return nil, configFiles, fmt.Errorf("failed to check authorization for %s: %w", configDir, err)
			}
			if !allowed {
				continue
			}
		}

		lay, err := l.loadLayer(path)
		if err != nil {
			return nil, configFiles, err
		}

		if auth != nil && !auth.EndpointsApproved(configDir, lay.endpoints) {
			continue
		}

		if lay.localOnly {
			locals = locals[:0]
			useGlobal = false
		}
		if lay.ignoreGlobal {
			useGlobal = false
		}
		locals = append(locals, lay)
	}

	layers := make([]*layer, 0, len(locals)+1)
	if useGlobal {
		layers = append(layers, global)
	}
	layers = append(layers, locals...)

	cfg, err := merge(layers)
	if err != nil {
		return nil, configFiles, err
	}

	cfg.ConfigDir = dir
	if abs, err := filepath.Abs(dir); err == nil {
		cfg.ConfigDir = abs
	}
	if len(locals) > 0 {
		cfg.ConfigDir = locals[len(locals)-1].dir
	}

	cfg.dotenv, err = readDotEnv(cfg.ConfigDir)
	if err != nil {
		return nil, configFiles, err
	}
	cfg.expand()

	loaded := make([]string, 0, len(layers))
	for _, lay := range layers {
		loaded = append(loaded, lay.path)
	}
	return cfg, loaded, nil
}

func readDotEnv(dir string) (map[string]string, error) {
	path := filepath.Join(dir, DotEnvName)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return vars, nil
}

// expand runs every templated field through expandTemplate
func (c *Config) expand() {
	for i := range c.Providers {
		c.Providers[i].URL = c.expandTemplate(c.Providers[i].URL)
		c.Providers[i].Key = c.expandTemplate(c.Providers[i].Key)
	}
	c.Retrieval.URL = c.expandTemplate(c.Retrieval.URL)
	c.Retrieval.Key = c.expandTemplate(c.Retrieval.Key)
	c.Prompt.Template = c.expandTemplate(c.Prompt.Template)
}

// lookupEnv prefers the process environment over the .env file
func (c *Config) lookupEnv(name string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return c.dotenv[name]
}

// expandTemplate expands a Go template with sprig functions and the
// FIMCACHE_DIR and USER_WORKING_DIR variables. The input is returned
// unchanged when it is not a valid template.
func (c *Config) expandTemplate(text string) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	funcs := sprig.TxtFuncMap()
	funcs["env"] = c.lookupEnv

	tmpl, err := template.New("value").Funcs(funcs).Parse(text)
	if err != nil {
		return text
	}

	cwd, _ := os.Getwd()
	data := map[string]string{
		"FIMCACHE_DIR":     c.ConfigDir,
		"USER_WORKING_DIR": cwd,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return text
	}
	return buf.String()
}
