package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/NikitaCOEUR/fimcache/internal/admission"
	"github.com/NikitaCOEUR/fimcache/internal/auth"
	"github.com/NikitaCOEUR/fimcache/internal/cache"
	"github.com/NikitaCOEUR/fimcache/internal/completion"
	"github.com/NikitaCOEUR/fimcache/internal/config"
	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/internal/index"
	"github.com/NikitaCOEUR/fimcache/internal/logger"
	"github.com/NikitaCOEUR/fimcache/internal/parser"
	"github.com/NikitaCOEUR/fimcache/internal/prompt"
	"github.com/NikitaCOEUR/fimcache/internal/provider"
	"github.com/NikitaCOEUR/fimcache/internal/recency"
	"github.com/NikitaCOEUR/fimcache/internal/retrieval"
	"github.com/NikitaCOEUR/fimcache/internal/session"
	"github.com/NikitaCOEUR/fimcache/internal/watcher"
)

// project holds the components built for one project directory
type project struct {
	dir       string
	cfg       *config.Config
	loaded    []string
	extractor *parser.Extractor
	indexer   *watcher.Indexer
	session   *session.Session
}

// resolveDir returns dir as an absolute path, defaulting to the working
// directory
func resolveDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return wd, nil
	}
	return filepath.Abs(dir)
}

// loadConfig merges the configuration hierarchy of dir, honoring only the
// project configs trusted in the store at authPath
func loadConfig(dir, authPath string) (*config.Config, []string, error) {
	authMgr, err := auth.New(authPath)
	if err != nil {
		return nil, nil, derrors.NewAuthorizationError(dir, "failed to initialize auth", err)
	}
	cfg, loaded, err := config.New().LoadHierarchyWithAuth(dir, authMgr)
	if err != nil {
		return nil, nil, derrors.NewConfigurationError(dir, "failed to load config", err)
	}
	return cfg, loaded, nil
}

// initializeProject creates every completion component for dir from its
// configuration
func initializeProject(dir, authPath string, log *logger.Logger) (*project, error) {
	absDir, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}

	cfg, loaded, err := loadConfig(absDir, authPath)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("dir", absDir).Strs("configs", loaded).Msg("Configuration loaded")

	builder, err := prompt.FromFile(promptPath(cfg))
	if err != nil {
		return nil, derrors.NewConfigurationError(cfg.Prompt.Template, "failed to load prompt template", err)
	}

	extractor := parser.New()
	ix := index.New()
	indexer := watcher.NewIndexer(watcher.FilterExtensions(extractor, cfg.Index.Extensions), ix, log)

	sess, err := session.New(session.Options{
		ContextLines:  cfg.ContextLines,
		MaxChars:      cfg.Index.MaxChars,
		MaxCandidates: cfg.Cache.MaxCandidates,
		MultiModel:    cfg.MultiModel,
	}, session.Deps{
		Index:     ix,
		Recency:   recency.New(cfg.Index.HistorySize),
		Cache:     cache.New(cfg.CacheOptions()),
		Admission: admission.New(cfg.AdmissionOptions()),
		Engine:    completion.NewEngine(provider.NewClient(), cfg.ProviderConfigs(), log),
		Prompt:    builder,
		Retrieval: retrieval.New(cfg.RetrievalConfig()),
		Indexer:   indexer,
		Logger:    log,
	})
	if err != nil {
		extractor.Close()
		return nil, err
	}

	return &project{
		dir:       absDir,
		cfg:       cfg,
		loaded:    loaded,
		extractor: extractor,
		indexer:   indexer,
		session:   sess,
	}, nil
}

// Close releases the parsers
func (p *project) Close() {
	p.extractor.Close()
}

// promptPath resolves a relative prompt template against the directory of
// the config that set it
func promptPath(cfg *config.Config) string {
	path := cfg.Prompt.Template
	if path == "" || filepath.IsAbs(path) || cfg.ConfigDir == "" {
		return path
	}
	return filepath.Join(cfg.ConfigDir, path)
}

// absFile resolves a file argument
func absFile(path string) (string, error) {
	if path == "" {
		return "", derrors.NewValidationError("file", "a file is required", nil)
	}
	return filepath.Abs(path)
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
