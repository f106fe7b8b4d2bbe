// Package status provides status information collection and display for fimcache.
package status

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/auth"
	"github.com/NikitaCOEUR/fimcache/internal/completion"
	"github.com/NikitaCOEUR/fimcache/internal/config"
	"github.com/NikitaCOEUR/fimcache/internal/index"
	"github.com/NikitaCOEUR/fimcache/internal/logger"
	"github.com/NikitaCOEUR/fimcache/internal/parser"
	"github.com/NikitaCOEUR/fimcache/internal/watcher"
	"github.com/NikitaCOEUR/fimcache/pkg/version"
)

// CollectAll gathers status information for projectDir
func CollectAll(projectDir, authPath string) (*Data, error) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}

	data := &Data{
		ProjectDir:   absDir,
		Version:      version.Version,
		AuthPath:     authPath,
		LocalConfigs: make([]config.FileInfo, 0),
		Providers:    make([]completion.ProviderInfo, 0),
		Extensions:   make([]string, 0),
		Flags:        make([]string, 0),
	}

	authMgr, err := auth.New(authPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	hierarchyInfo, err := config.GetHierarchyInfo(absDir, authMgr)
	if err != nil {
		return nil, fmt.Errorf("failed to get config hierarchy: %w", err)
	}
	data.GlobalConfig = hierarchyInfo.GlobalConfig
	data.LocalConfigs = hierarchyInfo.LocalConfigs

	// Only project configs need trust; the global config is the user's own
	data.HasAnyConfig = len(data.LocalConfigs) > 0
	data.Authorized = true
	for _, fi := range data.LocalConfigs {
		if !fi.Authorized || !fi.EndpointsApproved {
			data.Authorized = false
		}
	}

	if dirAuth := authMgr.GetAuth(absDir); dirAuth != nil {
		endpoints, _ := config.New().Endpoints(absDir)
		data.Trust = &TrustInfo{
			AllowedAt:           dirAuth.AllowedAt,
			EndpointsApprovedAt: dirAuth.EndpointsApprovedAt,
			EndpointsApproved:   authMgr.EndpointsApproved(absDir, endpoints),
		}
	}

	merged := hierarchyInfo.MergedConfig
	details := config.GetConfigDetails(merged)
	data.RetrievalHost = details.RetrievalHost
	data.Extensions = details.Extensions
	data.Flags = details.Flags

	engine := completion.NewEngine(nil, merged.ProviderConfigs(), logger.Nop())
	data.Providers = engine.GetProviderInfo(merged.MultiModel)
	data.Settings = settingsOf(merged)

	return data, nil
}

func settingsOf(cfg *config.Config) Settings {
	return Settings{
		Debounce:      cfg.Debounce(),
		ContextLines:  cfg.ContextLines,
		MaxChars:      cfg.Index.MaxChars,
		HistorySize:   cfg.Index.HistorySize,
		CacheCapacity: cfg.Cache.Capacity,
		CacheTTL:      cfg.Cache.TTL,
		MaxCandidates: cfg.Cache.MaxCandidates,
		BaseCooldown:  cfg.Admission.BaseCooldown,
		MinSamples:    cfg.Admission.MinSamples,
		RejectRatio:   cfg.Admission.RejectRatio,
		RelaxRatio:    cfg.Admission.RelaxRatio,
		MaxFactor:     cfg.Admission.MaxFactor,
	}
}

// CollectIndex parses every supported file under root and reports the
// resulting index size
func CollectIndex(ctx context.Context, root string, extensions []string) (*IndexInfo, error) {
	extractor := parser.New()
	defer extractor.Close()

	ix := index.New()
	start := time.Now()
	indexer := watcher.NewIndexer(watcher.FilterExtensions(extractor, extensions), ix, logger.Nop())
	files, err := indexer.IndexTree(ctx, root)
	if err != nil {
		return nil, err
	}

	stats := ix.Stats()
	return &IndexInfo{
		Files:        files,
		Declarations: stats.Declarations,
		Names:        stats.Names,
		Chars:        stats.Chars,
		Took:         time.Since(start),
	}, nil
}
