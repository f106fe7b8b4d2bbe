package config

import (
	"net/url"
	"os"
	"path/filepath"
)

// FileInfo represents information about a configuration file
type FileInfo struct {
	Path              string
	Loaded            bool
	Authorized        bool
	EndpointsApproved bool
	LocalOnly         bool
	IgnoreGlobal      bool
	Endpoints         []string
	Err               error
}

// GlobalInfo represents information about the global configuration
type GlobalInfo struct {
	Path   string
	Exists bool
	Loaded bool
}

// HierarchyInfo contains information about the configuration hierarchy
type HierarchyInfo struct {
	GlobalConfig *GlobalInfo
	LocalConfigs []FileInfo
	MergedConfig *Config
}

// GetHierarchyInfo returns information about the configuration hierarchy for a directory
func GetHierarchyInfo(currentDir string, authMgr AuthChecker) (*HierarchyInfo, error) {
	loader := New()

	merged, loadedConfigFiles, err := loader.LoadHierarchyWithAuth(currentDir, authMgr)
	if err != nil {
		return nil, err
	}

	loaded := make(map[string]bool, len(loadedConfigFiles))
	for _, path := range loadedConfigFiles {
		loaded[path] = true
	}

	info := &HierarchyInfo{
		LocalConfigs: make([]FileInfo, 0),
		MergedConfig: merged,
	}

	if globalPath, err := GetGlobalConfigPath(); err == nil {
		_, statErr := os.Stat(globalPath)
		info.GlobalConfig = &GlobalInfo{
			Path:   globalPath,
			Exists: statErr == nil,
			Loaded: loaded[globalPath],
		}
	}

	allConfigFiles, _ := FindConfigFiles(currentDir)
	for _, path := range allConfigFiles {
		configDir := filepath.Dir(path)
		fi := FileInfo{Path: path, Loaded: loaded[path]}

		lay, err := loader.loadLayer(path)
		if err != nil {
			fi.Err = err
		} else {
			fi.LocalOnly = lay.localOnly
			fi.IgnoreGlobal = lay.ignoreGlobal
			fi.Endpoints = lay.endpoints
		}

		if authMgr != nil {
			fi.Authorized, _ = authMgr.IsAllowed(configDir)
			fi.EndpointsApproved = fi.Authorized && authMgr.EndpointsApproved(configDir, fi.Endpoints)
		} else {
			fi.Authorized = true
			fi.EndpointsApproved = true
		}

		info.LocalConfigs = append(info.LocalConfigs, fi)
	}

	return info, nil
}

// ProviderSummary describes a configured provider without its key
type ProviderSummary struct {
	Name   string
	Kind   string
	Model  string
	Host   string
	HasKey bool
}

// DetailsInfo contains detailed information about the merged configuration
type DetailsInfo struct {
	Providers     []ProviderSummary
	RetrievalHost string
	Extensions    []string
	Flags         []string
}

// GetConfigDetails extracts detailed information from a merged configuration
func GetConfigDetails(merged *Config) *DetailsInfo {
	details := &DetailsInfo{
		Providers:  make([]ProviderSummary, 0),
		Extensions: make([]string, 0),
		Flags:      make([]string, 0),
	}
	if merged == nil {
		return details
	}

	for _, p := range merged.Providers {
		details.Providers = append(details.Providers, ProviderSummary{
			Name:   p.Name,
			Kind:   p.Kind,
			Model:  p.Model,
			Host:   hostOf(p.URL),
			HasKey: p.Key != "",
		})
	}
	if merged.Retrieval.Enabled {
		details.RetrievalHost = hostOf(merged.Retrieval.URL)
	}
	details.Extensions = append(details.Extensions, merged.Index.Extensions...)

	if merged.MultiModel {
		details.Flags = append(details.Flags, "multi_model")
	}
	if merged.LocalOnly {
		details.Flags = append(details.Flags, "local_only")
	}
	if merged.IgnoreGlobal {
		details.Flags = append(details.Flags, "ignore_global")
	}

	return details
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
