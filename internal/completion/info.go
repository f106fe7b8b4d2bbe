package completion

import (
	"net/url"

	"github.com/NikitaCOEUR/fimcache/internal/provider"
)

// ProviderInfo describes a configured provider for status output
type ProviderInfo struct {
	Name       string
	Kind       provider.Kind
	Model      string
	Host       string
	Configured bool
	Missing    []string
	Selected   bool
}

// GetProviderInfo describes every provider known to the engine, marking the
// ones a dispatch would query
func (e *Engine) GetProviderInfo(multiModel bool) []ProviderInfo {
	selected := make(map[string]bool)
	for _, t := range e.Targets(multiModel) {
		selected[t.ID()] = true
	}

	infos := make([]ProviderInfo, 0, len(e.providers))
	for _, p := range e.providers {
		info := ProviderInfo{
			Name:       p.ID(),
			Kind:       p.Kind,
			Model:      p.Model,
			Configured: p.Configured(),
			Missing:    p.Missing(),
			Selected:   selected[p.ID()],
		}
		if u, err := url.Parse(p.URL); err == nil {
			info.Host = u.Host
		}
		infos = append(infos, info)
	}
	return infos
}
