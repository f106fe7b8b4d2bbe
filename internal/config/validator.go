package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/NikitaCOEUR/fimcache/internal/provider"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string
	Message string
}

// ValidationResult contains the results of config validation
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

func (r *ValidationResult) add(field, format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate validates a config file
func Validate(path string) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:  true,
		Errors: []ValidationError{},
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	cfg, err := New().Load(path)
	if err != nil {
		result.add("syntax", "Failed to parse config: %v", err)
		return result, nil
	}

	validateConfig(cfg, result)
	return result, nil
}

func validateConfig(cfg *Config, result *ValidationResult) {
	if cfg.DebounceMs < 0 {
		result.add("debounce_ms", "Must not be negative")
	}
	if cfg.ContextLines < 0 {
		result.add("context_lines", "Must not be negative")
	}
	if cfg.Index.MaxChars < 0 {
		result.add("index/max_chars", "Must not be negative")
	}
	for _, ext := range cfg.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			result.add("index/extensions", "Extension %q must start with a dot", ext)
		}
	}
	if cfg.Cache.Capacity < 0 {
		result.add("cache/capacity", "Must not be negative")
	}
	if cfg.Cache.TTL < 0 {
		result.add("cache/ttl", "Must not be negative")
	}

	a := cfg.Admission
	if a.RejectRatio < 0 || a.RejectRatio > 1 {
		result.add("admission/reject_ratio", "Must be between 0 and 1")
	}
	if a.RelaxRatio <= 0 || a.RelaxRatio > 1 {
		result.add("admission/relax_ratio", "Must be above 0 and at most 1")
	}
	if a.RejectRatio > 0 && a.RelaxRatio > 0 && a.RejectRatio >= a.RelaxRatio {
		result.add("admission", "reject_ratio (%g) must be lower than relax_ratio (%g)", a.RejectRatio, a.RelaxRatio)
	}

	names := make(map[string]bool)
	for i, p := range cfg.Providers {
		field := fmt.Sprintf("providers/%d", i)
		if p.Name != "" {
			if names[p.Name] {
				result.add(field+"/name", "Duplicate provider name '%s'", p.Name)
			}
			names[p.Name] = true
		}
		if _, err := provider.ParseKind(p.Kind); err != nil {
			result.add(field+"/kind", "Unknown kind %q (expected one of %s)", p.Kind, kindList())
		}
		if strings.TrimSpace(p.Model) == "" {
			result.add(field+"/model", "Model is empty")
		}
		if err := validateEndpoint(p.URL); err != nil {
			result.add(field+"/url", "%v", err)
		}
		if p.Timeout < 0 {
			result.add(field+"/timeout", "Must not be negative")
		}
	}

	if cfg.Retrieval.Enabled {
		if err := validateEndpoint(cfg.Retrieval.URL); err != nil {
			result.add("retrieval/url", "%v", err)
		}
	}
}

// validateEndpoint accepts http(s) URLs and unexpanded templates
func validateEndpoint(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("URL is empty")
	}
	if strings.Contains(raw, "{{") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

func kindList() string {
	kinds := provider.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
