package config

import (
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/admission"
	"github.com/NikitaCOEUR/fimcache/internal/cache"
	"github.com/NikitaCOEUR/fimcache/internal/provider"
	"github.com/NikitaCOEUR/fimcache/internal/retrieval"
)

// SamplingOverrides replaces individual sampling parameters of a provider kind
type SamplingOverrides = provider.Overrides

// Debounce returns debounce_ms as a duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ProviderConfigs resolves each configured provider against its kind
// defaults. An unknown kind leaves Kind empty, so the provider is reported
// as not configured.
func (c *Config) ProviderConfigs() []provider.Config {
	out := make([]provider.Config, 0, len(c.Providers))
	for _, p := range c.Providers {
		kind, err := provider.ParseKind(p.Kind)
		if err != nil {
			kind = ""
		}
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = provider.DefaultTimeout
		}
		out = append(out, provider.Config{
			Name:     p.Name,
			Kind:     kind,
			URL:      p.URL,
			Model:    p.Model,
			Key:      p.Key,
			Timeout:  timeout,
			Stream:   p.Stream,
			Sampling: provider.DefaultSampling(kind).Apply(p.Sampling),
		})
	}
	return out
}

// AdmissionOptions returns the admission controller settings. A
// reject_ratio of 0 turns the breaker off.
func (c *Config) AdmissionOptions() admission.Options {
	reject := c.Admission.RejectRatio
	if reject == 0 {
		reject = admission.BreakerOff
	}
	return admission.Options{
		Debounce:     c.Debounce(),
		BaseCooldown: c.Admission.BaseCooldown,
		MinSamples:   c.Admission.MinSamples,
		RejectRatio:  reject,
		RelaxRatio:   c.Admission.RelaxRatio,
		MaxFactor:    c.Admission.MaxFactor,
	}
}

// CacheOptions returns the reuse cache settings
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Capacity: c.Cache.Capacity,
		TTL:      c.Cache.TTL,
	}
}

// RetrievalConfig returns the retrieval client settings
func (c *Config) RetrievalConfig() retrieval.Config {
	return retrieval.Config{
		Enabled: c.Retrieval.Enabled,
		URL:     c.Retrieval.URL,
		Key:     c.Retrieval.Key,
		Timeout: c.Retrieval.Timeout,
	}
}
