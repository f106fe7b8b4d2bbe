package provider

import (
	"fmt"
	"strings"
)

// Kind identifies a provider family. Each kind has its own sampling defaults.
type Kind string

const (
	KindDeepSeek Kind = "deepseek"
	KindQwen     Kind = "qwen"
	KindTHUDM    Kind = "thudm"
	KindOpenAI   Kind = "openai"
)

// Kinds lists every supported kind
func Kinds() []Kind {
	return []Kind{KindDeepSeek, KindQwen, KindTHUDM, KindOpenAI}
}

// ParseKind parses a kind name, ignoring case
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown provider kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is a supported kind
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Sampling holds the generation parameters sent with every request
type Sampling struct {
	MaxTokens        int      `json:"max_tokens" koanf:"max_tokens"`
	Temperature      float64  `json:"temperature" koanf:"temperature"`
	TopP             float64  `json:"top_p" koanf:"top_p"`
	FrequencyPenalty float64  `json:"frequency_penalty" koanf:"frequency_penalty"`
	N                int      `json:"n" koanf:"n"`
	Stop             []string `json:"stop" koanf:"stop"`
}

// Overrides replaces individual sampling parameters. Nil fields keep the
// kind default.
type Overrides struct {
	MaxTokens        *int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" koanf:"max_tokens"`
	Temperature      *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" koanf:"temperature"`
	TopP             *float64 `json:"top_p,omitempty" yaml:"top_p,omitempty" koanf:"top_p"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty" koanf:"frequency_penalty"`
	N                *int     `json:"n,omitempty" yaml:"n,omitempty" koanf:"n"`
	Stop             []string `json:"stop,omitempty" yaml:"stop,omitempty" koanf:"stop"`
}

// DefaultSampling returns the sampling defaults of kind
func DefaultSampling(kind Kind) Sampling {
	switch kind {
	case KindDeepSeek:
		return Sampling{MaxTokens: 1024, Temperature: 1, TopP: 1, FrequencyPenalty: 0, N: 1}
	case KindQwen, KindTHUDM:
		return Sampling{MaxTokens: 512, Temperature: 0, TopP: 0.7, FrequencyPenalty: 0.5, N: 1}
	default:
		return Sampling{MaxTokens: 512, Temperature: 0.2, TopP: 1, FrequencyPenalty: 0, N: 1}
	}
}

// Apply returns s with every non-nil override applied
func (s Sampling) Apply(o Overrides) Sampling {
	if o.MaxTokens != nil {
		s.MaxTokens = *o.MaxTokens
	}
	if o.Temperature != nil {
		s.Temperature = *o.Temperature
	}
	if o.TopP != nil {
		s.TopP = *o.TopP
	}
	if o.FrequencyPenalty != nil {
		s.FrequencyPenalty = *o.FrequencyPenalty
	}
	if o.N != nil {
		s.N = *o.N
	}
	if o.Stop != nil {
		s.Stop = append([]string(nil), o.Stop...)
	}
	return s
}
