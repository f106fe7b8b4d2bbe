// Package completion fans completion requests out to the configured providers.
package completion

import (
	"context"
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/provider"
)

// Completer sends one prompt to one provider
type Completer interface {
	Complete(ctx context.Context, cfg provider.Config, prompt string) (*provider.Result, error)
}

// Outcome is the result of one provider call. Exactly one of Completions
// or Err is meaningful.
type Outcome struct {
	Provider      string
	Completions   []string
	FinishReasons []provider.FinishReason
	Err           error
	Elapsed       time.Duration
}

// OK reports whether the provider produced at least one completion
func (o Outcome) OK() bool {
	return o.Err == nil && len(o.Completions) > 0
}

// Completions gathers the completions of every successful outcome, in
// outcome order
func Completions(outcomes []Outcome) []string {
	var out []string
	for _, o := range outcomes {
		if o.OK() {
			out = append(out, o.Completions...)
		}
	}
	return out
}
