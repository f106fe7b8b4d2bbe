package completion

import (
	"context"
	"time"

	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/internal/logger"
	"github.com/NikitaCOEUR/fimcache/internal/provider"
	"golang.org/x/sync/errgroup"
)

// MaxParallel is the maximum number of providers queried for one trigger
const MaxParallel = 3

// Engine dispatches prompts to providers
type Engine struct {
	completer Completer
	providers []provider.Config
	log       *logger.Logger
}

// NewEngine creates an engine over providers, in configuration order
func NewEngine(completer Completer, providers []provider.Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		completer: completer,
		providers: append([]provider.Config(nil), providers...),
		log:       log,
	}
}

// Targets returns the providers a dispatch would query: the first fully
// configured one, or up to MaxParallel of them when multiModel is set.
func (e *Engine) Targets(multiModel bool) []provider.Config {
	limit := 1
	if multiModel {
		limit = MaxParallel
	}

	var targets []provider.Config
	for _, p := range e.providers {
		if !p.Configured() {
			continue
		}
		targets = append(targets, p)
		if len(targets) == limit {
			break
		}
	}
	return targets
}

// Dispatch sends prompt to the target providers concurrently and waits for
// all of them. A failing provider never cancels its siblings; its error is
// reported in its Outcome. The returned error is only set when no provider
// is fully configured, in which case nothing is sent.
func (e *Engine) Dispatch(ctx context.Context, prompt string, multiModel bool) ([]Outcome, error) {
	targets := e.Targets(multiModel)
	if len(targets) == 0 {
		return nil, derrors.NewConfigurationError("providers", "no fully configured provider (url, model, kind and key are required)", nil)
	}

	outcomes := make([]Outcome, len(targets))
	var g errgroup.Group
	g.SetLimit(MaxParallel)
	for i, cfg := range targets {
		g.Go(func() error {
			outcomes[i] = e.call(ctx, cfg, prompt)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

func (e *Engine) call(ctx context.Context, cfg provider.Config, prompt string) Outcome {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := e.completer.Complete(ctx, cfg, prompt)
	out := Outcome{Provider: cfg.ID(), Err: err, Elapsed: time.Since(start)}
	if res != nil {
		out.Completions = res.Completions
		out.FinishReasons = res.FinishReasons
	}

	if err != nil {
		e.log.Debug().Str("provider", out.Provider).Dur("elapsed", out.Elapsed).Err(err).Msg("Provider call failed")
	} else {
		e.log.Debug().Str("provider", out.Provider).Dur("elapsed", out.Elapsed).Int("completions", len(out.Completions)).Msg("Provider call done")
	}
	return out
}
