// Package session owns one instance of every completion component and runs
// the trigger pipeline: context, index selection, cache check, admission
// check, dispatch, record.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/NikitaCOEUR/fimcache/internal/admission"
	"github.com/NikitaCOEUR/fimcache/internal/cache"
	"github.com/NikitaCOEUR/fimcache/internal/codectx"
	"github.com/NikitaCOEUR/fimcache/internal/completion"
	"github.com/NikitaCOEUR/fimcache/internal/derrors"
	"github.com/NikitaCOEUR/fimcache/internal/index"
	"github.com/NikitaCOEUR/fimcache/internal/logger"
	"github.com/NikitaCOEUR/fimcache/internal/prompt"
	"github.com/NikitaCOEUR/fimcache/internal/provider"
	"github.com/NikitaCOEUR/fimcache/internal/recency"
	"github.com/NikitaCOEUR/fimcache/internal/retrieval"
	"github.com/NikitaCOEUR/fimcache/internal/timing"
	"github.com/NikitaCOEUR/fimcache/internal/trace"
	"github.com/google/uuid"
)

// Defaults for Options fields left at zero
const (
	DefaultMaxChars      = 2048
	DefaultMaxCandidates = 3
)

// Status tells how a trigger ended
type Status string

const (
	// StatusCacheHit means the completion came from the reuse cache
	StatusCacheHit Status = "cache_hit"
	// StatusServed means the completion came from a provider
	StatusServed Status = "served"
	// StatusExhausted means the context already has enough cached
	// completions and none matches, so no request is made
	StatusExhausted Status = "exhausted"
	// StatusThrottled means the admission controller refused the request
	StatusThrottled Status = "throttled"
	// StatusEmpty means the providers answered without a usable completion
	StatusEmpty Status = "empty"
)

// Dispatcher sends a prompt to the completion providers
type Dispatcher interface {
	Dispatch(ctx context.Context, prompt string, multiModel bool) ([]completion.Outcome, error)
}

// Retriever fetches similar code for the prompt
type Retriever interface {
	Enabled() bool
	Query(ctx context.Context, leftContext string) ([]retrieval.Snippet, error)
}

// FileIndexer keeps the index current for opened files
type FileIndexer interface {
	Refresh(path string) error
	Update(path string, src []byte) error
}

// Options tunes the pipeline
type Options struct {
	ContextLines  int
	MaxChars      int
	MaxCandidates int
	MultiModel    bool
}

// Deps are the components a session owns. Nil fields get a default
// instance, except Engine which is required.
type Deps struct {
	Index     *index.Index
	Recency   *recency.Tracker
	Cache     *cache.Cache
	Admission *admission.Controller
	Engine    Dispatcher
	Prompt    *prompt.Builder
	Retrieval Retriever
	Indexer   FileIndexer
	Logger    *logger.Logger
}

// Request is one completion trigger from the editor
type Request struct {
	FilePath   string `json:"file"`
	Document   string `json:"document"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	MultiModel bool   `json:"multi_model,omitempty"`
}

// ProviderResult summarizes one provider call of a trigger
type ProviderResult struct {
	Provider    string `json:"provider"`
	Completions int    `json:"completions"`
	Error       string `json:"error,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// Response is the result of a trigger
type Response struct {
	TriggerID    string              `json:"trigger_id"`
	Status       Status              `json:"status"`
	Completion   string              `json:"completion"`
	Completions  []string            `json:"completions,omitempty"`
	Declarations []index.Declaration `json:"declarations,omitempty"`
	Providers    []ProviderResult    `json:"providers,omitempty"`
	// Source is the context a reused completion was produced for
	Source  *cache.SourceContext `json:"source,omitempty"`
	Timings []timing.Step        `json:"-"`
}

// Session runs completion triggers for one project
type Session struct {
	opts      Options
	index     *index.Index
	recency   *recency.Tracker
	cache     *cache.Cache
	admission *admission.Controller
	engine    Dispatcher
	prompt    *prompt.Builder
	retrieval Retriever
	indexer   FileIndexer
	log       *logger.Logger
}

// New creates a session
func New(opts Options, deps Deps) (*Session, error) {
	if deps.Engine == nil {
		return nil, errors.New("session requires a completion engine")
	}
	if opts.ContextLines <= 0 {
		opts.ContextLines = codectx.DefaultWindow
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}

	s := &Session{
		opts:      opts,
		index:     deps.Index,
		recency:   deps.Recency,
		cache:     deps.Cache,
		admission: deps.Admission,
		engine:    deps.Engine,
		prompt:    deps.Prompt,
		retrieval: deps.Retrieval,
		indexer:   deps.Indexer,
		log:       deps.Logger,
	}
	if s.index == nil {
		s.index = index.New()
	}
	if s.recency == nil {
		s.recency = recency.New(0)
	}
	if s.cache == nil {
		s.cache = cache.New(cache.Options{})
	}
	if s.admission == nil {
		s.admission = admission.New(admission.Options{})
	}
	if s.prompt == nil {
		s.prompt = prompt.New()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	return s, nil
}

// Index returns the declaration index of the session
func (s *Session) Index() *index.Index { return s.index }

// Complete runs one trigger
func (s *Session) Complete(ctx context.Context, req Request) (*Response, error) {
	ctx, endTask := trace.Task(ctx, "trigger")
	defer endTask()

	timer := timing.NewTimer()
	resp := &Response{TriggerID: uuid.NewString()}
	log := s.log.With("trigger", resp.TriggerID)
	defer func() {
		resp.Timings = timer.Steps()
		if trace.IsEnabled() {
			trace.Log(ctx, "status", string(resp.Status))
		}
		log.Debug().Str("status", string(resp.Status)).Str("timing", timer.Summary()).Msg("Trigger done")
	}()

	endRegion := trace.Region(ctx, "context")
	cc := codectx.Extract(req.Document, req.Line, req.Column, s.opts.ContextLines)
	endRegion()
	timer.Mark("context")

	endRegion = trace.Region(ctx, "select")
	resp.Declarations = s.index.SelectRelevant(req.FilePath, cc.PrefixWithMid, s.recency.Snapshot(), s.opts.MaxChars)
	endRegion()
	timer.Mark("select")
	log.Debug().Str("file", req.FilePath).Int("declarations", len(resp.Declarations)).Msg("Selected declarations")

	endRegion = trace.Region(ctx, "cache")
	fingerprint := cache.Fingerprint(cc.Prefix, cc.Suffix)
	remainder, matched, total := s.cache.Lookup(fingerprint, cc.PrefixOnCursor)
	endRegion()
	timer.Mark("cache")

	if matched {
		resp.Status = StatusCacheHit
		resp.Completion = remainder
		if entry, ok := s.cache.Get(fingerprint); ok {
			resp.Source = &entry.Source
		}
		s.shown(resp.Completion)
		return resp, nil
	}
	if total > s.opts.MaxCandidates {
		log.Debug().Int("candidates", total).Msg("Context exhausted")
		resp.Status = StatusExhausted
		return resp, nil
	}

	if !s.admission.TryAcquire() {
		log.Debug().Str("state", s.admission.State().String()).Msg("Request throttled")
		resp.Status = StatusThrottled
		return resp, nil
	}
	defer s.admission.Release()
	timer.Mark("admission")

	snippets := s.retrieve(ctx, cc.PrefixWithMid, log)
	timer.Mark("retrieval")

	text, err := s.prompt.Build(prompt.Input{
		CodePrefix:    cc.PrefixWithMid,
		Declarations:  resp.Declarations,
		Snippets:      snippets,
		FunctionNames: index.Names(resp.Declarations),
	})
	if err != nil {
		return resp, fmt.Errorf("build prompt: %w", err)
	}
	timer.Mark("prompt")

	endRegion = trace.Region(ctx, "dispatch")
	outcomes, err := s.engine.Dispatch(ctx, text, s.opts.MultiModel || req.MultiModel)
	endRegion()
	timer.Mark("dispatch")
	if err != nil {
		log.Warn().Err(err).Msg("Dispatch skipped")
		return resp, err
	}
	resp.Providers = summarize(outcomes)

	completions := provider.ReformatAll(completion.Completions(outcomes))
	if len(completions) == 0 {
		resp.Status = StatusEmpty
		return resp, nil
	}

	s.cache.Record(fingerprint, cc.PrefixOnCursor, completions, cache.SourceContext{
		Text:    cc.Render(),
		Methods: index.Names(resp.Declarations),
	})
	timer.Mark("record")

	resp.Status = StatusServed
	resp.Completion = completions[0]
	resp.Completions = completions
	s.shown(resp.Completion)
	return resp, nil
}

func (s *Session) retrieve(ctx context.Context, leftContext string, log *logger.Logger) []retrieval.Snippet {
	if s.retrieval == nil || !s.retrieval.Enabled() {
		return nil
	}
	defer trace.Region(ctx, "retrieval")()

	snippets, err := s.retrieval.Query(ctx, leftContext)
	if err != nil {
		log.Warn().Err(err).Msg("Retrieval failed, continuing without snippets")
		return nil
	}
	return snippets
}

func (s *Session) shown(completion string) {
	if completion != "" {
		s.admission.RecordShown()
	}
}

func summarize(outcomes []completion.Outcome) []ProviderResult {
	out := make([]ProviderResult, 0, len(outcomes))
	for _, o := range outcomes {
		r := ProviderResult{
			Provider:    o.Provider,
			Completions: len(o.Completions),
			ElapsedMs:   o.Elapsed.Milliseconds(),
		}
		if o.Err != nil {
			r.Error = o.Err.Error()
			r.ErrorCode = derrors.CodeOf(o.Err)
		}
		out = append(out, r)
	}
	return out
}
