// Package admission decides whether a completion request may be issued.
//
// It combines a debounce gate with a circuit breaker driven by how often the
// user accepts the completions that were shown. All scheduling is expressed
// as deadlines compared against an injected Clock at decision points.
package admission

import (
	"sync"
	"time"
)

// Defaults used when Options leaves a field at zero
const (
	DefaultDebounce     = 3000 * time.Millisecond
	DefaultBaseCooldown = 60 * time.Second
	DefaultMinSamples   = 10
	DefaultRejectRatio  = 0.3
	DefaultRelaxRatio   = 0.5
	DefaultMaxFactor    = 5
)

// BreakerOff as Options.RejectRatio keeps the breaker closed whatever the
// acceptance ratio
const BreakerOff = -1.0

// State is the externally visible controller state
type State int

const (
	// Idle means no request may fire right now: one is in flight or the
	// debounce interval has not elapsed yet.
	Idle State = iota
	// Armed means the next TryAcquire would succeed
	Armed
	// Cooling means the breaker is open
	Cooling
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Cooling:
		return "cooling"
	default:
		return "idle"
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }

// Options configures a Controller
type Options struct {
	Debounce     time.Duration
	BaseCooldown time.Duration
	MinSamples   int
	RejectRatio  float64
	RelaxRatio   float64
	MaxFactor    int
	Clock        Clock
}

func (o Options) withDefaults() Options {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.BaseCooldown <= 0 {
		o.BaseCooldown = DefaultBaseCooldown
	}
	if o.MinSamples <= 0 {
		o.MinSamples = DefaultMinSamples
	}
	// negative values, BreakerOff included, are kept
	if o.RejectRatio == 0 {
		o.RejectRatio = DefaultRejectRatio
	}
	if o.RelaxRatio <= 0 {
		o.RelaxRatio = DefaultRelaxRatio
	}
	if o.MaxFactor <= 0 {
		o.MaxFactor = DefaultMaxFactor
	}
	if o.Clock == nil {
		o.Clock = systemClock{}
	}
	return o
}

// Snapshot is a point-in-time copy of the controller state
type Snapshot struct {
	State        State     `json:"state"`
	Ready        bool      `json:"ready"`
	Shown        int       `json:"shown"`
	Accepted     int       `json:"accepted"`
	Factor       int       `json:"factor"`
	LastAcquire  time.Time `json:"last_acquire"`
	CoolingUntil time.Time `json:"cooling_until"`
}

// Controller gates completion requests
type Controller struct {
	mu   sync.Mutex
	opts Options

	ready        bool
	lastAcquire  time.Time
	cooling      bool
	coolingUntil time.Time
	shown        int
	accepted     int
	factor       int
}

// New creates a controller ready to fire
func New(opts Options) *Controller {
	return &Controller{
		opts:   opts.withDefaults(),
		ready:  true,
		factor: 1,
	}
}

// TryAcquire reports whether a request may be issued now. On success the
// ready flag is consumed until Release is called.
func (c *Controller) TryAcquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock.Now()
	c.expireLocked(now)

	if c.cooling {
		return false
	}
	if !c.lastAcquire.IsZero() && now.Sub(c.lastAcquire) < c.opts.Debounce {
		return false
	}
	if !c.ready {
		return false
	}

	c.ready = false
	c.lastAcquire = now
	return true
}

// Release re-arms the ready flag once a request cycle is over
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = true
}

// RecordShown counts a completion that was displayed to the user
func (c *Controller) RecordShown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.expireLocked(c.opts.Clock.Now())
	c.shown++
}

// RecordAccepted counts an accepted completion and re-evaluates the breaker
func (c *Controller) RecordAccepted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock.Now()
	c.expireLocked(now)
	c.accepted++

	// the open breaker is not re-evaluated until its deadline passes
	if c.cooling || c.shown < c.opts.MinSamples {
		return
	}

	ratio := float64(c.accepted) / float64(c.shown)
	switch {
	case ratio < c.opts.RejectRatio:
		c.cooling = true
		c.coolingUntil = now.Add(c.opts.BaseCooldown * time.Duration(c.factor))
		if c.factor < c.opts.MaxFactor {
			c.factor++
		}
	case ratio >= c.opts.RelaxRatio:
		if c.factor > 1 {
			c.factor--
		}
	}
}

// expireLocked closes the breaker and resets the counters once the cooling
// deadline has passed.
func (c *Controller) expireLocked(now time.Time) {
	if c.cooling && !now.Before(c.coolingUntil) {
		c.cooling = false
		c.coolingUntil = time.Time{}
		c.shown = 0
		c.accepted = 0
	}
}

func (c *Controller) stateLocked(now time.Time) State {
	switch {
	case c.cooling:
		return Cooling
	case c.ready && (c.lastAcquire.IsZero() || now.Sub(c.lastAcquire) >= c.opts.Debounce):
		return Armed
	default:
		return Idle
	}
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock.Now()
	c.expireLocked(now)
	return c.stateLocked(now)
}

// Snapshot returns a copy of the controller state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.Clock.Now()
	c.expireLocked(now)
	return Snapshot{
		State:        c.stateLocked(now),
		Ready:        c.ready,
		Shown:        c.shown,
		Accepted:     c.accepted,
		Factor:       c.factor,
		LastAcquire:  c.lastAcquire,
		CoolingUntil: c.coolingUntil,
	}
}

// Debounce returns the configured debounce interval
func (c *Controller) Debounce() time.Duration {
	return c.opts.Debounce
}
