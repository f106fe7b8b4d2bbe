// Package timing measures the steps of a completion trigger.
package timing

import (
	"fmt"
	"strings"
	"time"
)

// Step is one recorded checkpoint
type Step struct {
	Label string
	// At is the time since the timer started
	At time.Duration
	// Took is the time since the previous checkpoint
	Took time.Duration
}

// Timer records named checkpoints in order
type Timer struct {
	start time.Time
	steps []Step
	now   func() time.Time
}

// NewTimer creates a timer started now
func NewTimer() *Timer {
	return newTimerWithClock(time.Now)
}

func newTimerWithClock(now func() time.Time) *Timer {
	return &Timer{start: now(), now: now}
}

// Mark records a checkpoint and returns the time spent since the previous one
func (t *Timer) Mark(label string) time.Duration {
	at := t.now().Sub(t.start)
	var prev time.Duration
	if n := len(t.steps); n > 0 {
		prev = t.steps[n-1].At
	}
	step := Step{Label: label, At: at, Took: at - prev}
	t.steps = append(t.steps, step)
	return step.Took
}

// Elapsed returns total elapsed time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// Get returns the step duration of the last checkpoint named label
func (t *Timer) Get(label string) (time.Duration, bool) {
	for i := len(t.steps) - 1; i >= 0; i-- {
		if t.steps[i].Label == label {
			return t.steps[i].Took, true
		}
	}
	return 0, false
}

// Steps returns the checkpoints in recording order
func (t *Timer) Steps() []Step {
	return append([]Step(nil), t.steps...)
}

// Summary formats the total and every step duration
func (t *Timer) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total: %s", ms(t.Elapsed()))
	if len(t.steps) == 0 {
		return sb.String()
	}

	sb.WriteString(" (")
	for i, s := range t.steps {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", s.Label, ms(s.Took))
	}
	sb.WriteString(")")
	return sb.String()
}

// Reset restarts the timer and drops every checkpoint
func (t *Timer) Reset() {
	t.start = t.now()
	t.steps = nil
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000.0)
}
