// Package recency tracks the files the user opened most recently.
package recency

import "sync"

// DefaultCapacity is the number of files remembered when none is configured
const DefaultCapacity = 10

// Tracker is a bounded most-recently-used list of file paths
type Tracker struct {
	mu       sync.Mutex
	capacity int
	files    []string
}

// New creates a tracker remembering up to capacity files
func New(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{
		capacity: capacity,
		files:    make([]string, 0, capacity+1),
	}
}

// Touch moves filePath to the front, dropping the oldest entry when full
func (t *Tracker) Touch(filePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.removeLocked(filePath)
	t.files = append(t.files, "")
	copy(t.files[1:], t.files)
	t.files[0] = filePath
	if len(t.files) > t.capacity {
		t.files = t.files[:t.capacity]
	}
}

// Remove forgets filePath
func (t *Tracker) Remove(filePath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(filePath)
}

func (t *Tracker) removeLocked(filePath string) {
	for i, f := range t.files {
		if f == filePath {
			t.files = append(t.files[:i], t.files[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the list, most recent first
func (t *Tracker) Snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.files))
	copy(out, t.files)
	return out
}

// Clear forgets every file
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = t.files[:0]
}

// Len returns the number of remembered files
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}
