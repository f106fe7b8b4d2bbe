// Package cache keeps the completions already produced for a cursor context
// so that incremental typing can be served without a new model request.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultCapacity is the maximum number of fingerprints kept
	DefaultCapacity = 500
	// DefaultTTL is how long an entry lives after its last write
	DefaultTTL = 24 * time.Hour
)

// SourceContext describes the context a completion was produced for
type SourceContext struct {
	Text    string   `json:"text"`
	Methods []string `json:"methods,omitempty"`
}

// Entry holds every completion produced for one fingerprint. Each completion
// starts with the text of the current line as it was when it was recorded.
type Entry struct {
	Fingerprint string        `json:"fingerprint"`
	Completions []string      `json:"completions"`
	Source      SourceContext `json:"source"`
	Created     time.Time     `json:"created"`
	Updated     time.Time     `json:"updated"`
}

// Options configures a Cache
type Options struct {
	Capacity int
	TTL      time.Duration
}

// Stats reports cache activity
type Stats struct {
	Entries   int           `json:"entries"`
	Capacity  int           `json:"capacity"`
	TTL       time.Duration `json:"ttl"`
	Hits      uint64        `json:"hits"`
	Misses    uint64        `json:"misses"`
	Evictions uint64        `json:"evictions"`
}

// Cache maps context fingerprints to completions, bounded by an LRU
// capacity and a per-entry time to live.
type Cache struct {
	mu      sync.Mutex
	lru     *expirable.LRU[string, *Entry]
	opts    Options
	hits    atomic.Uint64
	misses  atomic.Uint64
	evicted atomic.Uint64
	// purging suppresses eviction counting while Purge empties the LRU
	purging atomic.Bool
}

// New creates a cache. Zero values in opts fall back to the defaults.
func New(opts Options) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	c := &Cache{opts: opts}
	c.lru = expirable.NewLRU[string, *Entry](opts.Capacity, func(string, *Entry) {
		if !c.purging.Load() {
			c.evicted.Add(1)
		}
	}, opts.TTL)
	return c
}

// Fingerprint hashes the context around the current line. The current line
// is left out so the fingerprint stays stable while the user types on it.
// A NUL byte separates prefix from suffix so that moving text across the
// cursor line changes the fingerprint.
func Fingerprint(prefix, suffix string) string {
	h := sha256.New()
	h.Write([]byte(prefix))
	h.Write([]byte{0})
	h.Write([]byte(suffix))
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the first completion recorded for fingerprint that starts
// with linePrefix, with linePrefix removed. total is the number of
// completions recorded for the fingerprint, matched or not.
func (c *Cache) Lookup(fingerprint, linePrefix string) (remainder string, matched bool, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(fingerprint)
	if !ok {
		c.misses.Add(1)
		return "", false, 0
	}

	for _, completion := range entry.Completions {
		if strings.HasPrefix(completion, linePrefix) {
			c.hits.Add(1)
			return completion[len(linePrefix):], true, len(entry.Completions)
		}
	}
	c.misses.Add(1)
	return "", false, len(entry.Completions)
}

// Record appends linePrefix+completion for each completion to the entry of
// fingerprint, creating it when absent. Empty completions are skipped.
func (c *Cache) Record(fingerprint, linePrefix string, completions []string, source SourceContext) {
	fresh := make([]string, 0, len(completions))
	for _, completion := range completions {
		if completion != "" {
			fresh = append(fresh, linePrefix+completion)
		}
	}
	if len(fresh) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry, ok := c.lru.Get(fingerprint)
	if !ok {
		entry = &Entry{Fingerprint: fingerprint, Created: now}
	}
	entry.Completions = append(entry.Completions, fresh...)
	entry.Source = source
	entry.Updated = now
	c.lru.Add(fingerprint, entry)
}

// Get returns a copy of the entry of fingerprint
func (c *Cache) Get(fingerprint string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Peek(fingerprint)
	if !ok {
		return Entry{}, false
	}
	out := *entry
	out.Completions = append([]string(nil), entry.Completions...)
	return out, true
}

// Purge drops every entry. Purged entries are not counted as evictions.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purging.Store(true)
	defer c.purging.Store(false)
	c.lru.Purge()
}

// Len returns the number of live entries
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Stats returns the cache counters
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.lru.Len(),
		Capacity:  c.opts.Capacity,
		TTL:       c.opts.TTL,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicted.Load(),
	}
}
