package session

import (
	"github.com/NikitaCOEUR/fimcache/internal/admission"
	"github.com/NikitaCOEUR/fimcache/internal/cache"
	"github.com/NikitaCOEUR/fimcache/internal/index"
)

// OpenFile marks path as the most recent file and re-indexes it. When
// content is nil the file is read from disk.
func (s *Session) OpenFile(path string, content []byte) error {
	s.recency.Touch(path)
	if s.indexer == nil {
		return nil
	}
	if content != nil {
		return s.indexer.Update(path, content)
	}
	return s.indexer.Refresh(path)
}

// CloseFile forgets path in the recency list. Its declarations stay
// indexed.
func (s *Session) CloseFile(path string) {
	s.recency.Remove(path)
}

// Accept records that the user accepted the last shown completion
func (s *Session) Accept() {
	s.admission.RecordAccepted()
}

// Shown records a completion displayed by the host outside Complete
func (s *Session) Shown() {
	s.admission.RecordShown()
}

// Stats is a point-in-time view of every component
type Stats struct {
	Index     index.Stats        `json:"index"`
	Recent    []string           `json:"recent"`
	Cache     *cache.Info        `json:"cache"`
	Admission admission.Snapshot `json:"admission"`
}

// Stats returns the state of every component
func (s *Session) Stats() Stats {
	return Stats{
		Index:     s.index.Stats(),
		Recent:    s.recency.Snapshot(),
		Cache:     cache.GetCacheInfo(s.cache),
		Admission: s.admission.Snapshot(),
	}
}

// Reset drops cached completions and the recency list
func (s *Session) Reset() {
	s.cache.Purge()
	s.recency.Clear()
}
