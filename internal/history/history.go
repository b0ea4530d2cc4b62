// Package history keeps a bounded in-memory record of recent
// resolutions for the current process lifetime. Nothing is persisted;
// restarting the service starts with an empty history.
package history

import (
	"sync"
	"time"
)

// Entry summarizes one completed resolution.
type Entry struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Summary     string    `json:"summary"`
	ResultCount int       `json:"result_count"`
	At          time.Time `json:"at"`
}

// Store is a fixed-capacity ring of recent entries, newest first.
// Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// NewStore creates a history store retaining up to max entries.
// max values below 1 disable retention.
func NewStore(max int) *Store {
	return &Store{max: max}
}

// Add records an entry, evicting the oldest when at capacity.
func (s *Store) Add(e Entry) {
	if s.max < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
}

// Recent returns up to limit entries, newest first. limit <= 0 returns
// all retained entries. The returned slice is a copy.
func (s *Store) Recent(limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
