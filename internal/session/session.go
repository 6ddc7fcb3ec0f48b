// Package session holds the per-directory-session state the orchestrator
// needs: which searches already fired tracking, the last successfully
// loaded result set, and the sequencing that makes the most recent
// request authoritative. A session corresponds to one mounted directory
// view in the client (X-Session-ID header) and lives only in memory.
package session

import (
	"sync"
	"time"

	"github.com/shoplocal/directory-service/internal/domain"
	"github.com/shoplocal/directory-service/internal/tracking"
)

// State is one session's mutable state.
type State struct {
	mu       sync.Mutex
	seq      uint64
	lastSeen time.Time
	last     *domain.BrowseResult
	tracker  *tracking.Deduper
}

// Begin registers a newly issued search and returns its sequence
// number. Any in-flight search with a lower number is superseded.
func (s *State) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.lastSeen = time.Now()
	return s.seq
}

// Commit installs res as the session's current result set if seq still
// belongs to the most recent search. It reports whether the commit took
// effect; a false return means the response was stale and must be
// discarded without touching state or firing tracking.
func (s *State) Commit(seq uint64, res *domain.BrowseResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return false
	}
	s.last = res
	return true
}

// Current reports whether seq is still the most recent search.
func (s *State) Current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq
}

// LastResult returns the most recently committed result set, or nil if
// nothing has loaded yet. Used to keep previous data on screen when a
// refresh fails.
func (s *State) LastResult() *domain.BrowseResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Tracker returns the session's tracking deduper.
func (s *State) Tracker() *tracking.Deduper {
	return s.tracker
}

// Registry maps session IDs to their state, creating on first use and
// sweeping sessions idle longer than maxIdle.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*State
	maxIdle  time.Duration
}

func NewRegistry(maxIdle time.Duration) *Registry {
	if maxIdle <= 0 {
		maxIdle = time.Hour
	}
	return &Registry{
		sessions: make(map[string]*State),
		maxIdle:  maxIdle,
	}
}

// Get returns the state for id, creating it if needed.
func (r *Registry) Get(id string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.sessions[id]
	if !ok {
		st = &State{lastSeen: time.Now(), tracker: tracking.NewDeduper()}
		r.sessions[id] = st
	}
	return st
}

// Sweep drops sessions idle longer than maxIdle and returns how many
// were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.maxIdle)
	removed := 0
	for id, st := range r.sessions {
		st.mu.Lock()
		idle := st.lastSeen.Before(cutoff)
		st.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on a ticker until stop is closed.
func (r *Registry) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				r.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
