package tracking

import "sync"

// Deduper remembers which search signatures already fired a behavior
// event. One Deduper lives per directory session, so re-renders,
// pagination, and repeated identical queries within a session never
// re-fire; a fresh session starts clean. Nothing is persisted.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// ShouldTrack reports whether sig has not been tracked yet and, when
// true, records it as tracked. Empty signatures are never tracked.
func (d *Deduper) ShouldTrack(sig string) bool {
	if sig == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[sig]; ok {
		return false
	}
	d.seen[sig] = struct{}{}
	return true
}
