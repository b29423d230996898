// Package history implements the bounded most-recent-first store of
// clipboard snapshots the engine cycles through.
package history

import "go.klb.dev/reclip/internal/snapshot"

// Store holds up to max snapshots, front = most recently confirmed distinct
// content. Entries are never reordered; they enter and leave at the front,
// except for eviction from the back when the store is over capacity.
//
// Store is not safe for concurrent use. The engine's event loop is its sole
// owner.
type Store struct {
	entries []snapshot.Snapshot
	max     int
}

// New returns an empty store with the given capacity. max must be at least 1.
func New(max int) *Store {
	if max < 1 {
		max = 1
	}
	return &Store{max: max}
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int { return len(s.entries) }

// Cap returns the configured capacity.
func (s *Store) Cap() int { return s.max }

// Front returns the most recent snapshot without removing it.
func (s *Store) Front() (snapshot.Snapshot, bool) {
	if len(s.entries) == 0 {
		return nil, false
	}
	return s.entries[0], true
}

// PushFront inserts snap as the most recent entry, evicting from the back
// to stay within capacity.
func (s *Store) PushFront(snap snapshot.Snapshot) {
	s.entries = append([]snapshot.Snapshot{snap}, s.entries...)
	if len(s.entries) > s.max {
		s.entries = s.entries[:s.max]
	}
}

// ReplaceFront overwrites the most recent entry in place. No-op on an empty
// store; callers only invoke this after observing a non-empty Front.
func (s *Store) ReplaceFront(snap snapshot.Snapshot) {
	if len(s.entries) == 0 {
		return
	}
	s.entries[0] = snap
}

// PopFront removes and returns the most recent entry.
func (s *Store) PopFront() (snapshot.Snapshot, bool) {
	if len(s.entries) == 0 {
		return nil, false
	}
	front := s.entries[0]
	s.entries = s.entries[1:]
	return front, true
}

// Entries returns a copy of the stored snapshots, front first. The snapshots
// themselves are shared; callers must not mutate them.
func (s *Store) Entries() []snapshot.Snapshot {
	out := make([]snapshot.Snapshot, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear removes every entry.
func (s *Store) Clear() { s.entries = nil }
