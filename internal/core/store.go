package core

import (
	"sort"
	"sync"

	"github.com/draftmind/manuscript/pkg/manuscript"
)

// SnapshotStore holds the latest accepted Intelligence per chapter. Only
// the scheduler's accept path writes; everyone else reads clones, so a
// reader can never observe a snapshot mid-replacement and a caller can
// never mutate what the store holds.
type SnapshotStore struct {
	mu     sync.RWMutex
	latest map[string]*manuscript.Intelligence
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		latest: make(map[string]*manuscript.Intelligence),
	}
}

// Accept replaces the chapter's latest snapshot. The store takes
// ownership of the value; callers must not mutate it afterwards.
func (s *SnapshotStore) Accept(snap *manuscript.Intelligence) {
	if snap == nil || snap.ChapterID == "" {
		return
	}
	s.mu.Lock()
	s.latest[snap.ChapterID] = snap
	s.mu.Unlock()
}

// Latest returns a deep copy of the chapter's latest accepted snapshot.
func (s *SnapshotStore) Latest(chapterID string) (*manuscript.Intelligence, bool) {
	s.mu.RLock()
	snap, ok := s.latest[chapterID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return snap.Clone(), true
}

// Chapters returns the known chapter ids in sorted order.
func (s *SnapshotStore) Chapters() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.latest))
	for id := range s.latest {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// All returns deep copies of every chapter's latest snapshot, keyed by
// chapter id. The cross-chapter merge folds over these copies so it never
// touches a graph a background pass might be replacing.
func (s *SnapshotStore) All() map[string]*manuscript.Intelligence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*manuscript.Intelligence, len(s.latest))
	for id, snap := range s.latest {
		out[id] = snap.Clone()
	}
	return out
}

// Drop removes a chapter from the store.
func (s *SnapshotStore) Drop(chapterID string) {
	s.mu.Lock()
	delete(s.latest, chapterID)
	s.mu.Unlock()
}

// Len returns the number of chapters with an accepted snapshot.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.latest)
}
