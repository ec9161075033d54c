package recording

import "sync"

// DefaultMaxRecordings caps the in-memory store when no limit is configured.
const DefaultMaxRecordings = 1000

// MemoryStore is a capped, append-only recording store. When the cap is
// reached the oldest recordings are evicted first.
type MemoryStore struct {
	mu         sync.RWMutex
	recordings []*Recording
	max        int
}

// NewMemoryStore creates a store holding at most max recordings.
// max <= 0 uses DefaultMaxRecordings.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = DefaultMaxRecordings
	}
	return &MemoryStore{max: max}
}

// Add appends a recording, evicting the oldest past the cap.
func (s *MemoryStore) Add(rec *Recording) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recordings = append(s.recordings, rec)
	if len(s.recordings) > s.max {
		s.recordings = s.recordings[len(s.recordings)-s.max:]
	}
}

// List returns recordings newest first.
func (s *MemoryStore) List() []*Recording {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Recording, len(s.recordings))
	for i, rec := range s.recordings {
		out[len(out)-1-i] = rec
	}
	return out
}

// Get returns the recording with the given id.
func (s *MemoryStore) Get(id string) (*Recording, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.recordings {
		if rec.ID == id {
			return rec, true
		}
	}
	return nil, false
}

// Len returns the number of stored recordings.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recordings)
}

// Clear removes all recordings.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordings = nil
}
