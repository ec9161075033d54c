package stateful

import (
	"fmt"
	"sync"
)

// Store holds every collection belonging to one server instance,
// keyed by resource name.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	names       []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]*Collection),
	}
}

// Register adds a collection. Names must be unique within a store.
func (s *Store) Register(c *Collection) error {
	if c.Name() == "" {
		return fmt.Errorf("collection name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[c.Name()]; exists {
		return fmt.Errorf("collection %q already registered", c.Name())
	}
	s.collections[c.Name()] = c
	s.names = append(s.names, c.Name())
	return nil
}

// Collection returns the named collection.
func (s *Store) Collection(name string) (*Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	return c, ok
}

// Names returns collection names in registration order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Counts returns the live record count per collection.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, len(s.collections))
	for name, c := range s.collections {
		counts[name] = c.Count()
	}
	return counts
}

// ResetAll restores every collection to its seed snapshot.
func (s *Store) ResetAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.collections {
		c.Reset()
	}
}
