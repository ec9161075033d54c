// Package store defines persistence interfaces for server configurations.
//
// Configs are treated as opaque blobs keyed by server id. The engine only
// needs load/save/list/delete; anything richer (sync, import, export) lives
// outside the serving core.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mockhive/mockhive/pkg/config"
)

// ErrNotFound is returned when no config exists for a server id.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("no config for server %q", e.ID)
}

// ConfigStore persists server configurations.
type ConfigStore interface {
	// Load returns the config for a server id.
	Load(ctx context.Context, id string) (*config.ServerConfig, error)

	// Save writes a config, replacing any previous version.
	Save(ctx context.Context, cfg *config.ServerConfig) error

	// Delete removes a config. Deleting a missing config is not an error.
	Delete(ctx context.Context, id string) error

	// List returns all stored server ids, sorted.
	List(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-process ConfigStore for tests and embedding.
type MemoryStore struct {
	mu      sync.RWMutex
	configs map[string]*config.ServerConfig
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{configs: make(map[string]*config.ServerConfig)}
}

// Load implements ConfigStore.
func (s *MemoryStore) Load(_ context.Context, id string) (*config.ServerConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	copied := *cfg
	return &copied, nil
}

// Save implements ConfigStore.
func (s *MemoryStore) Save(_ context.Context, cfg *config.ServerConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("config id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *cfg
	s.configs[cfg.ID] = &copied
	return nil
}

// Delete implements ConfigStore.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.configs, id)
	return nil
}

// List implements ConfigStore.
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.configs))
	for id := range s.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
