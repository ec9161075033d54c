// Package file implements a ConfigStore backed by one JSON file per server.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/store"
)

// Store keeps each server config as <dir>/<id>.json. Writes replace the
// whole file; partial-write safety comes from writing a temp file first.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates the directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load implements store.ConfigStore.
func (s *Store) Load(_ context.Context, id string) (*config.ServerConfig, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &store.ErrNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", id, err)
	}

	cfg, err := config.Parse(data, config.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", id, err)
	}
	return cfg, nil
}

// Save implements store.ConfigStore.
func (s *Store) Save(_ context.Context, cfg *config.ServerConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("config id is required")
	}
	path, err := s.pathFor(cfg.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config %s: %w", cfg.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", cfg.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write config %s: %w", cfg.ID, err)
	}
	return nil
}

// Delete implements store.ConfigStore.
func (s *Store) Delete(_ context.Context, id string) error {
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete config %s: %w", id, err)
	}
	return nil
}

// List implements store.ConfigStore.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// pathFor rejects ids that would escape the config directory.
func (s *Store) pathFor(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid server id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}
