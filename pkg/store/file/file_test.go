package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func sampleConfig(id string) *config.ServerConfig {
	cfg := config.DefaultServerConfig()
	cfg.ID = id
	cfg.Port = 4400
	cfg.Routes = []config.RouteConfig{
		{Method: "GET", Path: "/ping", Response: map[string]any{"pong": true}},
	}
	return cfg
}

func TestSaveAndLoad(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleConfig("shop")))

	loaded, err := s.Load(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, "shop", loaded.ID)
	assert.Equal(t, 4400, loaded.Port)
	require.Len(t, loaded.Routes, 1)
	assert.Equal(t, "/ping", loaded.Routes[0].Path)

	// One file per server.
	_, err = os.Stat(filepath.Join(s.Dir(), "shop.json"))
	assert.NoError(t, err)
}

func TestSaveReplaces(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleConfig("shop")))

	updated := sampleConfig("shop")
	updated.Port = 5000
	require.NoError(t, s.Save(ctx, updated))

	loaded, err := s.Load(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, 5000, loaded.Port)
}

func TestLoadMissing(t *testing.T) {
	s := newStore(t)

	_, err := s.Load(context.Background(), "ghost")
	var nf *store.ErrNotFound
	assert.True(t, errors.As(err, &nf), "got %v", err)
}

func TestDeleteIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleConfig("shop")))
	require.NoError(t, s.Delete(ctx, "shop"))
	require.NoError(t, s.Delete(ctx, "shop"))
}

func TestListIgnoresOtherFiles(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleConfig("beta")))
	require.NoError(t, s.Save(ctx, sampleConfig("alpha")))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)
}

func TestRejectsPathTraversal(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "../escape")
	assert.Error(t, err)

	bad := sampleConfig("a/b")
	assert.Error(t, s.Save(ctx, bad))
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	s := newStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "bad.json"), []byte(`{"port": 4400}`), 0o644))
	_, err := s.Load(context.Background(), "bad")
	assert.Error(t, err)
}
