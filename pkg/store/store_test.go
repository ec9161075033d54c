package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockhive/mockhive/pkg/config"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cfg := config.DefaultServerConfig()
	cfg.ID = "alpha"
	cfg.Port = 4300
	require.NoError(t, s.Save(ctx, cfg))

	loaded, err := s.Load(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 4300, loaded.Port)

	// The stored copy is independent of the caller's struct.
	cfg.Port = 9999
	again, err := s.Load(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 4300, again.Port)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Load(context.Background(), "ghost")
	var nf *ErrNotFound
	assert.True(t, errors.As(err, &nf))
}

func TestMemoryStoreDeleteIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	cfg := config.DefaultServerConfig()
	cfg.ID = "alpha"
	require.NoError(t, s.Save(ctx, cfg))
	require.NoError(t, s.Delete(ctx, "alpha"))
	require.NoError(t, s.Delete(ctx, "alpha"))

	_, err := s.Load(ctx, "alpha")
	assert.Error(t, err)
}

func TestMemoryStoreListSorted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha", "mid"} {
		cfg := config.DefaultServerConfig()
		cfg.ID = id
		require.NoError(t, s.Save(ctx, cfg))
	}

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, ids)
}

func TestMemoryStoreRejectsEmptyID(t *testing.T) {
	s := NewMemoryStore()
	err := s.Save(context.Background(), config.DefaultServerConfig())
	assert.Error(t, err)
}
