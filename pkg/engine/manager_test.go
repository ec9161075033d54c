package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/requestlog"
	"github.com/mockhive/mockhive/pkg/store"
)

func testManager(t *testing.T) (*Manager, store.ConfigStore) {
	t.Helper()
	configs := store.NewMemoryStore()
	m := NewManager(configs)
	t.Cleanup(func() { m.StopAll(context.Background()) })
	return m, configs
}

func createServer(t *testing.T, m *Manager, id string, port int) {
	t.Helper()
	require.NoError(t, m.Create(context.Background(), &config.ServerConfig{
		ID:   id,
		Port: port,
		Routes: []config.RouteConfig{
			{Method: "GET", Path: "/ping", Response: "pong"},
		},
	}))
}

func TestManagerCreateValidates(t *testing.T) {
	m, _ := testManager(t)

	err := m.Create(context.Background(), &config.ServerConfig{})
	assert.Error(t, err, "missing id must be rejected")

	createServer(t, m, "ok", 0)
}

func TestManagerStartStop(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	createServer(t, m, "srv", 0)

	inst, err := m.Start(ctx, "srv")
	require.NoError(t, err)
	assert.True(t, inst.Running())

	// Starting again returns the same running instance.
	again, err := m.Start(ctx, "srv")
	require.NoError(t, err)
	assert.Same(t, inst, again)

	require.NoError(t, m.Stop(ctx, "srv"))
	assert.False(t, inst.Running())

	// Stop is idempotent, and unknown ids are fine.
	require.NoError(t, m.Stop(ctx, "srv"))
	require.NoError(t, m.Stop(ctx, "ghost"))
}

func TestManagerStartUnknownServer(t *testing.T) {
	m, _ := testManager(t)

	_, err := m.Start(context.Background(), "missing")
	require.Error(t, err)

	var notFound *store.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestManagerPortExclusivity(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	createServer(t, m, "first", 0)

	first, err := m.Start(ctx, "first")
	require.NoError(t, err)

	createServer(t, m, "second", first.Port())
	_, err = m.Start(ctx, "second")
	require.Error(t, err)

	var portErr *PortInUseError
	require.ErrorAs(t, err, &portErr)
	assert.Equal(t, first.Port(), portErr.Port)

	// Once the first stops, the second can claim the port.
	require.NoError(t, m.Stop(ctx, "first"))
	_, err = m.Start(ctx, "second")
	require.NoError(t, err)
}

func TestManagerRestartReloadsConfig(t *testing.T) {
	m, configs := testManager(t)
	ctx := context.Background()
	createServer(t, m, "srv", 0)

	inst, err := m.Start(ctx, "srv")
	require.NoError(t, err)
	require.NoError(t, m.Stop(ctx, "srv"))

	// Change the stored config while stopped.
	cfg, err := configs.Load(ctx, "srv")
	require.NoError(t, err)
	cfg.Routes = append(cfg.Routes, config.RouteConfig{Method: "GET", Path: "/new", Response: "fresh"})
	require.NoError(t, configs.Save(ctx, cfg))

	restarted, err := m.Start(ctx, "srv")
	require.NoError(t, err)
	assert.Same(t, inst, restarted, "stopped instances are reloaded, not replaced")
	assert.Len(t, restarted.Config().Routes, 2)
}

func TestManagerDelete(t *testing.T) {
	m, configs := testManager(t)
	ctx := context.Background()
	createServer(t, m, "srv", 0)

	inst, err := m.Start(ctx, "srv")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "srv"))
	assert.False(t, inst.Running())

	_, ok := m.Get("srv")
	assert.False(t, ok)
	_, err = configs.Load(ctx, "srv")
	assert.Error(t, err)

	// Deleting again, or deleting an unknown id, is a no-op.
	require.NoError(t, m.Delete(ctx, "srv"))
	require.NoError(t, m.Delete(ctx, "never-existed"))
}

func TestManagerListWithoutRunning(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, &config.ServerConfig{
		ID:   "static",
		Port: 4001,
		Routes: []config.RouteConfig{
			{Method: "GET", Path: "/a", Response: "x"},
		},
		Resources: map[string]config.ResourceConfig{
			"users": {BasePath: "/u", Seed: []map[string]any{{"id": "u1"}}, Count: 0},
			"posts": {BasePath: "/p", Count: 10, Template: map[string]any{"title": "{{faker.lorem}}"}},
		},
	}))

	summaries, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "static", s.ID)
	assert.Equal(t, 4001, s.Port)
	assert.Equal(t, StateStopped, s.State)
	assert.False(t, s.Running)
	assert.Equal(t, 1, s.RouteCount)
	assert.Equal(t, 2, s.ResourceCount)
	assert.Equal(t, 1, s.ItemCounts["users"])
	assert.Equal(t, 10, s.ItemCounts["posts"])
}

func TestManagerListLiveSummary(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	createServer(t, m, "live", 0)
	createServer(t, m, "idle", 4002)

	inst, err := m.Start(ctx, "live")
	require.NoError(t, err)

	summaries, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := map[string]ServerSummary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	assert.True(t, byID["live"].Running)
	assert.Equal(t, inst.Port(), byID["live"].Port)
	assert.False(t, byID["idle"].Running)
	assert.Equal(t, StateStopped, byID["idle"].State)
}

func TestManagerAggregatedLog(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	createServer(t, m, "a", 0)
	createServer(t, m, "b", 0)

	instA, err := m.Start(ctx, "a")
	require.NoError(t, err)
	instB, err := m.Start(ctx, "b")
	require.NoError(t, err)

	sub, unsubscribe := m.Subscribe()
	defer unsubscribe()

	for _, inst := range []*Instance{instA, instB} {
		status, _ := httpGet(t, fmt.Sprintf("http://127.0.0.1:%d/ping", inst.Port()))
		require.Equal(t, 200, status)
	}

	seen := map[string]bool{}
	deadline := time.After(3 * time.Second)
	for len(seen) < 2 {
		select {
		case entry := <-sub:
			seen[entry.ServerID] = true
		case <-deadline:
			t.Fatalf("aggregate stream delivered only %v", seen)
		}
	}
	assert.True(t, seen["a"])
	assert.True(t, seen["b"])

	// The aggregate history is queryable too.
	waitFor(t, func() bool {
		return len(m.Entries(requestlog.Filter{})) >= 2
	})
}

func TestManagerReloadRunningInstance(t *testing.T) {
	m, configs := testManager(t)
	ctx := context.Background()
	createServer(t, m, "srv", 0)

	inst, err := m.Start(ctx, "srv")
	require.NoError(t, err)
	port := inst.Port()

	cfg, err := configs.Load(ctx, "srv")
	require.NoError(t, err)
	cfg.Routes = []config.RouteConfig{{Method: "GET", Path: "/v2", Response: "two"}}
	require.NoError(t, configs.Save(ctx, cfg))

	require.NoError(t, m.Reload(ctx, "srv"))

	// Still serving on the same port, now with the new routes.
	status, _ := httpGet(t, fmt.Sprintf("http://127.0.0.1:%d/v2", port))
	assert.Equal(t, 200, status)
	status, _ = httpGet(t, fmt.Sprintf("http://127.0.0.1:%d/ping", port))
	assert.Equal(t, 404, status)

	// Reloading a server with no live instance fails.
	assert.Error(t, m.Reload(ctx, "ghost"))
}

func TestManagerStopAll(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	createServer(t, m, "one", 0)
	createServer(t, m, "two", 0)

	first, err := m.Start(ctx, "one")
	require.NoError(t, err)
	second, err := m.Start(ctx, "two")
	require.NoError(t, err)

	m.StopAll(ctx)
	assert.False(t, first.Running())
	assert.False(t, second.Running())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
