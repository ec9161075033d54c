package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/logging"
	"github.com/mockhive/mockhive/pkg/requestlog"
	"github.com/mockhive/mockhive/pkg/store"
)

// ServerSummary is a point-in-time view of one configured server. It is
// built without requiring a running instance.
type ServerSummary struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Port          int            `json:"port"`
	State         State          `json:"state"`
	Running       bool           `json:"running"`
	RouteCount    int            `json:"routeCount"`
	ResourceCount int            `json:"resourceCount"`
	ItemCounts    map[string]int `json:"itemCounts,omitempty"`
	ActiveProfile string         `json:"activeProfile,omitempty"`
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the operational logger for the manager and the
// instances it starts.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager owns the set of mock server instances, keyed by server id.
// It loads configs from a ConfigStore, enforces best-effort port
// exclusivity among its own instances, and aggregates every instance's
// request log into one subscribable stream.
type Manager struct {
	mu        sync.RWMutex
	configs   store.ConfigStore
	instances map[string]*Instance
	unsubs    map[string]func()

	aggregate *memoryRequestLog
	logger    *slog.Logger
}

// NewManager creates a manager over a config store.
func NewManager(configs store.ConfigStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		configs:   configs,
		instances: make(map[string]*Instance),
		unsubs:    make(map[string]func()),
		aggregate: newMemoryRequestLog(0),
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates and persists a new server config. It does not start
// the server.
func (m *Manager) Create(ctx context.Context, cfg *config.ServerConfig) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return m.configs.Save(ctx, cfg)
}

// Start brings the server with the given id up. Starting a running server
// returns the existing instance. The config is loaded fresh from the
// store on every cold start.
func (m *Manager) Start(ctx context.Context, id string) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inst, ok := m.instances[id]; ok && inst.Running() {
		return inst, nil
	}

	cfg, err := m.configs.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Best-effort exclusivity among managed instances; a foreign process
	// on the port is caught by the bind in Start.
	if cfg.Port != 0 {
		for otherID, other := range m.instances {
			if otherID != id && other.Running() && other.Port() == cfg.Port {
				return nil, &PortInUseError{Port: cfg.Port}
			}
		}
	}

	inst, ok := m.instances[id]
	if ok {
		if err := inst.Reload(cfg); err != nil {
			return nil, err
		}
	} else {
		inst, err = NewInstance(cfg, WithLogger(m.logger))
		if err != nil {
			return nil, err
		}
	}

	if err := inst.Start(); err != nil {
		return nil, err
	}

	if _, subscribed := m.unsubs[id]; !subscribed {
		sub, unsub := inst.RequestLog().Subscribe()
		m.unsubs[id] = unsub
		go m.pump(sub)
	}
	m.instances[id] = inst

	m.logger.Info("server started", "server", id, "port", inst.Port())
	return inst, nil
}

// pump forwards one instance's entries into the aggregate stream until
// the subscription closes.
func (m *Manager) pump(sub requestlog.Subscriber) {
	for entry := range sub {
		m.aggregate.Log(entry)
	}
}

// Stop shuts a server down. Stopping an unknown or already stopped server
// is a no-op.
func (m *Manager) Stop(ctx context.Context, id string) error {
	m.mu.RLock()
	inst, ok := m.instances[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return inst.Stop(ctx)
}

// Delete stops the server, discards its instance, and removes its config.
// Deleting an unknown server only removes any stored config.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	inst, ok := m.instances[id]
	unsub := m.unsubs[id]
	delete(m.instances, id)
	delete(m.unsubs, id)
	m.mu.Unlock()

	if ok {
		if err := inst.Stop(ctx); err != nil {
			m.logger.Warn("stop during delete failed", "server", id, "error", err)
		}
	}
	if unsub != nil {
		unsub()
	}
	return m.configs.Delete(ctx, id)
}

// Get returns the live instance for a server id, if one exists.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// Reload re-reads the server's config from the store and applies it to
// the live instance. Overrides and sequence cursors reset; the listener
// stays up.
func (m *Manager) Reload(ctx context.Context, id string) error {
	cfg, err := m.configs.Load(ctx, id)
	if err != nil {
		return err
	}

	m.mu.RLock()
	inst, ok := m.instances[id]
	m.mu.RUnlock()
	if !ok {
		return &store.ErrNotFound{ID: id}
	}
	return inst.Reload(cfg)
}

// List summarizes every configured server. Stopped servers are summarized
// from their stored config without instantiating them.
func (m *Manager) List(ctx context.Context) ([]ServerSummary, error) {
	ids, err := m.configs.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]ServerSummary, 0, len(ids))
	for _, id := range ids {
		m.mu.RLock()
		inst, live := m.instances[id]
		m.mu.RUnlock()

		if live {
			summaries = append(summaries, liveSummary(inst))
			continue
		}

		cfg, err := m.configs.Load(ctx, id)
		if err != nil {
			m.logger.Warn("skipping unreadable config", "server", id, "error", err)
			continue
		}
		summaries = append(summaries, staticSummary(cfg))
	}
	return summaries, nil
}

// StopAll stops every running instance.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.RLock()
	instances := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		instances = append(instances, inst)
	}
	m.mu.RUnlock()

	for _, inst := range instances {
		if err := inst.Stop(ctx); err != nil {
			m.logger.Warn("stop failed", "server", inst.ID(), "error", err)
		}
	}
}

// Subscribe streams request log entries from all running instances.
func (m *Manager) Subscribe() (requestlog.Subscriber, func()) {
	return m.aggregate.Subscribe()
}

// Entries queries the aggregated request log, newest first.
func (m *Manager) Entries(filter requestlog.Filter) []*requestlog.Entry {
	return m.aggregate.Entries(filter)
}

func liveSummary(inst *Instance) ServerSummary {
	cfg := inst.Config()
	return ServerSummary{
		ID:            cfg.ID,
		Name:          inst.Name(),
		Port:          inst.Port(),
		State:         inst.State(),
		Running:       inst.Running(),
		RouteCount:    len(cfg.Routes),
		ResourceCount: len(cfg.Resources),
		ItemCounts:    inst.Records().Counts(),
		ActiveProfile: inst.ActiveProfile(),
	}
}

func staticSummary(cfg *config.ServerConfig) ServerSummary {
	name := cfg.Name
	if name == "" {
		name = cfg.ID
	}
	itemCounts := make(map[string]int, len(cfg.Resources))
	for resName, res := range cfg.Resources {
		itemCounts[resName] = len(res.Seed) + res.Count
	}
	return ServerSummary{
		ID:            cfg.ID,
		Name:          name,
		Port:          cfg.Port,
		State:         StateStopped,
		RouteCount:    len(cfg.Routes),
		ResourceCount: len(cfg.Resources),
		ItemCounts:    itemCounts,
		ActiveProfile: cfg.ActiveProfile,
	}
}
