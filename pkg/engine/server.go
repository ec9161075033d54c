package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/logging"
	"github.com/mockhive/mockhive/pkg/proxy"
	"github.com/mockhive/mockhive/pkg/recording"
	"github.com/mockhive/mockhive/pkg/requestlog"
	"github.com/mockhive/mockhive/pkg/stateful"
)

// State is an instance lifecycle state.
type State string

// Lifecycle states. Transitions: stopped -> starting -> running ->
// stopping -> stopped.
const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// shutdownTimeout bounds graceful HTTP shutdown on Stop.
const shutdownTimeout = 5 * time.Second

// Option configures an Instance.
type Option func(*Instance)

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Instance) {
		i.logger = logger
	}
}

// Instance is one mock server. It is built from a ServerConfig and serves
// HTTP on the configured host and port while running.
type Instance struct {
	mu    sync.RWMutex
	cfg   *config.ServerConfig
	state State

	matcher   *Matcher
	responder *responder
	overrides *overrideState
	records   *stateful.Store
	forwarder *proxy.Forwarder
	cors      *corsLayer
	reqLog    *memoryRequestLog

	httpServer *http.Server
	listener   net.Listener
	startTime  time.Time

	logger *slog.Logger
}

// NewInstance builds a stopped instance from a validated config.
func NewInstance(cfg *config.ServerConfig, opts ...Option) (*Instance, error) {
	inst := &Instance{
		state:  StateStopped,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(inst)
	}
	if err := inst.configure(cfg); err != nil {
		return nil, err
	}
	inst.reqLog = newMemoryRequestLog(cfg.MaxLogEntries)
	return inst, nil
}

// configure rebuilds all config-derived components. Caller must not hold
// the lock for the initial call; Reload takes it.
func (i *Instance) configure(cfg *config.ServerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	records, err := buildStore(cfg)
	if err != nil {
		return err
	}

	var forwarder *proxy.Forwarder
	if cfg.Proxy != nil {
		forwarder, err = proxy.NewForwarder(proxy.Config{
			Target:        cfg.Proxy.Target,
			Capture:       cfg.Proxy.Capture,
			MaxRecordings: cfg.Proxy.MaxRecordings,
			ServerID:      cfg.ID,
			Logger:        i.logger,
		})
		if err != nil {
			return err
		}
	}

	matcher := NewMatcher(cfg)
	overrides := newOverrideState()
	if cfg.ActiveProfile != "" {
		profile := cfg.Profiles[cfg.ActiveProfile]
		overrides.applyProfile(&profile)
	}

	i.mu.Lock()
	i.cfg = cfg
	i.matcher = matcher
	i.responder = newResponder()
	i.overrides = overrides
	i.records = records
	i.forwarder = forwarder
	i.cors = &corsLayer{cfg: cfg.CORS, hasExplicitRoute: matcher.HasExplicitRoute}
	i.mu.Unlock()
	return nil
}

// ID returns the server id.
func (i *Instance) ID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.cfg.ID
}

// Name returns the display name, falling back to the id.
func (i *Instance) Name() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.cfg.Name != "" {
		return i.cfg.Name
	}
	return i.cfg.ID
}

// Port returns the configured port. After Start with port 0 it returns
// the actual bound port.
func (i *Instance) Port() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.listener != nil {
		if addr, ok := i.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return i.cfg.Port
}

// State returns the lifecycle state.
func (i *Instance) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Running reports whether the instance is serving.
func (i *Instance) Running() bool {
	return i.State() == StateRunning
}

// Uptime returns how long the instance has been running, zero when stopped.
func (i *Instance) Uptime() time.Duration {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.state != StateRunning {
		return 0
	}
	return time.Since(i.startTime)
}

// Config returns the current config.
func (i *Instance) Config() *config.ServerConfig {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.cfg
}

// RequestLog exposes this instance's request history.
func (i *Instance) RequestLog() requestlog.SubscribableStore {
	return i.reqLog
}

// Records exposes the CRUD collections.
func (i *Instance) Records() *stateful.Store {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.records
}

// Recordings exposes captured proxy exchanges, nil when no proxy is
// configured.
func (i *Instance) Recordings() *recording.MemoryStore {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.forwarder == nil {
		return nil
	}
	return i.forwarder.Recordings()
}

// Start binds the listener and begins serving. Starting a running
// instance is a no-op. A bind failure surfaces as PortInUseError.
func (i *Instance) Start() error {
	i.mu.Lock()
	if i.state == StateRunning || i.state == StateStarting {
		i.mu.Unlock()
		return nil
	}
	i.state = StateStarting
	addr := fmt.Sprintf("%s:%d", i.cfg.Host, i.cfg.Port)
	port := i.cfg.Port
	i.mu.Unlock()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		i.mu.Lock()
		i.state = StateStopped
		i.mu.Unlock()
		return &PortInUseError{Port: port}
	}

	server := &http.Server{
		Handler:           i,
		ReadHeaderTimeout: 10 * time.Second,
	}

	i.mu.Lock()
	i.listener = listener
	i.httpServer = server
	i.startTime = time.Now()
	i.state = StateRunning
	i.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			i.logger.Error("mock server failed", "server", i.ID(), "error", err)
		}
	}()

	i.logger.Info("mock server started", "server", i.ID(), "addr", listener.Addr().String())
	return nil
}

// Stop gracefully shuts the server down. Stopping a stopped instance is a
// no-op. Record state, overrides, and cursors survive a stop.
func (i *Instance) Stop(ctx context.Context) error {
	i.mu.Lock()
	if i.state != StateRunning {
		i.mu.Unlock()
		return nil
	}
	i.state = StateStopping
	server := i.httpServer
	i.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	err := server.Shutdown(shutdownCtx)

	i.mu.Lock()
	i.httpServer = nil
	i.listener = nil
	i.state = StateStopped
	i.mu.Unlock()

	i.logger.Info("mock server stopped", "server", i.ID())
	return err
}

// Reload swaps in a new config. Overrides, sequence cursors, and record
// state are rebuilt from scratch; the request log is kept. The listener
// is untouched, so port changes require a stop and start.
func (i *Instance) Reload(cfg *config.ServerConfig) error {
	if err := i.configure(cfg); err != nil {
		return err
	}
	i.logger.Info("mock server reloaded", "server", cfg.ID)
	return nil
}

// currentOverrides snapshots the override state pointer, which Reload
// swaps under the write lock.
func (i *Instance) currentOverrides() *overrideState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.overrides
}

// SetRouteOverride patches a route's runtime behavior.
func (i *Instance) SetRouteOverride(index int, ov config.Override) error {
	i.mu.RLock()
	routeCount := len(i.cfg.Routes)
	overrides := i.overrides
	i.mu.RUnlock()
	if index < 0 || index >= routeCount {
		return fmt.Errorf("route index %d out of range", index)
	}
	overrides.setRoute(index, ov)
	return nil
}

// ClearRouteOverride removes a route override.
func (i *Instance) ClearRouteOverride(index int) {
	i.currentOverrides().clearRoute(index)
}

// SetResourceOverride patches a resource's runtime behavior.
func (i *Instance) SetResourceOverride(name string, ov config.Override) error {
	i.mu.RLock()
	_, ok := i.cfg.Resources[name]
	overrides := i.overrides
	i.mu.RUnlock()
	if !ok {
		return fmt.Errorf("resource %q not defined", name)
	}
	overrides.setResource(name, ov)
	return nil
}

// ClearResourceOverride removes a resource override.
func (i *Instance) ClearResourceOverride(name string) {
	i.currentOverrides().clearResource(name)
}

// ActivateProfile replaces all current overrides with the named profile's.
func (i *Instance) ActivateProfile(name string) error {
	i.mu.RLock()
	profile, ok := i.cfg.Profiles[name]
	overrides := i.overrides
	i.mu.RUnlock()
	if !ok {
		return &ProfileNotFoundError{Name: name}
	}
	overrides.applyProfile(&profile)
	i.logger.Info("profile activated", "server", i.ID(), "profile", name)
	return nil
}

// DeactivateProfile clears all overrides and unsets the active profile.
func (i *Instance) DeactivateProfile() {
	i.currentOverrides().deactivate()
	i.logger.Info("profile deactivated", "server", i.ID())
}

// ActiveProfile returns the active profile name, empty when none.
func (i *Instance) ActiveProfile() string {
	return i.currentOverrides().profileName()
}
