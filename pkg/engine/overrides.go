package engine

import (
	"sync"

	"github.com/mockhive/mockhive/pkg/config"
)

// overrideState holds the runtime override maps for one instance. Both maps
// are sparse: entries exist only where something was overridden. Keys that
// name no current route or resource are simply never consulted.
type overrideState struct {
	mu            sync.RWMutex
	routes        map[int]config.Override
	resources     map[string]config.Override
	activeProfile string
}

func newOverrideState() *overrideState {
	return &overrideState{
		routes:    make(map[int]config.Override),
		resources: make(map[string]config.Override),
	}
}

func (o *overrideState) setRoute(index int, ov config.Override) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes[index] = ov
}

func (o *overrideState) clearRoute(index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.routes, index)
}

func (o *overrideState) route(index int) (config.Override, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ov, ok := o.routes[index]
	return ov, ok
}

// routeOverride returns a copy of the route override, nil when unset.
func (o *overrideState) routeOverride(index int) *config.Override {
	if ov, ok := o.route(index); ok {
		return &ov
	}
	return nil
}

func (o *overrideState) setResource(name string, ov config.Override) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resources[name] = ov
}

func (o *overrideState) clearResource(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.resources, name)
}

func (o *overrideState) resource(name string) (config.Override, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ov, ok := o.resources[name]
	return ov, ok
}

// resourceOverride returns a copy of the resource override, nil when unset.
func (o *overrideState) resourceOverride(name string) *config.Override {
	if ov, ok := o.resource(name); ok {
		return &ov
	}
	return nil
}

// applyProfile destructively replaces both override maps with the
// profile's contents. Disabled lists are replayed first so an explicit
// override entry for the same key wins. Overrides set by hand before
// activation are lost.
func (o *overrideState) applyProfile(p *config.Profile) {
	o.mu.Lock()
	defer o.mu.Unlock()

	disabled := true
	o.routes = make(map[int]config.Override, len(p.Routes)+len(p.DisabledRoutes))
	for _, idx := range p.DisabledRoutes {
		o.routes[idx] = config.Override{Disabled: &disabled}
	}
	for idx, ov := range p.Routes {
		o.routes[idx] = ov
	}

	o.resources = make(map[string]config.Override, len(p.Resources)+len(p.DisabledResources))
	for _, name := range p.DisabledResources {
		o.resources[name] = config.Override{Disabled: &disabled}
	}
	for name, ov := range p.Resources {
		o.resources[name] = ov
	}
	o.activeProfile = p.Name
}

// deactivate clears both maps and unsets the active profile.
func (o *overrideState) deactivate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = make(map[int]config.Override)
	o.resources = make(map[string]config.Override)
	o.activeProfile = ""
}

func (o *overrideState) profileName() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.activeProfile
}

// effective is the resolved runtime behavior for one route or resource hit.
type effective struct {
	delayMs     int
	errorRate   float64
	errorStatus int
	disabled    bool
	passthrough bool
}

// effectiveSettings layers an override (if any) over static config, with
// the server default delay as the last fallback.
func effectiveSettings(ov *config.Override, staticDelay int, staticRate float64, staticStatus, defaultDelay int) effective {
	eff := effective{
		delayMs:     staticDelay,
		errorRate:   staticRate,
		errorStatus: staticStatus,
	}
	if eff.delayMs == 0 {
		eff.delayMs = defaultDelay
	}
	if ov != nil {
		if ov.DelayMs != nil {
			eff.delayMs = *ov.DelayMs
		}
		if ov.ErrorRate != nil {
			eff.errorRate = *ov.ErrorRate
		}
		if ov.ErrorStatus != nil {
			eff.errorStatus = *ov.ErrorStatus
		}
		if ov.Disabled != nil {
			eff.disabled = *ov.Disabled
		}
		if ov.Passthrough != nil {
			eff.passthrough = *ov.Passthrough
		}
	}
	if eff.errorStatus == 0 {
		eff.errorStatus = 500
	}
	return eff
}
