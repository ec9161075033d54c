package engine

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/mockhive/mockhive/pkg/config"
)

// RouteMatch is a hit on an explicit route.
type RouteMatch struct {
	// Index is the route's position in declaration order. Overrides and
	// sequence cursors are keyed by this index.
	Index int

	Route *config.RouteConfig

	// Params holds values bound by :name segments.
	Params map[string]string
}

// ResourceKind distinguishes collection and item operations.
type ResourceKind int

const (
	// ResourceCollection is a hit on the basePath itself (GET list, POST create).
	ResourceCollection ResourceKind = iota
	// ResourceItem is a hit on basePath plus one id segment.
	ResourceItem
)

// ResourceMatch is a hit on a CRUD resource.
type ResourceMatch struct {
	Name   string
	Config *config.ResourceConfig
	Kind   ResourceKind

	// ID is the URL-decoded trailing segment for item operations.
	ID string
}

type resourceEntry struct {
	name     string
	basePath string
	cfg      *config.ResourceConfig
}

// Matcher resolves a method and path to a route or resource. Routes win
// over resources, in declaration order, first structural match. Resources
// are checked longest basePath first so nested paths resolve predictably.
type Matcher struct {
	routes    []config.RouteConfig
	resources []resourceEntry
}

// NewMatcher builds a matcher from a server config.
func NewMatcher(cfg *config.ServerConfig) *Matcher {
	m := &Matcher{routes: cfg.Routes}

	for name, res := range cfg.Resources {
		resCfg := res
		m.resources = append(m.resources, resourceEntry{
			name:     name,
			basePath: strings.TrimSuffix(res.BasePath, "/"),
			cfg:      &resCfg,
		})
	}
	sort.Slice(m.resources, func(a, b int) bool {
		if len(m.resources[a].basePath) != len(m.resources[b].basePath) {
			return len(m.resources[a].basePath) > len(m.resources[b].basePath)
		}
		return m.resources[a].name < m.resources[b].name
	})
	return m
}

// Match resolves a request. At most one of the results is non-nil.
// HEAD requests fall back to GET matching.
func (m *Matcher) Match(method, path string) (*RouteMatch, *ResourceMatch) {
	if route := m.matchRoute(method, path); route != nil {
		return route, nil
	}
	if res := m.matchResource(method, path); res != nil {
		return nil, res
	}
	if method == http.MethodHead {
		return m.Match(http.MethodGet, path)
	}
	return nil, nil
}

// HasExplicitRoute reports whether any route declares this method and
// structurally matches the path. The CORS layer uses it to let configured
// OPTIONS routes win over preflight handling.
func (m *Matcher) HasExplicitRoute(method, path string) bool {
	return m.matchRoute(method, path) != nil
}

func (m *Matcher) matchRoute(method, path string) *RouteMatch {
	segments := splitPath(path)
	for i := range m.routes {
		route := &m.routes[i]
		if route.Method != "*" && !strings.EqualFold(route.Method, method) {
			continue
		}
		params, ok := bindSegments(splitPath(route.Path), segments)
		if !ok {
			continue
		}
		return &RouteMatch{Index: i, Route: route, Params: params}
	}
	return nil
}

func (m *Matcher) matchResource(method, path string) *ResourceMatch {
	trimmed := strings.TrimSuffix(path, "/")
	for _, entry := range m.resources {
		if trimmed == entry.basePath {
			if method == http.MethodGet || method == http.MethodPost {
				return &ResourceMatch{Name: entry.name, Config: entry.cfg, Kind: ResourceCollection}
			}
			continue
		}

		rest, ok := strings.CutPrefix(trimmed, entry.basePath+"/")
		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		switch method {
		case http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete:
			id, err := url.PathUnescape(rest)
			if err != nil {
				id = rest
			}
			return &ResourceMatch{Name: entry.name, Config: entry.cfg, Kind: ResourceItem, ID: id}
		}
	}
	return nil
}

// bindSegments matches request segments against a pattern of the same
// length, binding :name segments as parameters.
func bindSegments(pattern, actual []string) (map[string]string, bool) {
	if len(pattern) != len(actual) {
		return nil, false
	}
	var params map[string]string
	for i, pseg := range pattern {
		if name, ok := strings.CutPrefix(pseg, ":"); ok && name != "" {
			if params == nil {
				params = make(map[string]string)
			}
			value, err := url.PathUnescape(actual[i])
			if err != nil {
				value = actual[i]
			}
			params[name] = value
			continue
		}
		if pseg != actual[i] {
			return nil, false
		}
	}
	if params == nil {
		params = make(map[string]string)
	}
	return params, true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
