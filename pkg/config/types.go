// Package config defines the configuration model for mock servers.
//
// A ServerConfig describes one mock server: its port, explicit routes,
// CRUD resources, override profiles, CORS behavior, and optional proxy
// fallback. Configs load from JSON or YAML and are persisted through the
// store.ConfigStore interface.
package config

// RouteConfig defines one explicit endpoint.
//
// Response selection picks the first populated mode in priority order:
// rules, then sequence, then responses (random variant), then the single
// response.
type RouteConfig struct {
	// Method is the HTTP method to match, or "*" for any.
	Method string `json:"method" yaml:"method"`

	// Path is the route pattern. Segments starting with ':' bind path
	// parameters, e.g. "/users/:id".
	Path string `json:"path" yaml:"path"`

	// Status is the response status code. 0 means 200.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`

	// Response is the templated response body, any JSON shape.
	Response any `json:"response,omitempty" yaml:"response,omitempty"`

	// Responses are variants picked at random per request.
	Responses []ResponseVariant `json:"responses,omitempty" yaml:"responses,omitempty"`

	// Sequence returns steps in order across requests.
	Sequence []SequenceStep `json:"sequence,omitempty" yaml:"sequence,omitempty"`

	// Rules select a response by matching against request data.
	Rules []RouteRule `json:"rules,omitempty" yaml:"rules,omitempty"`

	// Headers are added to every response from this route.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// DelayMs delays the response.
	DelayMs int `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`

	// ErrorRate is the probability [0,1] of an injected failure.
	ErrorRate float64 `json:"errorRate,omitempty" yaml:"errorRate,omitempty"`

	// ErrorStatus is the injected failure status. 0 means 500.
	ErrorStatus int `json:"errorStatus,omitempty" yaml:"errorStatus,omitempty"`
}

// ResponseVariant is one randomly selectable response.
type ResponseVariant struct {
	Status   int               `json:"status,omitempty" yaml:"status,omitempty"`
	Response any               `json:"response,omitempty" yaml:"response,omitempty"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	DelayMs  int               `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
}

// SequenceStep is one step of an ordered response sequence. The cursor
// advances per request and holds at the final step, or at the first step
// marked sticky.
type SequenceStep struct {
	Status   int               `json:"status,omitempty" yaml:"status,omitempty"`
	Response any               `json:"response,omitempty" yaml:"response,omitempty"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	DelayMs  int               `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`

	// Sticky freezes the cursor once this step is reached.
	Sticky bool `json:"sticky,omitempty" yaml:"sticky,omitempty"`
}

// RouteRule is one conditional response. Rules are evaluated in order and
// the first match wins. A rule with no condition always matches.
type RouteRule struct {
	// When maps request paths to expected values. Keys are dotted paths
	// ("query.env", "body.user.role") or JSONPath when prefixed with "$".
	// All entries must match.
	When map[string]any `json:"when,omitempty" yaml:"when,omitempty"`

	// WhenExpr is a boolean expression over the request context,
	// e.g. `query.env == "prod" && body.amount > 100`.
	WhenExpr string `json:"whenExpr,omitempty" yaml:"whenExpr,omitempty"`

	Status   int               `json:"status,omitempty" yaml:"status,omitempty"`
	Response any               `json:"response,omitempty" yaml:"response,omitempty"`
	Headers  map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	DelayMs  int               `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
}

// ResourceConfig defines one CRUD resource backed by an in-memory collection.
type ResourceConfig struct {
	// BasePath is the collection URL, e.g. "/api/users".
	BasePath string `json:"basePath" yaml:"basePath"`

	// IDField names the record id field. Defaults to "id".
	IDField string `json:"idField,omitempty" yaml:"idField,omitempty"`

	// Seed are literal records loaded at startup and restored on reset.
	Seed []map[string]any `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Template generates records when Count > 0. Placeholders re-resolve
	// for every generated record.
	Template map[string]any `json:"template,omitempty" yaml:"template,omitempty"`

	// Count is how many records to generate from Template.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`

	// Relations maps a field name to another resource; seeded records get
	// that field populated with an id picked from the referenced resource.
	Relations map[string]string `json:"relations,omitempty" yaml:"relations,omitempty"`

	DelayMs     int     `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
	ErrorRate   float64 `json:"errorRate,omitempty" yaml:"errorRate,omitempty"`
	ErrorStatus int     `json:"errorStatus,omitempty" yaml:"errorStatus,omitempty"`
}

// Override is a sparse runtime patch over a route or resource. Nil fields
// leave the configured value in effect.
type Override struct {
	DelayMs     *int     `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
	ErrorRate   *float64 `json:"errorRate,omitempty" yaml:"errorRate,omitempty"`
	ErrorStatus *int     `json:"errorStatus,omitempty" yaml:"errorStatus,omitempty"`
	Disabled    *bool    `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Passthrough *bool    `json:"passthrough,omitempty" yaml:"passthrough,omitempty"`
}

// Profile is a named bundle of overrides that can be activated as a unit.
// Route overrides are keyed by route index in declaration order.
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// DisabledRoutes and DisabledResources are shorthand for disabled
	// overrides on the listed route indices and resource names.
	DisabledRoutes    []int    `json:"disabledRoutes,omitempty" yaml:"disabledRoutes,omitempty"`
	DisabledResources []string `json:"disabledResources,omitempty" yaml:"disabledResources,omitempty"`

	Routes    map[int]Override    `json:"routes,omitempty" yaml:"routes,omitempty"`
	Resources map[string]Override `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// CORSConfig controls cross-origin response headers.
type CORSConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	AllowOrigin  string `json:"allowOrigin,omitempty" yaml:"allowOrigin,omitempty"`
	AllowMethods string `json:"allowMethods,omitempty" yaml:"allowMethods,omitempty"`
	AllowHeaders string `json:"allowHeaders,omitempty" yaml:"allowHeaders,omitempty"`
	MaxAge       int    `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
}

// ProxyConfig forwards unmatched requests to an upstream target.
type ProxyConfig struct {
	// Target is the upstream base URL.
	Target string `json:"target" yaml:"target"`

	// Capture records forwarded exchanges.
	Capture bool `json:"capture,omitempty" yaml:"capture,omitempty"`

	// MaxRecordings caps the capture store.
	MaxRecordings int `json:"maxRecordings,omitempty" yaml:"maxRecordings,omitempty"`
}

// ServerConfig describes one mock server instance.
type ServerConfig struct {
	// ID uniquely identifies the server across the manager.
	ID string `json:"id" yaml:"id"`

	// Name is a human-readable label.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Host is the listen address. Defaults to 127.0.0.1.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the listen port.
	Port int `json:"port" yaml:"port"`

	CORS CORSConfig `json:"cors" yaml:"cors"`

	// DefaultDelayMs applies when neither an override nor a static delay
	// is set.
	DefaultDelayMs int `json:"defaultDelayMs,omitempty" yaml:"defaultDelayMs,omitempty"`

	// Routes are matched first, in declaration order.
	Routes []RouteConfig `json:"routes,omitempty" yaml:"routes,omitempty"`

	// Resources are CRUD collections keyed by resource name.
	Resources map[string]ResourceConfig `json:"resources,omitempty" yaml:"resources,omitempty"`

	// Profiles are named override bundles keyed by profile name.
	Profiles map[string]Profile `json:"profiles,omitempty" yaml:"profiles,omitempty"`

	// ActiveProfile is applied when the server starts or reloads.
	ActiveProfile string `json:"activeProfile,omitempty" yaml:"activeProfile,omitempty"`

	// Proxy, when set, forwards unmatched requests instead of returning 404.
	Proxy *ProxyConfig `json:"proxy,omitempty" yaml:"proxy,omitempty"`

	// MaxLogEntries caps the request log ring buffer.
	MaxLogEntries int `json:"maxLogEntries,omitempty" yaml:"maxLogEntries,omitempty"`
}

// Default values applied by ApplyDefaults.
const (
	DefaultHost          = "127.0.0.1"
	DefaultMaxLogEntries = 1000
)

// DefaultCORSConfig returns permissive CORS suitable for local development.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:      true,
		AllowOrigin:  "*",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders: "*",
		MaxAge:       86400,
	}
}

// DefaultServerConfig returns a minimal working config.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:          DefaultHost,
		CORS:          DefaultCORSConfig(),
		MaxLogEntries: DefaultMaxLogEntries,
	}
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *ServerConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.MaxLogEntries <= 0 {
		c.MaxLogEntries = DefaultMaxLogEntries
	}
	if c.CORS == (CORSConfig{}) {
		c.CORS = DefaultCORSConfig()
	}
}
