// Package requestlog provides types and interfaces for capturing per-request
// activity for user inspection.
//
// This is distinct from operational logging (log/slog): entries here describe
// the traffic a mock server handled, not the platform's own diagnostics.
package requestlog

import (
	"strings"
	"time"
)

// Entry is one handled request. Exactly one entry is recorded per request,
// whatever the outcome.
type Entry struct {
	// ID uniquely identifies the entry.
	ID string `json:"id"`

	// ServerID identifies the mock server instance that handled the request.
	ServerID string `json:"serverId"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the request path.
	Path string `json:"path"`

	// Status is the HTTP status code sent to the client.
	Status int `json:"status"`

	// DurationMs is the wall-clock handling time in milliseconds.
	DurationMs float64 `json:"elapsedMs"`

	// Timestamp is when the request arrived.
	Timestamp time.Time `json:"timestamp"`

	// Matched reports whether a route or resource handled the request.
	Matched bool `json:"matched"`

	// Proxied reports whether the request was forwarded upstream.
	Proxied bool `json:"proxied"`
}

// Filter narrows queries against a Store. Zero values match everything.
type Filter struct {
	// Method matches entries with this HTTP method.
	Method string

	// PathPrefix matches entries whose path starts with this prefix.
	PathPrefix string

	// Status matches entries with this status code.
	Status int

	// Limit caps the number of returned entries. 0 means no cap.
	Limit int
}

// Matches reports whether an entry passes the filter (Limit excluded).
func (f Filter) Matches(e *Entry) bool {
	if f.Method != "" && !strings.EqualFold(e.Method, f.Method) {
		return false
	}
	if f.PathPrefix != "" && !strings.HasPrefix(e.Path, f.PathPrefix) {
		return false
	}
	if f.Status != 0 && e.Status != f.Status {
		return false
	}
	return true
}
