// Package recording captures proxied traffic so unmatched requests that were
// forwarded upstream can be inspected and turned into mock definitions.
package recording

import (
	"net/http"
	"time"

	"github.com/mockhive/mockhive/internal/id"
)

// Recording is one proxied request/response exchange.
type Recording struct {
	ID              string            `json:"id"`
	ServerID        string            `json:"serverId"`
	Method          string            `json:"method"`
	Path            string            `json:"path"`
	Status          int               `json:"status"`
	RequestHeaders  map[string]string `json:"requestHeaders,omitempty"`
	RequestBody     string            `json:"requestBody,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
	ResponseBody    string            `json:"responseBody,omitempty"`
	DurationMs      float64           `json:"durationMs"`
	Timestamp       time.Time         `json:"timestamp"`
}

// New creates a recording stamped with an id and the current time.
func New(serverID string) *Recording {
	return &Recording{
		ID:        id.Short(),
		ServerID:  serverID,
		Timestamp: time.Now().UTC(),
	}
}

// CaptureRequest fills in the request side of the exchange.
func (r *Recording) CaptureRequest(req *http.Request, body []byte) {
	r.Method = req.Method
	r.Path = req.URL.Path
	r.RequestHeaders = flattenHeaders(req.Header)
	r.RequestBody = string(body)
}

// CaptureResponse fills in the response side of the exchange.
func (r *Recording) CaptureResponse(status int, headers http.Header, body []byte, elapsed time.Duration) {
	r.Status = status
	r.ResponseHeaders = flattenHeaders(headers)
	r.ResponseBody = string(body)
	r.DurationMs = float64(elapsed.Microseconds()) / 1000
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for key, vals := range h {
		if len(vals) > 0 {
			out[key] = vals[0]
		}
	}
	return out
}
