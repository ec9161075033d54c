// Package proxy forwards unmatched requests to an upstream target.
package proxy

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mockhive/mockhive/pkg/logging"
	"github.com/mockhive/mockhive/pkg/recording"
)

// DefaultTimeout bounds one upstream round trip.
const DefaultTimeout = 30 * time.Second

// maxCapturedBody caps how much of a body is kept in a recording.
const maxCapturedBody = 1 << 20

// Config configures a Forwarder.
type Config struct {
	// Target is the upstream base URL, e.g. "https://api.example.com".
	Target string

	// Capture enables recording of forwarded exchanges.
	Capture bool

	// MaxRecordings caps the recording store. 0 uses the package default.
	MaxRecordings int

	// ServerID stamps recordings with the owning instance.
	ServerID string

	// Timeout bounds one round trip. 0 uses DefaultTimeout.
	Timeout time.Duration

	// Logger receives operational logs. Defaults to a nop logger.
	Logger *slog.Logger
}

// Forwarder relays requests to a fixed upstream target.
type Forwarder struct {
	target     *url.URL
	client     *http.Client
	capture    bool
	serverID   string
	recordings *recording.MemoryStore
	logger     *slog.Logger
}

// NewForwarder validates the target URL and builds a Forwarder.
func NewForwarder(cfg Config) (*Forwarder, error) {
	target, err := url.Parse(cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("parse proxy target: %w", err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("proxy target %q: scheme must be http or https", cfg.Target)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Forwarder{
		target:     target,
		client:     &http.Client{Timeout: timeout},
		capture:    cfg.Capture,
		serverID:   cfg.ServerID,
		recordings: recording.NewMemoryStore(cfg.MaxRecordings),
		logger:     logger,
	}, nil
}

// Target returns the upstream base URL.
func (f *Forwarder) Target() string {
	return f.target.String()
}

// Recordings exposes the captured exchanges.
func (f *Forwarder) Recordings() *recording.MemoryStore {
	return f.recordings
}

// Forward relays the request to the upstream target and copies the response
// through. It returns the status code sent to the client; upstream failures
// produce a 502. The request context cancels the upstream call.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, body []byte) int {
	upstreamURL := *f.target
	upstreamURL.Path = joinPath(f.target.Path, r.URL.Path)
	upstreamURL.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(r.Context(), r.Method, upstreamURL.String(), bytes.NewReader(body))
	if err != nil {
		f.logger.Error("proxy request build failed", "error", err)
		writeBadGateway(w)
		return http.StatusBadGateway
	}

	copyHeaders(req.Header, r.Header)
	removeHopByHopHeaders(req.Header)
	req.Header.Set("X-Forwarded-For", clientIP(r))
	req.Header.Set("X-Forwarded-Host", r.Host)
	req.Header.Set("X-Forwarded-Proto", "http")

	var rec *recording.Recording
	if f.capture {
		rec = recording.New(f.serverID)
		rec.CaptureRequest(r, truncate(body))
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("proxy upstream failed", "target", f.target.String(), "error", err)
		writeBadGateway(w)
		return http.StatusBadGateway
	}
	defer resp.Body.Close()

	headers := w.Header()
	copyHeaders(headers, resp.Header)
	removeHopByHopHeaders(headers)
	w.WriteHeader(resp.StatusCode)

	if rec == nil {
		// No capture, stream the body straight through.
		if _, err := io.Copy(w, resp.Body); err != nil {
			f.logger.Warn("proxy response copy failed", "error", err)
		}
		return resp.StatusCode
	}

	// Capture buffers up to the recording cap while relaying the rest.
	var buf bytes.Buffer
	tee := io.TeeReader(io.LimitReader(resp.Body, maxCapturedBody), &buf)
	if _, err := io.Copy(w, tee); err != nil {
		f.logger.Warn("proxy response copy failed", "error", err)
	} else if _, err := io.Copy(w, resp.Body); err != nil {
		f.logger.Warn("proxy response copy failed", "error", err)
	}

	rec.CaptureResponse(resp.StatusCode, resp.Header, buf.Bytes(), time.Since(start))
	f.recordings.Add(rec)
	return resp.StatusCode
}

func writeBadGateway(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_, _ = w.Write([]byte(`{"error":"upstream_failure","message":"proxy target unreachable"}`))
}

func joinPath(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host
}

func truncate(b []byte) []byte {
	if len(b) > maxCapturedBody {
		return b[:maxCapturedBody]
	}
	return b
}

func copyHeaders(dst, src http.Header) {
	for key, vals := range src {
		for _, v := range vals {
			dst.Add(key, v)
		}
	}
}

// hopByHopHeaders must not be forwarded between hops per RFC 7230 section 6.1.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

func removeHopByHopHeaders(h http.Header) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}
