package engine

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/mockhive/mockhive/pkg/httputil"
	"github.com/mockhive/mockhive/pkg/requestlog"
	"github.com/mockhive/mockhive/pkg/template"
)

// maxBodySize caps request bodies read into memory.
const maxBodySize = 10 << 20

// Reserved endpoints, claimed before any matching.
const (
	resetPath  = "/__reset"
	statusPath = "/__status"
)

// statusWriter records the status code actually sent.
type statusWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.wrote = true
	}
	return w.ResponseWriter.Write(b)
}

// ServeHTTP runs the request pipeline and records exactly one log entry,
// whatever the outcome. Handler panics become 500s instead of killing the
// connection silently.
func (i *Instance) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

	var matched, proxied bool
	func() {
		defer func() {
			if p := recover(); p != nil {
				i.logger.Error("handler panic", "server", i.ID(), "path", r.URL.Path, "panic", p)
				if !sw.wrote {
					httputil.WriteInternalError(sw, "internal_error", "internal server error")
				}
			}
		}()
		matched, proxied = i.handle(sw, r)
	}()

	elapsed := time.Since(start)
	i.reqLog.Log(&requestlog.Entry{
		ServerID:   i.ID(),
		Method:     r.Method,
		Path:       r.URL.Path,
		Status:     sw.status,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
		Timestamp:  start.UTC(),
		Matched:    matched,
		Proxied:    proxied,
	})
	i.logger.Debug("request handled",
		"server", i.ID(),
		"method", r.Method,
		"path", r.URL.Path,
		"status", sw.status,
		"elapsedMs", float64(elapsed.Microseconds())/1000,
	)
}

func (i *Instance) handle(w http.ResponseWriter, r *http.Request) (matched, proxied bool) {
	i.mu.RLock()
	cfg := i.cfg
	matcher := i.matcher
	responder := i.responder
	overrides := i.overrides
	records := i.records
	forwarder := i.forwarder
	cors := i.cors
	i.mu.RUnlock()

	if cors.apply(w, r) {
		return false, false
	}

	switch {
	case r.URL.Path == resetPath && r.Method == http.MethodPost:
		records.ResetAll()
		httputil.WriteNoContent(w)
		return true, false
	case r.URL.Path == statusPath && r.Method == http.MethodGet:
		i.writeStatus(w)
		return true, false
	}

	body := readBody(r)
	routeMatch, resourceMatch := matcher.Match(r.Method, r.URL.Path)

	switch {
	case routeMatch != nil:
		return true, i.handleRoute(w, r, routeMatch, body, cfg.DefaultDelayMs, responder, overrides)
	case resourceMatch != nil:
		return true, i.handleResource(w, r, resourceMatch, body, cfg.DefaultDelayMs, records, overrides)
	}

	if forwarder != nil {
		forwarder.Forward(w, r, body)
		return false, true
	}

	httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
		"error":   "no_match",
		"message": "no route or resource matches",
		"method":  r.Method,
		"path":    r.URL.Path,
	})
	return false, false
}

// handleRoute serves an explicit route hit: overrides, delay, error
// injection, then response resolution. The responder and override state are
// the snapshots taken by handle, so a concurrent reload cannot swap them
// mid-request.
func (i *Instance) handleRoute(w http.ResponseWriter, r *http.Request, match *RouteMatch, body []byte, defaultDelay int, responder *responder, overrides *overrideState) (proxied bool) {
	route := match.Route
	ov := overrides.routeOverride(match.Index)
	eff := effectiveSettings(ov, route.DelayMs, route.ErrorRate, route.ErrorStatus, defaultDelay)

	if eff.disabled {
		httputil.WriteServiceUnavailable(w, "disabled", "endpoint disabled")
		return false
	}
	if eff.passthrough {
		return i.passthrough(w, r, body)
	}

	sleepContext(r.Context(), eff.delayMs)
	if injected(eff.errorRate) {
		httputil.WriteError(w, eff.errorStatus, "injected_failure", "failure injected by configuration")
		return false
	}

	tctx := template.NewContext(r, match.Params, body)
	resp := responder.resolve(match, tctx)

	// Mode-level delays (sequence steps, variants, rules) apply only when
	// no override pins the delay, and only for the part not yet slept.
	if (ov == nil || ov.DelayMs == nil) && resp.DelayMs > eff.delayMs {
		sleepContext(r.Context(), resp.DelayMs-eff.delayMs)
	}

	writeResolved(w, r, resp)
	return false
}

// passthrough forwards a matched request upstream because an override
// demanded it.
func (i *Instance) passthrough(w http.ResponseWriter, r *http.Request, body []byte) bool {
	i.mu.RLock()
	forwarder := i.forwarder
	i.mu.RUnlock()

	if forwarder == nil {
		httputil.WriteBadGateway(w, "upstream_failure", "passthrough requested but no proxy target configured")
		return false
	}
	forwarder.Forward(w, r, body)
	return true
}

// writeResolved sends a resolved response. Bodies are JSON-encoded unless
// a custom Content-Type was configured for a string body.
func writeResolved(w http.ResponseWriter, r *http.Request, resp resolvedResponse) {
	header := w.Header()
	customType := false
	for key, value := range resp.Headers {
		header.Set(key, value)
		if http.CanonicalHeaderKey(key) == "Content-Type" {
			customType = true
		}
	}

	if resp.Body == nil {
		w.WriteHeader(resp.Status)
		return
	}

	if text, ok := resp.Body.(string); ok && customType {
		w.WriteHeader(resp.Status)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(text))
		}
		return
	}

	if !customType {
		header.Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(resp.Body)
	}
}

// writeStatus serves the reserved status endpoint.
func (i *Instance) writeStatus(w http.ResponseWriter) {
	i.mu.RLock()
	cfg := i.cfg
	records := i.records
	state := i.state
	i.mu.RUnlock()

	httputil.WriteOK(w, map[string]any{
		"id":            cfg.ID,
		"name":          cfg.Name,
		"state":         state,
		"uptimeSec":     int(i.Uptime().Seconds()),
		"routes":        len(cfg.Routes),
		"resources":     records.Counts(),
		"activeProfile": i.ActiveProfile(),
	})
}

// readBody drains up to maxBodySize of the request body. Read errors are
// treated as an absent body.
func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	_ = r.Body.Close()
	if err != nil {
		return nil
	}
	return body
}

// sleepContext sleeps for the given milliseconds or until the request is
// canceled.
func sleepContext(ctx context.Context, delayMs int) {
	if delayMs <= 0 {
		return
	}
	select {
	case <-time.After(time.Duration(delayMs) * time.Millisecond):
	case <-ctx.Done():
	}
}

// injected draws once against the effective error rate.
func injected(rate float64) bool {
	return rate > 0 && rand.Float64() < rate
}
