package engine

import (
	"math/rand/v2"
	"net/http"
	"sync"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/template"
)

// resolvedResponse is the final selection for a route hit, after mode
// resolution but before templating of the body happens in resolve itself.
type resolvedResponse struct {
	Status  int
	Body    any
	Headers map[string]string
	DelayMs int
}

// responder picks a response for each route hit. Modes are tried in
// priority order: rules, sequence, random variants, single response.
// Sequence cursors are per route index and live for the lifetime of the
// responder; Reload builds a fresh one.
type responder struct {
	rules *ruleEvaluator

	mu      sync.Mutex
	cursors map[int]int
	frozen  map[int]bool
}

func newResponder() *responder {
	return &responder{
		rules:   newRuleEvaluator(),
		cursors: make(map[int]int),
		frozen:  make(map[int]bool),
	}
}

// resolve selects and templates the response for a matched route.
func (r *responder) resolve(match *RouteMatch, tctx *template.Context) resolvedResponse {
	route := match.Route
	resp := resolvedResponse{
		Status:  route.Status,
		Body:    route.Response,
		Headers: mergeHeaders(route.Headers, nil),
		DelayMs: route.DelayMs,
	}

	switch {
	case len(route.Rules) > 0:
		r.applyRules(route, &resp, tctx)
	case len(route.Sequence) > 0:
		r.applySequenceStep(match.Index, route, &resp)
	case len(route.Responses) > 0:
		variant := route.Responses[rand.IntN(len(route.Responses))]
		overlay(&resp, variant.Status, variant.Response, variant.Headers, variant.DelayMs)
	}

	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	resp.Body = template.Resolve(resp.Body, tctx)
	resp.Headers = resolveHeaderValues(resp.Headers, tctx)
	return resp
}

// applyRules applies the first matching rule. When no rule matches the
// route's base response stands.
func (r *responder) applyRules(route *config.RouteConfig, resp *resolvedResponse, tctx *template.Context) {
	for i := range route.Rules {
		rule := &route.Rules[i]
		if r.rules.matches(rule, tctx) {
			overlay(resp, rule.Status, rule.Response, rule.Headers, rule.DelayMs)
			return
		}
	}
}

// applySequenceStep serves the current step and advances the cursor.
// The cursor holds at the final step, and freezes at a sticky step.
func (r *responder) applySequenceStep(routeIndex int, route *config.RouteConfig, resp *resolvedResponse) {
	r.mu.Lock()
	idx := r.cursors[routeIndex]
	if idx >= len(route.Sequence) {
		idx = len(route.Sequence) - 1
	}
	step := route.Sequence[idx]
	if !r.frozen[routeIndex] {
		if step.Sticky {
			r.frozen[routeIndex] = true
		} else if idx < len(route.Sequence)-1 {
			r.cursors[routeIndex] = idx + 1
		}
	}
	r.mu.Unlock()

	overlay(resp, step.Status, step.Response, step.Headers, step.DelayMs)
}

// cursorPosition reports the current step for a route, for status surfaces.
func (r *responder) cursorPosition(routeIndex int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursors[routeIndex]
}

// overlay applies a mode's non-zero fields over the base response.
func overlay(resp *resolvedResponse, status int, body any, headers map[string]string, delayMs int) {
	if status != 0 {
		resp.Status = status
	}
	if body != nil {
		resp.Body = body
	}
	resp.Headers = mergeHeaders(resp.Headers, headers)
	if delayMs > 0 {
		resp.DelayMs = delayMs
	}
}

func mergeHeaders(base, over map[string]string) map[string]string {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// resolveHeaderValues templates header values; results always stay strings.
func resolveHeaderValues(headers map[string]string, tctx *template.Context) map[string]string {
	if len(headers) == 0 {
		return headers
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		switch resolved := template.ResolveString(v, tctx).(type) {
		case string:
			out[k] = resolved
		default:
			out[k] = headerString(resolved)
		}
	}
	return out
}

func headerString(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(val)
	default:
		return ""
	}
}
