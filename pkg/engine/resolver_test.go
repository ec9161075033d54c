package engine

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/template"
)

func emptyContext(t *testing.T, target string) *template.Context {
	t.Helper()
	return template.NewContext(httptest.NewRequest("GET", target, nil), nil, nil)
}

func TestResolveSingleResponse(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method:   "GET",
			Path:     "/greet",
			Response: map[string]any{"hello": "world"},
		},
	}

	resp := r.resolve(match, emptyContext(t, "/greet"))
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, map[string]any{"hello": "world"}, resp.Body)
}

func TestResolveSequenceAdvancesAndHolds(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 2,
		Route: &config.RouteConfig{
			Method: "GET",
			Path:   "/job",
			Sequence: []config.SequenceStep{
				{Status: 202, Response: "pending"},
				{Status: 202, Response: "running"},
				{Status: 200, Response: "done"},
			},
		},
	}
	ctx := emptyContext(t, "/job")

	var got []any
	for range 5 {
		got = append(got, r.resolve(match, ctx).Body)
	}
	// The terminal step repeats once reached.
	assert.Equal(t, []any{"pending", "running", "done", "done", "done"}, got)
}

func TestResolveSequenceSticky(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method: "GET",
			Path:   "/flaky",
			Sequence: []config.SequenceStep{
				{Status: 200, Response: "A"},
				{Status: 500, Response: "B", Sticky: true},
				{Status: 200, Response: "C"},
			},
		},
	}
	ctx := emptyContext(t, "/flaky")

	var got []any
	for range 4 {
		got = append(got, r.resolve(match, ctx).Body)
	}
	// The sticky step freezes the cursor; C is never reached.
	assert.Equal(t, []any{"A", "B", "B", "B"}, got)
}

func TestResolveSequenceCursorsPerRoute(t *testing.T) {
	r := newResponder()
	mk := func(idx int) *RouteMatch {
		return &RouteMatch{
			Index: idx,
			Route: &config.RouteConfig{
				Method: "GET",
				Path:   "/x",
				Sequence: []config.SequenceStep{
					{Response: "first"},
					{Response: "second"},
				},
			},
		}
	}
	ctx := emptyContext(t, "/x")

	assert.Equal(t, "first", r.resolve(mk(0), ctx).Body)
	assert.Equal(t, "second", r.resolve(mk(0), ctx).Body)
	// A different route index has its own cursor.
	assert.Equal(t, "first", r.resolve(mk(1), ctx).Body)
}

func TestResolveRulesFirstMatchWins(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method:   "GET",
			Path:     "/feature",
			Status:   200,
			Response: map[string]any{"mode": "base"},
			Rules: []config.RouteRule{
				{
					When:     map[string]any{"query.env": "prod"},
					Status:   500,
					Response: map[string]any{"mode": "prod-broken"},
				},
				{
					Status:   200,
					Response: map[string]any{"mode": "default"},
				},
			},
		},
	}

	prod := r.resolve(match, emptyContext(t, "/feature?env=prod"))
	assert.Equal(t, 500, prod.Status)
	assert.Equal(t, "prod-broken", prod.Body.(map[string]any)["mode"])

	dev := r.resolve(match, emptyContext(t, "/feature?env=dev"))
	assert.Equal(t, 200, dev.Status)
	assert.Equal(t, "default", dev.Body.(map[string]any)["mode"])
}

func TestResolveRulesNoMatchFallsBackToBase(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method:   "GET",
			Path:     "/feature",
			Status:   203,
			Response: "base",
			Rules: []config.RouteRule{
				{When: map[string]any{"query.env": "prod"}, Status: 500},
			},
		},
	}

	resp := r.resolve(match, emptyContext(t, "/feature"))
	assert.Equal(t, 203, resp.Status)
	assert.Equal(t, "base", resp.Body)
}

func TestResolveRulesBodyCondition(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method: "POST",
			Path:   "/orders",
			Rules: []config.RouteRule{
				{When: map[string]any{"body.amount": 100}, Status: 402},
				{Status: 201},
			},
		},
	}

	req := httptest.NewRequest("POST", "/orders", nil)
	tctx := template.NewContext(req, nil, []byte(`{"amount":100}`))
	assert.Equal(t, 402, r.resolve(match, tctx).Status)

	tctx = template.NewContext(req, nil, []byte(`{"amount":50}`))
	assert.Equal(t, 201, r.resolve(match, tctx).Status)
}

func TestResolveRulesJSONPath(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method: "POST",
			Path:   "/users",
			Rules: []config.RouteRule{
				{When: map[string]any{"$.body.user.role": "admin"}, Status: 403},
				{Status: 200},
			},
		},
	}

	req := httptest.NewRequest("POST", "/users", nil)
	tctx := template.NewContext(req, nil, []byte(`{"user":{"role":"admin"}}`))
	assert.Equal(t, 403, r.resolve(match, tctx).Status)

	tctx = template.NewContext(req, nil, []byte(`{"user":{"role":"viewer"}}`))
	assert.Equal(t, 200, r.resolve(match, tctx).Status)
}

func TestResolveRulesExpr(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method: "POST",
			Path:   "/orders",
			Rules: []config.RouteRule{
				{WhenExpr: `body.amount > 1000 && query.fast == "1"`, Status: 429},
				{Status: 201},
			},
		},
	}

	req := httptest.NewRequest("POST", "/orders?fast=1", nil)
	tctx := template.NewContext(req, nil, []byte(`{"amount":5000}`))
	assert.Equal(t, 429, r.resolve(match, tctx).Status)

	tctx = template.NewContext(req, nil, []byte(`{"amount":10}`))
	assert.Equal(t, 201, r.resolve(match, tctx).Status)

	// An invalid expression never matches.
	broken := &RouteMatch{
		Index: 1,
		Route: &config.RouteConfig{
			Method: "POST",
			Path:   "/x",
			Rules: []config.RouteRule{
				{WhenExpr: "((", Status: 500},
				{Status: 200},
			},
		},
	}
	assert.Equal(t, 200, r.resolve(broken, tctx).Status)
}

func TestResolveRandomVariants(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method: "GET",
			Path:   "/coin",
			Responses: []config.ResponseVariant{
				{Status: 200, Response: "heads"},
				{Status: 200, Response: "tails"},
			},
		},
	}
	ctx := emptyContext(t, "/coin")

	seen := map[any]bool{}
	for range 50 {
		seen[r.resolve(match, ctx).Body] = true
	}
	assert.Subset(t, []any{"heads", "tails"}, keysOf(seen))
	assert.NotEmpty(t, seen)
}

func keysOf(m map[any]bool) []any {
	out := make([]any, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestResolveTemplatesBody(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index:  0,
		Params: map[string]string{"id": "42"},
		Route: &config.RouteConfig{
			Method:   "GET",
			Path:     "/users/:id",
			Response: map[string]any{"id": "{{params.id}}", "name": "{{faker.firstName}}"},
		},
	}

	req := httptest.NewRequest("GET", "/users/42", nil)
	tctx := template.NewContext(req, match.Params, nil)
	resp := r.resolve(match, tctx)

	body := resp.Body.(map[string]any)
	assert.Equal(t, float64(42), body["id"])
	assert.NotEmpty(t, body["name"])
	assert.NotContains(t, body["name"], "{{")
}

func TestResolveHeaderMerge(t *testing.T) {
	r := newResponder()
	match := &RouteMatch{
		Index: 0,
		Route: &config.RouteConfig{
			Method:  "GET",
			Path:    "/h",
			Headers: map[string]string{"X-Base": "1", "X-Shared": "base"},
			Sequence: []config.SequenceStep{
				{Status: 200, Headers: map[string]string{"X-Step": "2", "X-Shared": "step"}},
			},
		},
	}

	resp := r.resolve(match, emptyContext(t, "/h"))
	require.NotNil(t, resp.Headers)
	assert.Equal(t, "1", resp.Headers["X-Base"])
	assert.Equal(t, "2", resp.Headers["X-Step"])
	// Mode headers win over route headers.
	assert.Equal(t, "step", resp.Headers["X-Shared"])
}
