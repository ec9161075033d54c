package template

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Context holds the request data available to placeholders.
type Context struct {
	// Params are path parameters bound by :name route segments.
	Params map[string]string
	// Query holds the first value of each query string parameter.
	Query map[string]string
	// Body is the parsed JSON request body, or nil when absent or malformed.
	Body any
	// Headers holds the first value of each request header, canonical names.
	Headers map[string]string
}

// NewContext builds a template context from an HTTP request.
// A body that is not valid JSON is treated as absent.
func NewContext(r *http.Request, params map[string]string, body []byte) *Context {
	ctx := &Context{
		Params:  params,
		Query:   make(map[string]string),
		Headers: make(map[string]string),
	}
	if ctx.Params == nil {
		ctx.Params = make(map[string]string)
	}

	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			ctx.Query[key] = vals[0]
		}
	}
	for key, vals := range r.Header {
		if len(vals) > 0 {
			ctx.Headers[http.CanonicalHeaderKey(key)] = vals[0]
		}
	}

	if len(body) > 0 {
		var parsed any
		if err := json.Unmarshal(body, &parsed); err == nil {
			ctx.Body = parsed
		}
	}
	return ctx
}

// Lookup resolves a dotted path like "params.id" or "body.user.name"
// against the context. The bool reports whether the path resolved.
func (c *Context) Lookup(path string) (any, bool) {
	root, rest, _ := strings.Cut(path, ".")
	switch root {
	case "params":
		v, ok := c.Params[rest]
		return v, ok
	case "query":
		v, ok := c.Query[rest]
		return v, ok
	case "headers":
		v, ok := c.Headers[http.CanonicalHeaderKey(rest)]
		return v, ok
	case "body":
		if rest == "" {
			return c.Body, c.Body != nil
		}
		return walkBody(c.Body, strings.Split(rest, "."))
	default:
		return nil, false
	}
}

// Env returns the context as a plain map, for expression evaluation
// and JSONPath queries.
func (c *Context) Env() map[string]any {
	params := make(map[string]any, len(c.Params))
	for k, v := range c.Params {
		params[k] = v
	}
	query := make(map[string]any, len(c.Query))
	for k, v := range c.Query {
		query[k] = v
	}
	headers := make(map[string]any, len(c.Headers))
	for k, v := range c.Headers {
		headers[k] = v
	}
	return map[string]any{
		"params":  params,
		"query":   query,
		"body":    c.Body,
		"headers": headers,
	}
}

func walkBody(node any, segments []string) (any, bool) {
	cur := node
	for _, seg := range segments {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}
