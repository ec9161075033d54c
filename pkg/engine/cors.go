package engine

import (
	"net/http"
	"strconv"

	"github.com/mockhive/mockhive/pkg/config"
)

// corsLayer applies CORS headers and answers preflight requests.
// An explicitly configured OPTIONS route takes precedence over the
// built-in preflight response.
type corsLayer struct {
	cfg config.CORSConfig

	// hasExplicitRoute reports whether a configured route claims the
	// method and path, in which case preflight is not short-circuited.
	hasExplicitRoute func(method, path string) bool
}

// apply sets response headers and reports whether it fully handled the
// request (preflight short-circuit).
func (c *corsLayer) apply(w http.ResponseWriter, r *http.Request) bool {
	if !c.cfg.Enabled {
		return false
	}

	h := w.Header()
	h.Set("Access-Control-Allow-Origin", c.allowOrigin(r))
	if c.cfg.AllowOrigin != "*" && c.cfg.AllowOrigin != "" {
		h.Add("Vary", "Origin")
	}

	if r.Method != http.MethodOptions {
		return false
	}
	if c.hasExplicitRoute != nil && c.hasExplicitRoute(http.MethodOptions, r.URL.Path) {
		return false
	}

	h.Set("Access-Control-Allow-Methods", c.cfg.AllowMethods)
	h.Set("Access-Control-Allow-Headers", c.cfg.AllowHeaders)
	if c.cfg.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(c.cfg.MaxAge))
	}
	w.WriteHeader(http.StatusNoContent)
	return true
}

func (c *corsLayer) allowOrigin(r *http.Request) string {
	if c.cfg.AllowOrigin != "" {
		return c.cfg.AllowOrigin
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return "*"
}
