package template

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// placeholderRegex matches {{variable}} tokens with optional whitespace.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

var numericLiteralRegex = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// Resolve walks a decoded JSON value and substitutes placeholders in every
// string leaf and every map key. Non-string leaves pass through unchanged.
func Resolve(value any, ctx *Context) any {
	switch v := value.(type) {
	case string:
		return ResolveString(v, ctx)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			resolvedKey := key
			if rk, ok := ResolveString(key, ctx).(string); ok {
				resolvedKey = rk
			}
			out[resolvedKey] = Resolve(val, ctx)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Resolve(item, ctx)
		}
		return out
	default:
		return value
	}
}

// ResolveString substitutes placeholders in a single string. When the
// whole string was a single placeholder and substitution left exactly a
// boolean or numeric literal, the typed value is returned instead of the
// string. Strings without placeholders are returned untouched, and unknown
// placeholders stay verbatim.
func ResolveString(s string, ctx *Context) any {
	if !strings.Contains(s, "{{") {
		return s
	}

	substituted := false
	result := placeholderRegex.ReplaceAllStringFunc(s, func(match string) string {
		token := strings.TrimSpace(placeholderRegex.FindStringSubmatch(match)[1])
		if replacement, ok := evaluate(token, ctx); ok {
			substituted = true
			return replacement
		}
		return match
	})

	// Mixed content (literal text or multiple tokens) always stays a string.
	if !substituted || placeholderRegex.FindString(s) != s {
		return result
	}
	return coerceLiteral(result)
}

// evaluate resolves a single placeholder token. The bool reports whether
// the token was recognized; unrecognized tokens are left in place.
func evaluate(token string, ctx *Context) (string, bool) {
	switch token {
	case "now":
		return time.Now().UTC().Format(time.RFC3339), true
	case "uuid":
		return uuid.NewString(), true
	case "timestamp":
		return strconv.FormatInt(time.Now().Unix(), 10), true
	}

	if name, ok := strings.CutPrefix(token, "faker."); ok {
		return resolveFaker(name)
	}

	if strings.HasPrefix(token, "random.") {
		return evaluateRandom(token)
	}

	if ctx != nil {
		if value, ok := ctx.Lookup(token); ok {
			return formatValue(value), true
		}
	}
	return "", false
}

// evaluateRandom handles random.int(min, max) and random.float(min, max).
func evaluateRandom(token string) (string, bool) {
	name, args := parseCall(token)
	switch name {
	case "random.int":
		lo, hi := 0, 100
		if len(args) == 2 {
			a, errA := strconv.Atoi(args[0])
			b, errB := strconv.Atoi(args[1])
			if errA == nil && errB == nil && b >= a {
				lo, hi = a, b
			}
		}
		return strconv.Itoa(lo + rand.IntN(hi-lo+1)), true
	case "random.float":
		lo, hi := 0.0, 1.0
		if len(args) == 2 {
			a, errA := strconv.ParseFloat(args[0], 64)
			b, errB := strconv.ParseFloat(args[1], 64)
			if errA == nil && errB == nil && b >= a {
				lo, hi = a, b
			}
		}
		return strconv.FormatFloat(lo+rand.Float64()*(hi-lo), 'f', 2, 64), true
	}
	return "", false
}

// parseCall splits "name(a, b)" into the name and trimmed arguments.
func parseCall(token string) (string, []string) {
	open := strings.Index(token, "(")
	if open < 0 || !strings.HasSuffix(token, ")") {
		return token, nil
	}
	name := token[:open]
	inner := token[open+1 : len(token)-1]
	if strings.TrimSpace(inner) == "" {
		return name, nil
	}
	parts := strings.Split(inner, ",")
	args := make([]string, len(parts))
	for i, p := range parts {
		args[i] = strings.TrimSpace(p)
	}
	return name, args
}

// coerceLiteral converts a fully-substituted string to a typed JSON value
// when it is exactly a boolean or numeric literal.
func coerceLiteral(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if numericLiteralRegex.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

// formatValue renders a context value for interpolation into a string.
func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return "null"
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}
