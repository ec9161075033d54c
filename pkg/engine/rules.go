package engine

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ohler55/ojg/jp"

	"github.com/mockhive/mockhive/pkg/config"
	"github.com/mockhive/mockhive/pkg/template"
)

// ruleEvaluator decides whether a rule's conditions hold for a request.
// Expression programs are compiled once and cached per source string.
type ruleEvaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func newRuleEvaluator() *ruleEvaluator {
	return &ruleEvaluator{programs: make(map[string]*vm.Program)}
}

// matches reports whether every condition of the rule holds. A rule with
// no conditions always matches. Invalid paths or expressions never match.
func (e *ruleEvaluator) matches(rule *config.RouteRule, tctx *template.Context) bool {
	if len(rule.When) == 0 && rule.WhenExpr == "" {
		return true
	}

	var env map[string]any
	for path, expected := range rule.When {
		var actual any
		var found bool

		if strings.HasPrefix(path, "$") {
			if env == nil {
				env = tctx.Env()
			}
			actual, found = evalJSONPath(path, env)
		} else {
			actual, found = tctx.Lookup(path)
		}
		if !found || !valuesEqual(actual, expected) {
			return false
		}
	}

	if rule.WhenExpr != "" {
		program, err := e.compile(rule.WhenExpr)
		if err != nil {
			return false
		}
		if env == nil {
			env = tctx.Env()
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return false
		}
		result, ok := out.(bool)
		if !ok || !result {
			return false
		}
	}
	return true
}

// compile caches programs with double-checked locking so concurrent
// requests against the same rule share one compilation.
func (e *ruleEvaluator) compile(src string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[src]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if program, ok := e.programs[src]; ok {
		return program, nil
	}

	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	e.programs[src] = program
	return program, nil
}

// evalJSONPath resolves a $-prefixed path against the request context.
func evalJSONPath(path string, env map[string]any) (any, bool) {
	parsed, err := jp.ParseString(path)
	if err != nil {
		return nil, false
	}
	results := parsed.Get(env)
	if len(results) == 0 {
		return nil, false
	}
	return results[0], true
}

// valuesEqual compares a context value with a configured expectation,
// coercing JSON numeric representations.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}
	if reflect.DeepEqual(actual, expected) {
		return true
	}

	actualNum, actualIsNum := toFloat64(actual)
	expectedNum, expectedIsNum := toFloat64(expected)
	if actualIsNum && expectedIsNum {
		return actualNum == expectedNum
	}

	// Context values from path/query/header lookups are strings; let a
	// string "7" match a configured number 7 and vice versa.
	if actualStr, ok := actual.(string); ok && expectedIsNum {
		return actualStr == formatNumber(expectedNum)
	}
	if expectedStr, ok := expected.(string); ok && actualIsNum {
		return expectedStr == formatNumber(actualNum)
	}

	actualBool, aOK := actual.(bool)
	expectedBool, bOK := expected.(bool)
	if aOK && bOK {
		return actualBool == expectedBool
	}
	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
