// Package filter compiles client-side filter expressions and evaluates them
// against the untyped records returned by the API. Expressions use the expr
// language; record fields are referenced by their wire names (city,
// countryCode, title, ...) and resolve to nil when a record lacks them.
package filter

import (
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/spf13/cast"
)

// Filter is a compiled boolean predicate over one record.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile parses and compiles a filter expression
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	// Compile with static environment for validation
	program, err := expr.Compile(expression,
		expr.Env(helperFunctions()),
		expr.AllowUndefinedVariables(), // record fields vary per endpoint
		expr.AsBool(),                  // ensure boolean result
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	return &Filter{
		expression: expression,
		program:    program,
	}, nil
}

// Match evaluates the filter against a record. A record whose evaluation
// fails (say, a helper applied to a field of the wrong type) does not match.
func (f *Filter) Match(record map[string]any) bool {
	env := helperFunctions()
	for key, value := range record {
		env[key] = value
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false
	}

	// Result is guaranteed to be bool due to AsBool() option during compilation
	return result.(bool)
}

// Expression returns the original expression
func (f *Filter) Expression() string {
	return f.expression
}

// helperFunctions builds the static environment available to every expression
func helperFunctions() map[string]any {
	env := make(map[string]any, 16)

	// Date helpers
	env["now"] = time.Now
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := time.Parse("2006-01-02", dateStr)
		return t
	}

	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper

	// Coercion helpers for untyped record fields
	env["num"] = func(v any) float64 {
		return cast.ToFloat64(v)
	}
	env["str"] = func(v any) string {
		return cast.ToString(v)
	}

	return env
}
