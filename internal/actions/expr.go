package actions

import (
	"context"
	"math"
	"strconv"

	"github.com/d5/tengo/v2"
	"github.com/pkg/errors"

	"github.com/comalice/dfsm/internal/primitives"
)

// Evaluate evaluates a Tengo expression against the context and reports
// whether the result is truthy. Every context key is visible both as a
// variable (when it is a valid identifier) and under the ctx map, so
// `入力キー == "hello world"` and `ctx["入力キー"] == "hello world"` are
// equivalent. Keys that may be missing are read through ctx, where they
// evaluate to undefined.
func Evaluate(ctx context.Context, c *primitives.Context, expr string) (bool, error) {
	values := conditionValues(scriptValues(c.Snapshot()))
	params := make(map[string]any, len(values)+1)
	for k, v := range values {
		params[k] = v
	}
	params["ctx"] = values

	res, err := tengo.Eval(ctx, expr, params)
	if err != nil {
		return false, errors.Wrapf(err, "condition %q", expr)
	}
	return truthy(res), nil
}

// conditionValues turns integral floats into ints so that numbers decoded
// from JSON compare equal to integer literals.
func conditionValues(values map[string]any) map[string]any {
	for k, v := range values {
		values[k] = conditionValue(v)
	}
	return values
}

func conditionValue(v any) any {
	switch t := v.(type) {
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
	case map[string]any:
		return conditionValues(t)
	case []any:
		for i := range t {
			t[i] = conditionValue(t[i])
		}
	}
	return v
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
