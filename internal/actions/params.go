package actions

import (
	"fmt"
	"strconv"
)

// param returns the first present value among keys.
func param(params map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := params[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// stringParam returns the first non-empty string among keys.
func stringParam(params map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := params[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// numberParam returns the first numeric value among keys. Numeric strings are accepted.
func numberParam(params map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := params[k]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// mapParam returns the first map value among keys.
func mapParam(params map[string]any, keys ...string) (map[string]any, bool) {
	for _, k := range keys {
		switch m := params[k].(type) {
		case map[string]any:
			return m, true
		case map[any]any:
			out := make(map[string]any, len(m))
			for mk, mv := range m {
				out[fmt.Sprint(mk)] = mv
			}
			return out, true
		}
	}
	return nil, false
}
