package tools

import (
	"fmt"
	"math"
)

// Argument decoding for the JSON bags models send. Numbers arrive as
// float64; integer arguments reject fractional values instead of
// truncating them.

func strArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: expected string, got %T", name, v)
	}
	return s, nil
}

func optStrArg(args map[string]any, name, fallback string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: expected string, got %T", name, v)
	}
	return s, nil
}

func floatArg(args map[string]any, name string) (float64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing required argument %q", name)
	}
	return toFloat(name, v)
}

func optFloatArg(args map[string]any, name string, fallback float64) (float64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return fallback, nil
	}
	return toFloat(name, v)
}

func intArg(args map[string]any, name string) (int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, fmt.Errorf("missing required argument %q", name)
	}
	return toInt(name, v)
}

func optIntArg(args map[string]any, name string, fallback int64) (int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return fallback, nil
	}
	return toInt(name, v)
}

// optIntPtrArg returns nil when the argument is absent, for nullable ids.
func optIntPtrArg(args map[string]any, name string) (*int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := toInt(name, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func boolArg(args map[string]any, name string) (bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return false, fmt.Errorf("missing required argument %q", name)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("argument %q: expected boolean, got %T", name, v)
	}
	return b, nil
}

func optBoolArg(args map[string]any, name string, fallback bool) (bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return fallback, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("argument %q: expected boolean, got %T", name, v)
	}
	return b, nil
}

func optStrSliceArg(args map[string]any, name string) ([]string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("argument %q: expected array, got %T", name, v)
	}
	out := make([]string, 0, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q[%d]: expected string, got %T", name, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func optIntSliceArg(args map[string]any, name string) ([]int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]int64); ok {
			return typed, nil
		}
		return nil, fmt.Errorf("argument %q: expected array, got %T", name, v)
	}
	out := make([]int64, 0, len(raw))
	for i, item := range raw {
		n, err := toInt(fmt.Sprintf("%s[%d]", name, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func toFloat(name string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("argument %q: expected number, got %T", name, v)
	}
}

func toInt(name string, v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("argument %q: expected integer, got %v", name, n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("argument %q: expected integer, got %T", name, v)
	}
}
