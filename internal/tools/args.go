package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// StringArg returns the named argument as a trimmed string ("" when absent).
func StringArg(args map[string]any, name string) string {
	if value, ok := args[name].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// IntArg returns the named argument as an int. JSON numbers arrive as
// float64; integral strings are accepted too.
func IntArg(args map[string]any, name string) (int, bool, error) {
	raw, ok := args[name]
	if !ok {
		return 0, false, nil
	}
	switch value := raw.(type) {
	case float64:
		return int(value), true, nil
	case int:
		return value, true, nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false, fmt.Errorf("argument %q is not an integer", name)
		}
		return parsed, true, nil
	default:
		return 0, false, fmt.Errorf("argument %q is not an integer", name)
	}
}

// StringSliceArg returns the named argument as a string slice.
func StringSliceArg(args map[string]any, name string) ([]string, error) {
	raw, ok := args[name]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q is not an array", name)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		value, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q contains a non-string element", name)
		}
		out = append(out, strings.TrimSpace(value))
	}
	return out, nil
}

// ActivityIDArg parses the activity_id argument, which the schema declares as
// a string holding a numeric Strava identifier.
func ActivityIDArg(args map[string]any) (int64, error) {
	raw := StringArg(args, "activity_id")
	if raw == "" {
		if value, ok, err := IntArg(args, "activity_id"); err == nil && ok {
			return int64(value), nil
		}
		return 0, fmt.Errorf("activity_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("activity_id %q is not numeric", raw)
	}
	return id, nil
}
