package stage

import "fmt"

// Input access helpers. Unserialized stage input arrives as a generic map;
// these helpers extract typed values while tolerating the any-typed
// containers the schema layer produces.

// StringValue extracts a required string field.
func StringValue(input map[string]any, key string) (string, error) {
	raw, ok := input[key]
	if !ok {
		return "", fmt.Errorf("missing required input field: %s", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("input field %s is not a string", key)
	}
	if value == "" {
		return "", fmt.Errorf("input field %s is empty", key)
	}
	return value, nil
}

// OptionalStringValue extracts an optional string field, returning the
// fallback when absent.
func OptionalStringValue(input map[string]any, key string, fallback string) (string, error) {
	if _, ok := input[key]; !ok {
		return fallback, nil
	}
	return StringValue(input, key)
}

// StringListValue extracts a list-of-strings field. Absent fields yield a
// nil slice.
func StringListValue(input map[string]any, key string) ([]string, error) {
	raw, ok := input[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch list := raw.(type) {
	case []string:
		return list, nil
	case []any:
		result := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("input field %s item %d is not a string", key, i)
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, fmt.Errorf("input field %s is not a list", key)
	}
}

// StringMapValue extracts a string-to-string map field. Absent fields yield
// a nil map.
func StringMapValue(input map[string]any, key string) (map[string]string, error) {
	raw, ok := input[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch m := raw.(type) {
	case map[string]string:
		return m, nil
	case map[string]any:
		result := make(map[string]string, len(m))
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("input field %s entry %s is not a string", key, k)
			}
			result[k] = s
		}
		return result, nil
	case map[any]any:
		result := make(map[string]string, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("input field %s has a non-string key", key)
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("input field %s entry %s is not a string", key, ks)
			}
			result[ks] = s
		}
		return result, nil
	default:
		return nil, fmt.Errorf("input field %s is not a map", key)
	}
}

// IntValue extracts an optional integer field, returning the fallback when
// absent.
func IntValue(input map[string]any, key string, fallback int64) (int64, error) {
	raw, ok := input[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("input field %s is not an integer", key)
	}
}

// BoolValue extracts an optional boolean field, returning the fallback when
// absent.
func BoolValue(input map[string]any, key string, fallback bool) (bool, error) {
	raw, ok := input[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	value, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("input field %s is not a boolean", key)
	}
	return value, nil
}
