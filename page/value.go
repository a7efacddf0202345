package page

import (
	"fmt"
	"math"
	"strconv"
)


// Values are decoded json: nil, bool, float64, string, []any, map[string]any.
// Values held by a store are never mutated. Path updates copy each container along the path
// and share everything else with the previous value.


// a path key is a `string` map key or an `int` list index
type Path = []any

func getIn(value any, path Path) (any, bool) {
	for _, key := range path {
		switch v := value.(type) {
		case map[string]any:
			next, ok := v[mapKey(key)]
			if !ok {
				return nil, false
			}
			value = next
		case []any:
			i, ok := key.(int)
			if !ok || i < 0 || len(v) <= i {
				return nil, false
			}
			value = v[i]
		default:
			return nil, false
		}
	}
	return value, true
}

// `update` receives the current value at the path and whether it exists.
// Missing map containers along the path are created.
func updateIn(value any, path Path, update func(existing any, ok bool) (any, error)) (any, error) {
	return updateInExists(value, true, path, update)
}

func setIn(value any, path Path, next any) (any, error) {
	return updateIn(value, path, func(existing any, ok bool) (any, error) {
		return next, nil
	})
}

func updateInExists(value any, exists bool, path Path, update func(existing any, ok bool) (any, error)) (any, error) {
	if len(path) == 0 {
		return update(value, exists)
	}
	key := path[0]
	if !exists || value == nil {
		if _, ok := key.(int); ok {
			value = []any{}
		} else {
			value = map[string]any{}
		}
	}
	switch v := value.(type) {
	case map[string]any:
		k := mapKey(key)
		existing, ok := v[k]
		next, err := updateInExists(existing, ok, path[1:], update)
		if err != nil {
			return nil, err
		}
		copied := cloneMap(v)
		copied[k] = next
		return copied, nil
	case []any:
		i, ok := key.(int)
		if !ok {
			return nil, fmt.Errorf("%w: list key %v", ErrPathNotTraversable, key)
		}
		// setting at the length appends
		if i < 0 || len(v) < i {
			return nil, fmt.Errorf("%w: index %d out of range [0, %d]", ErrPathNotTraversable, i, len(v))
		}
		var existing any
		existingOk := i < len(v)
		if existingOk {
			existing = v[i]
		}
		next, err := updateInExists(existing, existingOk, path[1:], update)
		if err != nil {
			return nil, err
		}
		copied := make([]any, len(v), len(v)+1)
		copy(copied, v)
		if i == len(v) {
			copied = append(copied, next)
		} else {
			copied[i] = next
		}
		return copied, nil
	default:
		return nil, fmt.Errorf("%w: %T at key %v", ErrPathNotTraversable, value, key)
	}
}

func mapKey(key any) string {
	switch v := key.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// normalizes a decoded json path. Integral numbers become list indexes.
func normalizePath(path []any) (Path, error) {
	normalized := make(Path, 0, len(path))
	for _, key := range path {
		switch v := key.(type) {
		case string:
			normalized = append(normalized, v)
		case int:
			normalized = append(normalized, v)
		case float64:
			if v != math.Trunc(v) || v < 0 {
				return nil, fmt.Errorf("%w: path key %v", ErrInvalidFrame, v)
			}
			normalized = append(normalized, int(v))
		default:
			return nil, fmt.Errorf("%w: path key %T", ErrInvalidFrame, key)
		}
	}
	return normalized, nil
}

func cloneMap(m map[string]any) map[string]any {
	copied := make(map[string]any, len(m)+1)
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

func cloneStringMap(m map[string]string) map[string]string {
	copied := make(map[string]string, len(m)+1)
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
