package incremental

import (
	executor "github.com/unfoldgql/unfold/internal/executor"
)

// spliceData deep-merges an object patch into the raw tree at path. Existing
// keys are overwritten (object-wise, recursively), new keys are added.
func spliceData(root map[string]any, path executor.Path, patch map[string]any) error {
	target, err := navigate(root, path)
	if err != nil {
		return err
	}
	m, ok := target.(map[string]any)
	if !ok {
		return executor.Errorf(executor.KindProtocol, path,
			"chunk path %s does not address an object", path)
	}
	deepMerge(m, patch)
	return nil
}

// spliceNull nulls the position at path, replacing whatever earlier chunks
// delivered there.
func spliceNull(root map[string]any, path executor.Path) error {
	if len(path) == 0 {
		return executor.Errorf(executor.KindProtocol, path,
			"null patch must address a position below the data root")
	}
	container, err := navigate(root, path[:len(path)-1])
	if err != nil {
		return err
	}
	switch k := path[len(path)-1].(type) {
	case string:
		m, ok := container.(map[string]any)
		if !ok {
			return executor.Errorf(executor.KindProtocol, path,
				"chunk path segment %q does not address an object", k)
		}
		m[k] = nil
	case int:
		list, ok := container.([]any)
		if !ok || k < 0 || k >= len(list) {
			return executor.Errorf(executor.KindProtocol, path,
				"chunk path index %d does not address a list element", k)
		}
		list[k] = nil
	default:
		return executor.Errorf(executor.KindProtocol, path,
			"invalid chunk path segment %v", path[len(path)-1])
	}
	return nil
}

// spliceItems appends items at successive indices starting at the path's tail
// index. The stream protocol delivers list items contiguously and in order;
// a gapped or out-of-order index is a fatal protocol violation rather than a
// silently sparse array.
func spliceItems(root map[string]any, path executor.Path, items []any) error {
	if len(path) < 2 {
		return executor.Errorf(executor.KindProtocol, path,
			"items chunk path %s must address a list element", path)
	}
	start, ok := path[len(path)-1].(int)
	if !ok {
		return executor.Errorf(executor.KindProtocol, path,
			"items chunk path %s must end in a list index", path)
	}

	// Growing a slice reassigns it, so resolve the list's container and store
	// through the final key.
	container, err := navigate(root, path[:len(path)-2])
	if err != nil {
		return err
	}
	key := path[len(path)-2]

	for i, item := range items {
		if err := storeListItem(container, key, start+i, item); err != nil {
			return err
		}
	}
	return nil
}

func storeListItem(container any, key executor.PathElement, idx int, item any) error {
	switch k := key.(type) {
	case string:
		m, ok := container.(map[string]any)
		if !ok {
			return executor.Errorf(executor.KindProtocol, nil, "chunk path segment %q does not address an object", k)
		}
		list, ok := m[k].([]any)
		if !ok && m[k] != nil {
			return executor.Errorf(executor.KindProtocol, nil, "chunk path segment %q does not address a list", k)
		}
		if idx != len(list) {
			return executor.Errorf(executor.KindProtocol, nil,
				"items index %d is out of order: list %q has %d elements", idx, k, len(list))
		}
		m[k] = append(list, item)
		return nil
	case int:
		list, ok := container.([]any)
		if !ok || k >= len(list) {
			return executor.Errorf(executor.KindProtocol, nil, "chunk path index %d does not address a list element", k)
		}
		inner, ok := list[k].([]any)
		if !ok && list[k] != nil {
			return executor.Errorf(executor.KindProtocol, nil, "chunk path index %d does not address a list", k)
		}
		if idx != len(inner) {
			return executor.Errorf(executor.KindProtocol, nil,
				"items index %d is out of order: list has %d elements", idx, len(inner))
		}
		list[k] = append(inner, item)
		return nil
	default:
		return executor.Errorf(executor.KindProtocol, nil, "invalid chunk path segment %v", key)
	}
}

// navigate walks path from root. Chunk paths are only meaningful relative to
// the tree shape established by earlier chunks, so a segment that does not
// resolve is a protocol violation.
func navigate(root map[string]any, path executor.Path) (any, error) {
	var cur any = root
	for i, elem := range path {
		switch e := elem.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, executor.Errorf(executor.KindProtocol, path[:i+1],
					"chunk path segment %q does not address an object", e)
			}
			next, exists := m[e]
			if !exists {
				return nil, executor.Errorf(executor.KindProtocol, path[:i+1],
					"chunk path segment %q addresses a position earlier chunks never delivered", e)
			}
			cur = next
		case int:
			list, ok := cur.([]any)
			if !ok {
				return nil, executor.Errorf(executor.KindProtocol, path[:i+1],
					"chunk path index %d does not address a list", e)
			}
			if e < 0 || e >= len(list) {
				return nil, executor.Errorf(executor.KindProtocol, path[:i+1],
					"chunk path index %d is out of range", e)
			}
			cur = list[e]
		default:
			return nil, executor.Errorf(executor.KindProtocol, path[:i+1],
				"invalid chunk path segment %v", elem)
		}
	}
	return cur, nil
}

// deepMerge merges src into dst object-wise: nested maps merge recursively,
// everything else overwrites.
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := v.(map[string]any); ok {
			if dv, ok := dst[k].(map[string]any); ok {
				deepMerge(dv, sv)
				continue
			}
		}
		dst[k] = v
	}
}
