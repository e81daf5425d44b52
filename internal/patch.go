package internal

import (
	"encoding/json"
	"strconv"
	"strings"
)

// applyPatch decodes base, walks path (a dot/bracket pointer such as
// "address.city" or "tags[0]"), sets the final segment to value, and
// re-encodes the result. This is the one component with no grounding
// in any retrieval-pack library: none of the examples vendor a
// JSON-pointer/patch package, and the path grammar here (bracket
// array indices mixed with dot object keys) is spec-defined rather
// than RFC 6901, so a hand-rolled walker over encoding/json's generic
// decode is the only fit.
func applyPatch(base json.RawMessage, path string, value interface{}) (json.RawMessage, error) {
	root, err := decodeOrEmptyObject(base)
	if err != nil {
		return nil, err
	}

	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return json.Marshal(value)
	}

	newRoot, err := setValue(root, segments, value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(newRoot)
}

// applyErase decodes base, removes the value at path, and re-encodes
// the result.
func applyErase(base json.RawMessage, path string) (json.RawMessage, error) {
	root, err := decodeOrEmptyObject(base)
	if err != nil {
		return nil, err
	}

	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return json.Marshal(map[string]interface{}{})
	}

	newRoot, err := deleteValue(root, segments)
	if err != nil {
		return nil, err
	}
	return json.Marshal(newRoot)
}

func decodeOrEmptyObject(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, ErrInvalidPatchPath
	}
	return v, nil
}

type pathSegment struct {
	key     string
	index   int
	isIndex bool
}

// splitPath parses "a.b[2].c" into [{a} {b} {2,isIndex} {c}].
func splitPath(path string) ([]pathSegment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	var segments []pathSegment
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			segments = append(segments, pathSegment{key: cur.String()})
			cur.Reset()
		}
	}

	i := 0
	for i < len(path) {
		c := path[i]
		switch c {
		case '.':
			flush()
			i++
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, ErrInvalidPatchPath
			}
			idx, err := strconv.Atoi(path[i+1 : i+end])
			if err != nil {
				return nil, ErrInvalidPatchPath
			}
			segments = append(segments, pathSegment{index: idx, isIndex: true})
			i += end + 1
		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()

	if len(segments) == 0 {
		return nil, ErrInvalidPatchPath
	}
	return segments, nil
}

// setValue returns container with the value at segments replaced by
// value, creating missing intermediate maps/slices along the way.
// Arrays are grown with nil padding when index is past the end.
func setValue(container interface{}, segments []pathSegment, value interface{}) (interface{}, error) {
	seg := segments[0]
	rest := segments[1:]

	if seg.isIndex {
		arr, ok := container.([]interface{})
		if !ok {
			if container != nil {
				return nil, ErrInvalidPatchPath
			}
			arr = []interface{}{}
		}
		if seg.index < 0 {
			return nil, ErrInvalidPatchPath
		}
		for seg.index >= len(arr) {
			arr = append(arr, nil)
		}
		if len(rest) == 0 {
			arr[seg.index] = value
			return arr, nil
		}
		child, err := setValue(arr[seg.index], rest, value)
		if err != nil {
			return nil, err
		}
		arr[seg.index] = child
		return arr, nil
	}

	obj, ok := container.(map[string]interface{})
	if !ok {
		if container != nil {
			return nil, ErrInvalidPatchPath
		}
		obj = map[string]interface{}{}
	}
	if len(rest) == 0 {
		obj[seg.key] = value
		return obj, nil
	}
	child, err := setValue(obj[seg.key], rest, value)
	if err != nil {
		return nil, err
	}
	obj[seg.key] = child
	return obj, nil
}

// deleteValue returns container with the value named by the final
// segment of segments removed. Every intermediate segment must already
// resolve to an existing map/slice entry.
func deleteValue(container interface{}, segments []pathSegment) (interface{}, error) {
	seg := segments[0]
	rest := segments[1:]

	if seg.isIndex {
		arr, ok := container.([]interface{})
		if !ok || seg.index < 0 || seg.index >= len(arr) {
			return nil, ErrInvalidPatchPath
		}
		if len(rest) == 0 {
			return append(arr[:seg.index:seg.index], arr[seg.index+1:]...), nil
		}
		child, err := deleteValue(arr[seg.index], rest)
		if err != nil {
			return nil, err
		}
		arr[seg.index] = child
		return arr, nil
	}

	obj, ok := container.(map[string]interface{})
	if !ok {
		return nil, ErrInvalidPatchPath
	}
	if len(rest) == 0 {
		if _, exists := obj[seg.key]; !exists {
			return nil, ErrInvalidPatchPath
		}
		delete(obj, seg.key)
		return obj, nil
	}
	child, exists := obj[seg.key]
	if !exists {
		return nil, ErrInvalidPatchPath
	}
	newChild, err := deleteValue(child, rest)
	if err != nil {
		return nil, err
	}
	obj[seg.key] = newChild
	return obj, nil
}
