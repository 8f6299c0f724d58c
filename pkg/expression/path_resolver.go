package expression

import "strconv"

type pathSegment struct {
	key     string
	index   int
	isIndex bool
}

// parsePathSegments tokenizes a path like ".body.items[1].id" or
// "['body'].items[1]" into key and index segments.
func parsePathSegments(path string) ([]pathSegment, bool) {
	var segments []pathSegment
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			i++
			start := i
			for i < len(path) && path[i] != '.' && path[i] != '[' {
				i++
			}
			if i == start {
				return nil, false
			}
			segments = append(segments, pathSegment{key: path[start:i]})
		case '[':
			i++
			if i >= len(path) {
				return nil, false
			}
			if path[i] == '\'' || path[i] == '"' {
				quote := path[i]
				i++
				start := i
				for i < len(path) && path[i] != quote {
					i++
				}
				if i >= len(path) || i == start {
					return nil, false
				}
				key := path[start:i]
				i++
				if i >= len(path) || path[i] != ']' {
					return nil, false
				}
				i++
				segments = append(segments, pathSegment{key: key})
				continue
			}
			start := i
			for i < len(path) && path[i] != ']' {
				i++
			}
			if i >= len(path) || i == start {
				return nil, false
			}
			idx, err := strconv.Atoi(path[start:i])
			if err != nil {
				return nil, false
			}
			i++
			segments = append(segments, pathSegment{index: idx, isIndex: true})
		default:
			return nil, false
		}
	}
	return segments, true
}

// walkPath descends into structured data following the parsed segments.
// The second return is false when any step cannot be taken.
func walkPath(data any, path string) (any, bool) {
	segments, ok := parsePathSegments(path)
	if !ok {
		return nil, false
	}

	current := data
	for _, seg := range segments {
		if seg.isIndex {
			arr, ok := current.([]any)
			if !ok || seg.index < 0 || seg.index >= len(arr) {
				return nil, false
			}
			current = arr[seg.index]
			continue
		}

		switch m := current.(type) {
		case map[string]any:
			val, found := m[seg.key]
			if !found {
				return nil, false
			}
			current = val
		case map[string]string:
			val, found := m[seg.key]
			if !found {
				return nil, false
			}
			current = val
		default:
			return nil, false
		}
	}
	return current, true
}

// ResolvePath resolves a dotted/indexed path against a data map. The path
// is given without a leading dot: "body.items[1]".
func ResolvePath(data map[string]any, path string) (any, bool) {
	if path == "" {
		return data, true
	}
	return walkPath(data, "."+path)
}
