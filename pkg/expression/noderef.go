package expression

import "strings"

// parseNodeRef splits a $node reference into the node name and the trailing
// path. Accepted forms:
//
//	$node['Name'].a.b[0]
//	$node["Name"].a.b[0]
//	$node.Name.a.b[0]
//
// The returned path keeps its leading '.' or '[' and may be empty.
func parseNodeRef(ref string) (name string, path string, ok bool) {
	if !strings.HasPrefix(ref, NodeRefPrefix) {
		return "", "", false
	}
	rest := ref[len(NodeRefPrefix):]
	if rest == "" {
		return "", "", false
	}

	switch rest[0] {
	case '[':
		inner := rest[1:]
		if inner == "" {
			return "", "", false
		}
		quote := inner[0]
		if quote != '\'' && quote != '"' {
			return "", "", false
		}
		end := strings.IndexByte(inner[1:], quote)
		if end < 0 {
			return "", "", false
		}
		name = inner[1 : 1+end]
		rest = inner[1+end+1:]
		if !strings.HasPrefix(rest, "]") {
			return "", "", false
		}
		return name, rest[1:], name != ""
	case '.':
		rest = rest[1:]
		end := strings.IndexAny(rest, ".[")
		if end < 0 {
			return rest, "", rest != ""
		}
		return rest[:end], rest[end:], rest[:end] != ""
	default:
		return "", "", false
	}
}

// resolveNodeRef looks up a node output and walks the optional path into
// it. A reference to a node with no recorded output, or a path that walks
// off the data, resolves to nil rather than an error so downstream nodes
// can treat absent data as empty.
func (e *Env) resolveNodeRef(name, path string) any {
	output, found := e.data[name]
	if !found {
		return nil
	}
	if path == "" {
		return output
	}
	val, ok := walkPath(output, path)
	if !ok {
		return nil
	}
	return val
}
