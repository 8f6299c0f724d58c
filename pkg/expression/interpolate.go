package expression

import (
	"os"
	"strings"
)

// HasVars reports whether the string contains at least one {{ }} placeholder.
func HasVars(s string) bool {
	start := strings.Index(s, Prefix)
	if start < 0 {
		return false
	}
	return strings.Index(s[start+prefixSize:], Suffix) >= 0
}

// isPurePlaceholder reports whether the trimmed string is exactly one
// placeholder with no surrounding literal text.
func isPurePlaceholder(s string) bool {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, Prefix) || !strings.HasSuffix(trimmed, Suffix) {
		return false
	}
	inner := trimmed[prefixSize : len(trimmed)-suffixSize]
	// A second opener means there are multiple placeholders.
	return !strings.Contains(inner, Suffix) && !strings.Contains(inner, Prefix)
}

func trimPlaceholder(s string) string {
	trimmed := strings.TrimSpace(s)
	return strings.TrimSpace(trimmed[prefixSize : len(trimmed)-suffixSize])
}

// Interpolate substitutes every {{ }} placeholder in the template and
// returns the resulting string. Values are stringified with anyToString;
// absent node references substitute as the empty string.
func (e *Env) Interpolate(template string) (string, error) {
	var sb strings.Builder
	rest := template
	for {
		start := strings.Index(rest, Prefix)
		if start < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		end := strings.Index(rest[start+prefixSize:], Suffix)
		if end < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}

		sb.WriteString(rest[:start])
		ref := strings.TrimSpace(rest[start+prefixSize : start+prefixSize+end])
		val, _, err := e.resolveRef(ref)
		if err != nil {
			return "", err
		}
		sb.WriteString(anyToString(val))
		rest = rest[start+prefixSize+end+suffixSize:]
	}
}

// resolveRef evaluates the content of one placeholder. The second return is
// the reference kind, used by callers that log what was resolved.
func (e *Env) resolveRef(ref string) (any, string, error) {
	switch {
	case ref == "":
		return nil, "empty", nil
	case strings.HasPrefix(ref, EnvRefPrefix):
		name := strings.TrimSpace(ref[len(EnvRefPrefix):])
		val, found := os.LookupEnv(name)
		if !found {
			return nil, "env", &EnvReferenceError{Name: name}
		}
		return val, "env", nil
	case strings.HasPrefix(ref, NodeRefPrefix):
		name, path, ok := parseNodeRef(ref)
		if ok {
			return e.resolveNodeRef(name, path), "node", nil
		}
		// Malformed $node syntax falls through to the evaluator, which
		// will report the parse failure with its own diagnostics.
		fallthrough
	default:
		val, err := e.eval(ref)
		if err != nil {
			return nil, "expr", &ExpressionError{Expression: ref, Err: err}
		}
		return val, "expr", nil
	}
}
