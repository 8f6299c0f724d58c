// Package expression resolves dynamic parameters in node configuration.
// Templates reference prior node outputs with {{ $node['Name'].path }}
// placeholders; anything else inside {{ }} is evaluated with expr-lang.
package expression

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/goccy/go-json"

	"github.com/s6s-labs/s6s-engine/pkg/model/mexec"
)

const (
	Prefix = "{{"
	Suffix = "}}"

	prefixSize = len(Prefix)
	suffixSize = len(Suffix)

	// EnvRefPrefix marks an environment-variable reference: {{ #env:NAME }}.
	EnvRefPrefix = "#env:"
	// NodeRefPrefix marks a prior-node output reference.
	NodeRefPrefix = "$node"
)

// Env is the resolution environment for one execution: prior node outputs
// keyed by node name. Resolution is deterministic and side-effect-free for
// a fixed Env.
type Env struct {
	data  map[string]any
	funcs map[string]any
}

func NewEnv(data map[string]any) *Env {
	if data == nil {
		data = make(map[string]any)
	}
	return &Env{
		data:  data,
		funcs: builtinFuncs(),
	}
}

// FromExecution builds an Env over the successful node outputs accumulated
// so far.
func FromExecution(exec *mexec.Execution) *Env {
	if exec == nil {
		return NewEnv(nil)
	}
	return NewEnv(exec.OutputMap())
}

// ResolveValue resolves an input that may contain {{ }} placeholders.
//   - exactly one placeholder and nothing else: the raw typed value
//     (object, array, number, bool) is returned, so structured data can
//     flow between nodes
//   - placeholders mixed with literal text: each value is stringified and
//     substituted, producing a single string
//   - no placeholder syntax: the input is returned unchanged
func (e *Env) ResolveValue(raw string) (any, error) {
	if e == nil {
		return raw, nil
	}

	if isPurePlaceholder(raw) {
		inner := trimPlaceholder(raw)
		val, _, err := e.resolveRef(inner)
		return val, err
	}

	if HasVars(raw) {
		return e.Interpolate(raw)
	}

	return raw, nil
}

// ResolveConfig resolves every string-valued entry of a node config.
// Non-string values pass through unchanged.
func (e *Env) ResolveConfig(config map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(config))
	for key, value := range config {
		str, ok := value.(string)
		if !ok {
			resolved[key] = value
			continue
		}
		val, err := e.ResolveValue(str)
		if err != nil {
			return nil, err
		}
		resolved[key] = val
	}
	return resolved, nil
}

func builtinFuncs() map[string]any {
	return map[string]any{
		"uuid": helperUUID,
		"ulid": func() string { return ulid.Make().String() },
		"now":  func() string { return time.Now().UTC().Format(time.RFC3339) },
	}
}

// helperUUID generates a new UUID string. Defaults to v4.
// Usage in expressions: uuid() or uuid("v4") or uuid("v7")
func helperUUID(args ...string) (string, error) {
	version := "v4"
	if len(args) > 0 {
		version = args[0]
	}

	switch version {
	case "v4":
		return uuid.New().String(), nil
	case "v7":
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("uuid: failed to generate v7: %w", err)
		}
		return id.String(), nil
	default:
		return "", fmt.Errorf("uuid: unsupported version %q, use \"v4\" or \"v7\"", version)
	}
}

// anyToString converts a resolved value to its substitution text. Absent
// values substitute as the empty string; structured values as JSON.
func anyToString(v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case json.Number:
		return val.String()
	case float64:
		// Integers stored as float64 are common with JSON payloads.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case []byte:
		return string(val)
	case map[string]any, []any:
		if by, err := json.Marshal(val); err == nil {
			return string(by)
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
