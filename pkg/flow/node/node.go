// Package node defines the contract every workflow node executor
// implements and the request/result types the runner passes through.
package node

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
	"github.com/s6s-labs/s6s-engine/pkg/logconsole"
	"github.com/s6s-labs/s6s-engine/pkg/model/mexec"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

// Executor runs one node kind. Implementations must be safe for
// concurrent use across executions.
type Executor interface {
	Kind() mflow.NodeKind
	Execute(ctx context.Context, n mflow.Node, req *RunRequest) RunResult
}

// RunRequest carries everything a node needs for one invocation. Config is
// the node configuration with all placeholders already resolved.
// Credentials maps credential names to decrypted secrets; the runner zeroes
// the map after the node returns.
type RunRequest struct {
	Execution   *mexec.Execution
	Config      map[string]any
	Credentials map[string]string
	Logger      *slog.Logger
	LogChan     chan logconsole.LogMessage
}

// RunResult is the outcome of one node invocation. A nil Err with any
// Output (including nil) is success; Output is still recorded on failure
// when the node produced partial data worth surfacing.
type RunResult struct {
	Output any
	Err    error
}

func OkResult(output any) RunResult {
	return RunResult{Output: output}
}

func ErrResult(err error) RunResult {
	return RunResult{Err: err}
}

// ConfigurationError marks a node whose config is unusable after
// resolution: a required key missing, empty, or of the wrong type. The
// runner fails the node without invoking its action.
type ConfigurationError struct {
	NodeName string
	Key      string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("node %q: config key %q %s", e.NodeName, e.Key, e.Reason)
}

func NewConfigErr(nodeName, key, reason string) *ConfigurationError {
	return &ConfigurationError{NodeName: nodeName, Key: key, Reason: reason}
}

// ConfigString fetches a required non-empty string from resolved config.
func ConfigString(n mflow.Node, config map[string]any, key string) (string, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return "", NewConfigErr(n.Name, key, "is required")
	}
	str, ok := raw.(string)
	if !ok {
		return "", NewConfigErr(n.Name, key, fmt.Sprintf("must be a string, got %T", raw))
	}
	if str == "" {
		return "", NewConfigErr(n.Name, key, "must not be empty")
	}
	return str, nil
}

// ConfigStringDefault fetches an optional string, falling back when the key
// is absent or not a string.
func ConfigStringDefault(config map[string]any, key, fallback string) string {
	if raw, ok := config[key]; ok {
		if str, ok := raw.(string); ok && str != "" {
			return str
		}
	}
	return fallback
}

// SendConsole emits a console line for the node on the execution's log
// channel, when one is attached.
func SendConsole(req *RunRequest, nodeID idwrap.IDWrap, level logconsole.LogLevel, value string, payload map[string]any) {
	if req == nil || req.LogChan == nil {
		return
	}
	logconsole.SendLogMessage(req.LogChan, nodeID, value, level, payload)
}
