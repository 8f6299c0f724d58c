// Package nscript implements the custom-code node. User JavaScript runs
// in a fresh V8 isolate per invocation with no filesystem or process
// access; only the injected $input data, the inputs and helpers bindings,
// a fetch polyfill and a console binding are visible. The isolate is torn
// down when the node returns.
package nscript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.kuoruan.net/v8go-polyfills/fetch"
	v8 "rogchap.com/v8go"

	"github.com/s6s-labs/s6s-engine/pkg/flow/node"
	"github.com/s6s-labs/s6s-engine/pkg/logconsole"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

const DefaultTimeout = 3 * time.Second

// TimeoutError marks a script that exceeded its wall-clock budget. The
// isolate is terminated, so no partial output survives.
type TimeoutError struct {
	NodeName string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("node %q: script exceeded %s timeout", e.NodeName, e.Timeout)
}

type NodeScript struct {
	timeout time.Duration
}

func New(timeout time.Duration) NodeScript {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NodeScript{timeout: timeout}
}

func (NodeScript) Kind() mflow.NodeKind { return mflow.NODE_KIND_SCRIPT }

func (ns NodeScript) Execute(ctx context.Context, n mflow.Node, req *node.RunRequest) node.RunResult {
	code, err := node.ConfigString(n, req.Config, "code")
	if err != nil {
		return node.ErrResult(err)
	}
	if strings.TrimSpace(code) == "" {
		return node.ErrResult(node.NewConfigErr(n.Name, "code", "must not be empty"))
	}

	iso := v8.NewIsolate()
	defer iso.Dispose()

	global := v8.NewObjectTemplate(iso)
	if err := fetch.InjectTo(iso, global); err != nil {
		return node.ErrResult(fmt.Errorf("sandbox: inject fetch: %w", err))
	}
	if err := injectConsole(iso, global, n, req); err != nil {
		return node.ErrResult(fmt.Errorf("sandbox: inject console: %w", err))
	}

	ctxjs := v8.NewContext(iso, global)
	defer ctxjs.Close()

	if err := injectInput(ctxjs, n, req); err != nil {
		return node.ErrResult(fmt.Errorf("sandbox: inject input: %w", err))
	}
	if _, err := ctxjs.RunScript(helpersSource, "helpers.js"); err != nil {
		return node.ErrResult(fmt.Errorf("sandbox: inject helpers: %w", err))
	}

	// The async wrapper lets user code use top-level await; a returned
	// promise is pumped to settlement below.
	wrapped := "(async function() {\n" + code + "\n})()"

	type runOutcome struct {
		val *v8.Value
		err error
	}
	deadline := time.Now().Add(ns.timeout)
	done := make(chan runOutcome, 1)
	go func() {
		val, err := ctxjs.RunScript(wrapped, fmt.Sprintf("node_%s.js", n.ID))
		if err == nil && val != nil && val.IsPromise() {
			val, err = awaitPromise(ctxjs, val, deadline)
		}
		done <- runOutcome{val: val, err: err}
	}()

	// Both wait-after-terminate receives are bounded: termination
	// unblocks RunScript, and awaitPromise gives up at the deadline even
	// for a promise that never settles.
	var outcome runOutcome
	select {
	case outcome = <-done:
	case <-time.After(ns.timeout):
		iso.TerminateExecution()
		<-done
		return node.ErrResult(&TimeoutError{NodeName: n.Name, Timeout: ns.timeout})
	case <-ctx.Done():
		iso.TerminateExecution()
		<-done
		return node.ErrResult(ctx.Err())
	}

	if errors.Is(outcome.err, errPromiseDeadline) {
		return node.ErrResult(&TimeoutError{NodeName: n.Name, Timeout: ns.timeout})
	}
	if outcome.err != nil {
		return node.ErrResult(fmt.Errorf("node %q: script error: %w", n.Name, outcome.err))
	}
	output, err := valueToGo(ctxjs, outcome.val)
	if err != nil {
		return node.ErrResult(fmt.Errorf("node %q: script output: %w", n.Name, err))
	}
	return node.OkResult(output)
}

// helpersSource defines the small utility library scripts can call. It
// runs inside the same context as user code, after $input is bound.
const helpersSource = `const helpers = Object.freeze({
	keys: (o) => Object.keys(o ?? {}),
	values: (o) => Object.values(o ?? {}),
	entries: (o) => Object.entries(o ?? {}),
	pick: (o, ks) => {
		const out = {};
		for (const k of ks ?? []) {
			if (o != null && k in o) out[k] = o[k];
		}
		return out;
	},
	get: (o, path, fallback) => {
		let cur = o;
		for (const k of String(path).split(".")) {
			if (cur == null) return fallback;
			cur = cur[k];
		}
		return cur === undefined ? fallback : cur;
	},
	isEmpty: (v) => v == null || v === "" ||
		(Array.isArray(v) && v.length === 0) ||
		(typeof v === "object" && Object.keys(v).length === 0),
	uniq: (a) => Array.from(new Set(a ?? [])),
	jsonParse: (s) => JSON.parse(s),
	jsonStringify: (v) => JSON.stringify(v),
});`

// injectInput exposes the node's data to the script. $input carries the
// resolved config (minus the code itself) and the outputs of every prior
// successful node; the prior outputs are also bound directly as "inputs".
func injectInput(ctxjs *v8.Context, n mflow.Node, req *node.RunRequest) error {
	config := make(map[string]any, len(req.Config))
	for key, value := range req.Config {
		if key == "code" {
			continue
		}
		config[key] = value
	}

	inputs := map[string]any{}
	if req.Execution != nil {
		if m := req.Execution.OutputMap(); m != nil {
			inputs = m
		}
	}

	by, err := json.Marshal(map[string]any{
		"config": config,
		"inputs": inputs,
	})
	if err != nil {
		return err
	}
	val, err := v8.JSONParse(ctxjs, string(by))
	if err != nil {
		return err
	}
	if err := ctxjs.Global().Set("$input", val); err != nil {
		return err
	}

	inputsBy, err := json.Marshal(inputs)
	if err != nil {
		return err
	}
	inputsVal, err := v8.JSONParse(ctxjs, string(inputsBy))
	if err != nil {
		return err
	}
	return ctxjs.Global().Set("inputs", inputsVal)
}

func injectConsole(iso *v8.Isolate, global *v8.ObjectTemplate, n mflow.Node, req *node.RunRequest) error {
	console := v8.NewObjectTemplate(iso)

	bind := func(name string, level logconsole.LogLevel) error {
		fn := v8.NewFunctionTemplate(iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
			line := formatConsoleArgs(info)
			switch level {
			case logconsole.LogLevelError:
				req.Logger.Error(line, "node", n.Name)
			case logconsole.LogLevelWarning:
				req.Logger.Warn(line, "node", n.Name)
			default:
				req.Logger.Info(line, "node", n.Name)
			}
			node.SendConsole(req, n.ID, level, line, nil)
			return nil
		})
		return console.Set(name, fn)
	}

	if err := bind("log", logconsole.LogLevelInfo); err != nil {
		return err
	}
	if err := bind("warn", logconsole.LogLevelWarning); err != nil {
		return err
	}
	if err := bind("error", logconsole.LogLevelError); err != nil {
		return err
	}
	return global.Set("console", console)
}

func formatConsoleArgs(info *v8.FunctionCallbackInfo) string {
	parts := make([]string, 0, len(info.Args()))
	for _, arg := range info.Args() {
		if arg.IsObject() && !arg.IsFunction() {
			if str, err := v8.JSONStringify(info.Context(), arg); err == nil {
				parts = append(parts, str)
				continue
			}
		}
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, " ")
}

// errPromiseDeadline reports a promise still pending when the script's
// wall-clock budget ran out. Execute maps it to a TimeoutError.
var errPromiseDeadline = errors.New("script promise did not settle before the deadline")

// awaitPromise pumps the microtask queue until the promise settles or the
// deadline passes. A promise that never settles, such as one whose
// executor stores the resolve callback and drops it, would otherwise spin
// here forever since isolate termination does not reject pending promises.
func awaitPromise(ctxjs *v8.Context, val *v8.Value, deadline time.Time) (*v8.Value, error) {
	promise, err := val.AsPromise()
	if err != nil {
		return nil, err
	}
	for promise.State() == v8.Pending {
		if time.Now().After(deadline) {
			return nil, errPromiseDeadline
		}
		ctxjs.PerformMicrotaskCheckpoint()
	}
	if promise.State() == v8.Rejected {
		return nil, fmt.Errorf("promise rejected: %s", promise.Result().String())
	}
	return promise.Result(), nil
}

// valueToGo converts the script's return value to plain Go data. An
// undefined or null result becomes an empty object so downstream
// references resolve to absent rather than failing.
func valueToGo(ctxjs *v8.Context, val *v8.Value) (any, error) {
	if val == nil || val.IsNullOrUndefined() {
		return map[string]any{}, nil
	}

	str, err := v8.JSONStringify(ctxjs, val)
	if err != nil {
		return nil, err
	}

	var out any
	decoder := json.NewDecoder(strings.NewReader(str))
	decoder.UseNumber()
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
