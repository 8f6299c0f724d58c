// Package dispatch routes a node to its executor by kind. Required config
// keys are checked here, after resolution and before the executor runs,
// so every node kind fails the same way on an unusable config.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/s6s-labs/s6s-engine/pkg/flow/node"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node/nhttp"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node/nif"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node/nscript"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node/ntrigger"
	"github.com/s6s-labs/s6s-engine/pkg/httpclient"
	"github.com/s6s-labs/s6s-engine/pkg/integration"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

// requiredKeys lists the config keys each kind must carry after
// resolution. Kinds absent here validate inside their executor.
var requiredKeys = map[mflow.NodeKind][]string{
	mflow.NODE_KIND_DB_QUERY:    {"query"},
	mflow.NODE_KIND_MAIL:        {"to", "subject", "body"},
	mflow.NODE_KIND_TEAMS:       {"webhookUrl"},
	mflow.NODE_KIND_SPREADSHEET: {"operation", "filePath"},
	mflow.NODE_KIND_FILESYSTEM:  {"operation", "filePath"},
	mflow.NODE_KIND_STORAGE:     {"provider", "operation", "bucket", "filePath"},
	mflow.NODE_KIND_LLM:         {"prompt"},
}

type Table struct {
	executors map[mflow.NodeKind]node.Executor
	fallback  node.Executor
}

// New builds an empty table. Unknown kinds route to fallback when it is
// non-nil.
func New(fallback node.Executor) *Table {
	return &Table{
		executors: make(map[mflow.NodeKind]node.Executor),
		fallback:  fallback,
	}
}

func (t *Table) Register(e node.Executor) {
	t.executors[e.Kind()] = e
}

func (t *Table) Dispatch(ctx context.Context, n mflow.Node, req *node.RunRequest) node.RunResult {
	for _, key := range requiredKeys[n.Kind] {
		if _, err := node.ConfigString(n, req.Config, key); err != nil {
			return node.ErrResult(err)
		}
	}

	exec, ok := t.executors[n.Kind]
	if !ok {
		exec = t.fallback
	}
	if exec == nil {
		return node.ErrResult(fmt.Errorf("node %q: no executor for kind %s", n.Name, mflow.StringNodeKind(n.Kind)))
	}
	return exec.Execute(ctx, n, req)
}

// Options configures the default table.
type Options struct {
	Client        httpclient.HttpClient
	ScriptTimeout time.Duration
	// FileRoot confines file system node paths when non-empty.
	FileRoot string
	// LLMModel overrides the LLM client, used by tests.
	LLMModel *integration.LLM
}

// Default wires every built-in node kind. The HTTP executor doubles as
// the fallback so unrecognized kinds behave like a plain request, which
// keeps old flow definitions with retired kind names runnable.
func Default(opts Options) *Table {
	client := opts.Client
	if client == nil {
		client = httpclient.New()
	}

	httpExec := nhttp.New(client)
	t := New(httpExec)

	t.Register(ntrigger.NewManual())
	t.Register(ntrigger.NewWebhook())
	t.Register(ntrigger.NewSchedule())
	t.Register(nif.New())
	t.Register(nscript.New(opts.ScriptTimeout))
	t.Register(httpExec)

	llm := opts.LLMModel
	if llm == nil {
		llm = integration.NewLLM()
	}

	t.Register(Adapt(mflow.NODE_KIND_DB_QUERY, integration.NewDBQuery()))
	t.Register(Adapt(mflow.NODE_KIND_STORAGE, integration.NewStorage()))
	t.Register(Adapt(mflow.NODE_KIND_MAIL, integration.NewMail()))
	t.Register(Adapt(mflow.NODE_KIND_LLM, llm))
	t.Register(Adapt(mflow.NODE_KIND_TEAMS, integration.NewTeams(client)))
	t.Register(Adapt(mflow.NODE_KIND_SPREADSHEET, integration.NewSpreadsheet()))
	t.Register(Adapt(mflow.NODE_KIND_FILESYSTEM, integration.NewFileSystem(opts.FileRoot)))

	return t
}

// integrationExec adapts an outbound connector to the executor contract.
type integrationExec struct {
	kind mflow.NodeKind
	impl integration.Integration
}

func Adapt(kind mflow.NodeKind, impl integration.Integration) node.Executor {
	return integrationExec{kind: kind, impl: impl}
}

func (ie integrationExec) Kind() mflow.NodeKind { return ie.kind }

func (ie integrationExec) Execute(ctx context.Context, n mflow.Node, req *node.RunRequest) node.RunResult {
	output, err := ie.impl.Execute(ctx, req.Config, req.Credentials)
	if err != nil {
		return node.ErrResult(fmt.Errorf("node %q: %w", n.Name, err))
	}
	return node.OkResult(output)
}
