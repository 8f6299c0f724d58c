// Package flowlocalrunner executes a workflow in-process: nodes run
// sequentially in declaration order, each seeing the outputs of every
// node before it. The first failed node stops the run and marks the
// execution failed; nodes after it never start.
package flowlocalrunner

import (
	"context"
	"time"

	"log/slog"

	"github.com/s6s-labs/s6s-engine/pkg/expression"
	"github.com/s6s-labs/s6s-engine/pkg/flow/dispatch"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node"
	"github.com/s6s-labs/s6s-engine/pkg/flow/runner"
	"github.com/s6s-labs/s6s-engine/pkg/logconsole"
	"github.com/s6s-labs/s6s-engine/pkg/model/mexec"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
	"github.com/s6s-labs/s6s-engine/pkg/vault"
)

type FlowLocalRunner struct {
	vault      *vault.Vault
	store      runner.CredentialStore
	table      *dispatch.Table
	logger     *slog.Logger
	logChanMap *logconsole.LogChanMap
}

var _ runner.FlowRunner = (*FlowLocalRunner)(nil)

type Options struct {
	Vault  *vault.Vault
	Store  runner.CredentialStore
	Table  *dispatch.Table
	Logger *slog.Logger
	// LogChanMap streams per-node console lines when set.
	LogChanMap *logconsole.LogChanMap
}

func New(opts Options) *FlowLocalRunner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	table := opts.Table
	if table == nil {
		table = dispatch.Default(dispatch.Options{})
	}
	return &FlowLocalRunner{
		vault:      opts.Vault,
		store:      opts.Store,
		table:      table,
		logger:     logger,
		logChanMap: opts.LogChanMap,
	}
}

// Run executes every node of the flow in declaration order. The returned
// execution always carries a terminal status; the error return is
// reserved for a context already cancelled before the first node.
func (r *FlowLocalRunner) Run(ctx context.Context, flow mflow.Flow) (*mexec.Execution, error) {
	exec := mexec.New(flow.ID)

	var logChan chan logconsole.LogMessage
	if r.logChanMap != nil {
		logChan = r.logChanMap.AddLogChannel(exec.ID)
		defer r.logChanMap.DeleteLogChannel(exec.ID)
	}

	r.logger.Info("starting execution",
		"executionId", exec.ID.String(), "workflow", flow.Name, "nodes", len(flow.Nodes))

	for _, n := range flow.Nodes {
		if err := ctx.Err(); err != nil {
			exec.Finish(mexec.EXEC_STATUS_CANCELLED)
			return exec, err
		}

		sendStatus(logChan, n, "node started", logconsole.LogLevelInfo,
			map[string]any{"node": n.Name, "status": "Running"})

		result := r.runNode(ctx, n, exec, logChan)
		exec.NodeResults = append(exec.NodeResults, result)

		level := logconsole.LogLevelInfo
		if result.Status == mexec.NODE_STATUS_FAILED {
			level = logconsole.LogLevelError
		}
		sendStatus(logChan, n, "node finished", level,
			map[string]any{"node": n.Name, "status": mexec.StringNodeStatus(result.Status)})

		if result.Status == mexec.NODE_STATUS_FAILED {
			r.logger.Error("node failed, stopping execution",
				"executionId", exec.ID.String(), "node", n.Name, "error", result.Error)
			exec.Finish(mexec.EXEC_STATUS_FAILED)
			return exec, nil
		}
	}

	exec.Finish(mexec.EXEC_STATUS_SUCCESS)
	r.logger.Info("execution finished",
		"executionId", exec.ID.String(), "status", mexec.StringExecStatus(exec.Status))
	return exec, nil
}

// runNode performs the full per-node sequence: decrypt linked
// credentials, resolve config placeholders against prior outputs,
// dispatch by kind, then scrub the plaintext secrets regardless of the
// outcome.
func (r *FlowLocalRunner) runNode(ctx context.Context, n mflow.Node, exec *mexec.Execution, logChan chan logconsole.LogMessage) mexec.NodeResult {
	start := time.Now()
	result := mexec.NodeResult{
		NodeID:    n.ID,
		NodeName:  n.Name,
		StartTime: start,
	}

	fail := func(err error) mexec.NodeResult {
		result.Status = mexec.NODE_STATUS_FAILED
		result.Error = err.Error()
		result.EndTime = time.Now()
		return result
	}

	r.logger.Info("executing node",
		"executionId", exec.ID.String(), "node", n.Name, "kind", mflow.StringNodeKind(n.Kind))

	credentials, err := r.decryptCredentials(ctx, n)
	if err != nil {
		return fail(err)
	}
	defer scrub(credentials)

	env := expression.FromExecution(exec)
	resolved, err := env.ResolveConfig(n.Config)
	if err != nil {
		return fail(err)
	}

	req := &node.RunRequest{
		Execution:   exec,
		Config:      resolved,
		Credentials: credentials,
		Logger:      r.logger,
		LogChan:     logChan,
	}

	runResult := r.table.Dispatch(ctx, n, req)
	result.EndTime = time.Now()
	result.OutputData = runResult.Output

	if runResult.Err != nil {
		result.Status = mexec.NODE_STATUS_FAILED
		result.Error = runResult.Err.Error()
		return result
	}
	result.Status = mexec.NODE_STATUS_SUCCESS
	return result
}

func (r *FlowLocalRunner) decryptCredentials(ctx context.Context, n mflow.Node) (map[string]string, error) {
	credentials := make(map[string]string, len(n.CredentialIDs))
	if len(n.CredentialIDs) == 0 {
		return credentials, nil
	}
	if r.store == nil || r.vault == nil {
		return nil, &MissingVaultError{NodeName: n.Name}
	}

	for _, id := range n.CredentialIDs {
		cred, err := r.store.GetCredential(ctx, id)
		if err != nil {
			return nil, err
		}
		plaintext, err := r.vault.DecryptCredential(cred)
		if err != nil {
			return nil, err
		}
		credentials[cred.Name] = plaintext
	}
	return credentials, nil
}

// sendStatus streams a node status transition on the execution's log
// channel when one is attached.
func sendStatus(logChan chan logconsole.LogMessage, n mflow.Node, value string, level logconsole.LogLevel, payload map[string]any) {
	if logChan == nil {
		return
	}
	logconsole.SendLogMessage(logChan, n.ID, value, level, payload)
}

// scrub overwrites each plaintext entry and then deletes it once the node
// is done. Go strings cannot be zeroed in place; replacing and dropping
// the references is the best the runner can do to shorten their lifetime.
func scrub(credentials map[string]string) {
	for key := range credentials {
		credentials[key] = ""
		delete(credentials, key)
	}
}

type MissingVaultError struct {
	NodeName string
}

func (e *MissingVaultError) Error() string {
	return "node " + e.NodeName + " links credentials but the runner has no vault or store"
}
