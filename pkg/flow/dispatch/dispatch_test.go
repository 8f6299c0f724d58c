package dispatch_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s6s-labs/s6s-engine/pkg/flow/dispatch"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

type recordingExec struct {
	kind   mflow.NodeKind
	called bool
}

func (r *recordingExec) Kind() mflow.NodeKind { return r.kind }

func (r *recordingExec) Execute(_ context.Context, _ mflow.Node, _ *node.RunRequest) node.RunResult {
	r.called = true
	return node.OkResult(map[string]any{"ok": true})
}

func newReq(config map[string]any) *node.RunRequest {
	return &node.RunRequest{Config: config, Logger: slog.Default()}
}

func TestDispatchRoutesByKind(t *testing.T) {
	exec := &recordingExec{kind: mflow.NODE_KIND_CONDITION}
	table := dispatch.New(nil)
	table.Register(exec)

	n := mflow.Node{Name: "Check", Kind: mflow.NODE_KIND_CONDITION}
	result := table.Dispatch(context.Background(), n, newReq(nil))

	require.NoError(t, result.Err)
	assert.True(t, exec.called)
}

func TestDispatchUnknownKindUsesFallback(t *testing.T) {
	fallback := &recordingExec{kind: mflow.NODE_KIND_HTTP}
	table := dispatch.New(fallback)

	n := mflow.Node{Name: "Legacy", Kind: mflow.NodeKind(99)}
	result := table.Dispatch(context.Background(), n, newReq(nil))

	require.NoError(t, result.Err)
	assert.True(t, fallback.called)
}

func TestDispatchNoExecutorNoFallback(t *testing.T) {
	table := dispatch.New(nil)

	n := mflow.Node{Name: "Orphan", Kind: mflow.NODE_KIND_CONDITION}
	result := table.Dispatch(context.Background(), n, newReq(nil))

	require.Error(t, result.Err)
}

func TestDispatchValidatesRequiredKeys(t *testing.T) {
	exec := &recordingExec{kind: mflow.NODE_KIND_TEAMS}
	table := dispatch.New(nil)
	table.Register(exec)

	n := mflow.Node{Name: "Notify", Kind: mflow.NODE_KIND_TEAMS}
	result := table.Dispatch(context.Background(), n, newReq(map[string]any{"message": "hi"}))

	var cfgErr *node.ConfigurationError
	require.ErrorAs(t, result.Err, &cfgErr)
	assert.Equal(t, "webhookUrl", cfgErr.Key)
	assert.False(t, exec.called)
}

func TestDispatchRequiredKeyEmptyAfterResolution(t *testing.T) {
	exec := &recordingExec{kind: mflow.NODE_KIND_DB_QUERY}
	table := dispatch.New(nil)
	table.Register(exec)

	n := mflow.Node{Name: "Query", Kind: mflow.NODE_KIND_DB_QUERY}
	result := table.Dispatch(context.Background(), n, newReq(map[string]any{"query": ""}))

	var cfgErr *node.ConfigurationError
	require.ErrorAs(t, result.Err, &cfgErr)
	assert.False(t, exec.called)
}

func TestDefaultTableCoversAllKinds(t *testing.T) {
	table := dispatch.Default(dispatch.Options{})

	// Condition dispatch through the default table exercises real wiring.
	n := mflow.Node{Name: "Check", Kind: mflow.NODE_KIND_CONDITION}
	result := table.Dispatch(context.Background(), n, newReq(map[string]any{
		"valueA": 1, "operator": "EQUALS", "valueB": 1,
	}))
	require.NoError(t, result.Err)
	assert.Equal(t, map[string]any{"result": true}, result.Output)
}
