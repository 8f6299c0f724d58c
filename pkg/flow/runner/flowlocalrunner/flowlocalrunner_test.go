package flowlocalrunner_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s6s-labs/s6s-engine/pkg/flow/dispatch"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node/nif"
	"github.com/s6s-labs/s6s-engine/pkg/flow/node/ntrigger"
	"github.com/s6s-labs/s6s-engine/pkg/flow/runner"
	"github.com/s6s-labs/s6s-engine/pkg/flow/runner/flowlocalrunner"
	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
	"github.com/s6s-labs/s6s-engine/pkg/logconsole"
	"github.com/s6s-labs/s6s-engine/pkg/model/mcredential"
	"github.com/s6s-labs/s6s-engine/pkg/model/mexec"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
	"github.com/s6s-labs/s6s-engine/pkg/vault"
)

// stubExec returns a fixed output, or fails when err is set.
type stubExec struct {
	kind    mflow.NodeKind
	output  any
	err     error
	calls   int
	sawCred map[string]string
	credRef map[string]string
	logChan chan logconsole.LogMessage
}

func (s *stubExec) Kind() mflow.NodeKind { return s.kind }

func (s *stubExec) Execute(_ context.Context, _ mflow.Node, req *node.RunRequest) node.RunResult {
	s.calls++
	s.credRef = req.Credentials
	s.logChan = req.LogChan
	s.sawCred = make(map[string]string, len(req.Credentials))
	for k, v := range req.Credentials {
		s.sawCred[k] = v
	}
	if s.err != nil {
		return node.ErrResult(s.err)
	}
	if s.output != nil {
		return node.OkResult(s.output)
	}
	return node.OkResult(req.Config)
}

func newNode(name string, kind mflow.NodeKind, config map[string]any) mflow.Node {
	return mflow.Node{ID: idwrap.NewNow(), Name: name, Kind: kind, Config: config}
}

func TestRunStopsOnFirstFailure(t *testing.T) {
	failing := &stubExec{kind: mflow.NODE_KIND_HTTP, err: errors.New("boom")}
	never := &stubExec{kind: mflow.NODE_KIND_MAIL}

	table := dispatch.New(nil)
	table.Register(ntrigger.NewManual())
	table.Register(failing)
	table.Register(never)

	flow := mflow.Flow{
		ID:   idwrap.NewNow(),
		Name: "three-step",
		Nodes: []mflow.Node{
			newNode("Start", mflow.NODE_KIND_MANUAL_TRIGGER, nil),
			newNode("Fetch", mflow.NODE_KIND_HTTP, map[string]any{"url": "x"}),
			newNode("Notify", mflow.NODE_KIND_MAIL, map[string]any{"to": "a", "subject": "b", "body": "c"}),
		},
	}

	r := flowlocalrunner.New(flowlocalrunner.Options{Table: table, Logger: slog.Default()})
	exec, err := r.Run(context.Background(), flow)
	require.NoError(t, err)

	assert.Equal(t, mexec.EXEC_STATUS_FAILED, exec.Status)
	require.Len(t, exec.NodeResults, 2)
	assert.Equal(t, mexec.NODE_STATUS_SUCCESS, exec.NodeResults[0].Status)
	assert.Equal(t, mexec.NODE_STATUS_FAILED, exec.NodeResults[1].Status)
	assert.Contains(t, exec.NodeResults[1].Error, "boom")
	assert.Equal(t, 0, never.calls)
	assert.NotNil(t, exec.EndTime)
}

func TestRunResolvesPriorOutputs(t *testing.T) {
	producer := &stubExec{kind: mflow.NODE_KIND_HTTP, output: map[string]any{
		"statusCode": 200,
		"data":       map[string]any{"items": []any{1, 2, 3}},
	}}

	table := dispatch.New(nil)
	table.Register(producer)
	table.Register(nif.New())

	flow := mflow.Flow{
		ID:   idwrap.NewNow(),
		Name: "resolve",
		Nodes: []mflow.Node{
			newNode("Fetch", mflow.NODE_KIND_HTTP, map[string]any{"url": "x"}),
			newNode("Check", mflow.NODE_KIND_CONDITION, map[string]any{
				"valueA":   "{{ $node['Fetch'].statusCode }}",
				"operator": "EQUALS",
				"valueB":   "200",
			}),
		},
	}

	r := flowlocalrunner.New(flowlocalrunner.Options{Table: table, Logger: slog.Default()})
	exec, err := r.Run(context.Background(), flow)
	require.NoError(t, err)

	assert.Equal(t, mexec.EXEC_STATUS_SUCCESS, exec.Status)
	require.Len(t, exec.NodeResults, 2)
	assert.Equal(t, map[string]any{"result": true}, exec.NodeResults[1].OutputData)
}

func TestRunDecryptsAndInjectsCredentials(t *testing.T) {
	v, err := vault.NewFromHex("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)

	envelope, err := v.EncryptSecret("tok-123")
	require.NoError(t, err)
	cred, err := mcredential.FromEnvelope(idwrap.NewNow(), "token", envelope)
	require.NoError(t, err)

	consumer := &stubExec{kind: mflow.NODE_KIND_HTTP}
	table := dispatch.New(nil)
	table.Register(consumer)

	n := newNode("Fetch", mflow.NODE_KIND_HTTP, map[string]any{"url": "x"})
	n.CredentialIDs = []idwrap.IDWrap{cred.ID}

	flow := mflow.Flow{ID: idwrap.NewNow(), Name: "with-creds", Nodes: []mflow.Node{n}}

	r := flowlocalrunner.New(flowlocalrunner.Options{
		Vault:  v,
		Store:  runner.NewStaticCredentialStore([]mcredential.Credential{cred}),
		Table:  table,
		Logger: slog.Default(),
	})
	exec, err := r.Run(context.Background(), flow)
	require.NoError(t, err)

	assert.Equal(t, mexec.EXEC_STATUS_SUCCESS, exec.Status)
	assert.Equal(t, "tok-123", consumer.sawCred["token"])

	// Plaintext never lands in the recorded output, and the injected map
	// is scrubbed once the node is done.
	out, ok := exec.NodeResults[0].OutputData.(map[string]any)
	require.True(t, ok)
	for _, val := range out {
		assert.NotEqual(t, "tok-123", val)
	}
	assert.Empty(t, consumer.credRef)
}

func TestRunStreamsNodeStatusTransitions(t *testing.T) {
	failing := &stubExec{kind: mflow.NODE_KIND_HTTP, err: errors.New("boom")}

	table := dispatch.New(nil)
	table.Register(ntrigger.NewManual())
	table.Register(failing)

	flow := mflow.Flow{
		ID:   idwrap.NewNow(),
		Name: "streamed",
		Nodes: []mflow.Node{
			newNode("Start", mflow.NODE_KIND_MANUAL_TRIGGER, nil),
			newNode("Fetch", mflow.NODE_KIND_HTTP, map[string]any{"url": "x"}),
		},
	}

	logMap := logconsole.NewLogChanMap()
	r := flowlocalrunner.New(flowlocalrunner.Options{
		Table:      table,
		Logger:     slog.Default(),
		LogChanMap: &logMap,
	})
	exec, err := r.Run(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, mexec.EXEC_STATUS_FAILED, exec.Status)

	// Run closed the channel; the buffered transitions stay readable.
	require.NotNil(t, failing.logChan)
	var messages []logconsole.LogMessage
	for msg := range failing.logChan {
		messages = append(messages, msg)
	}

	require.Len(t, messages, 4)
	assert.Equal(t, "node started", messages[0].Value)
	assert.Contains(t, messages[0].JSON, `"Start"`)
	assert.Contains(t, messages[0].JSON, `"Running"`)
	assert.Equal(t, "node finished", messages[1].Value)
	assert.Contains(t, messages[1].JSON, `"Success"`)
	assert.Equal(t, "node started", messages[2].Value)
	assert.Contains(t, messages[2].JSON, `"Fetch"`)
	assert.Equal(t, "node finished", messages[3].Value)
	assert.Equal(t, logconsole.LogLevelError, messages[3].Level)
	assert.Contains(t, messages[3].JSON, `"Failed"`)
}

func TestRunMissingCredentialFailsNode(t *testing.T) {
	v, err := vault.NewFromHex("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)

	consumer := &stubExec{kind: mflow.NODE_KIND_HTTP}
	table := dispatch.New(nil)
	table.Register(consumer)

	n := newNode("Fetch", mflow.NODE_KIND_HTTP, map[string]any{"url": "x"})
	n.CredentialIDs = []idwrap.IDWrap{idwrap.NewNow()}

	flow := mflow.Flow{ID: idwrap.NewNow(), Name: "missing-cred", Nodes: []mflow.Node{n}}

	r := flowlocalrunner.New(flowlocalrunner.Options{
		Vault:  v,
		Store:  runner.NewStaticCredentialStore(nil),
		Table:  table,
		Logger: slog.Default(),
	})
	exec, err := r.Run(context.Background(), flow)
	require.NoError(t, err)

	assert.Equal(t, mexec.EXEC_STATUS_FAILED, exec.Status)
	require.Len(t, exec.NodeResults, 1)
	assert.Contains(t, exec.NodeResults[0].Error, "credential not found")
	assert.Equal(t, 0, consumer.calls)
}

func TestRunCancelledContext(t *testing.T) {
	table := dispatch.New(nil)
	table.Register(ntrigger.NewManual())

	flow := mflow.Flow{
		ID:    idwrap.NewNow(),
		Name:  "cancelled",
		Nodes: []mflow.Node{newNode("Start", mflow.NODE_KIND_MANUAL_TRIGGER, nil)},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := flowlocalrunner.New(flowlocalrunner.Options{Table: table, Logger: slog.Default()})
	exec, err := r.Run(ctx, flow)
	require.Error(t, err)
	assert.Equal(t, mexec.EXEC_STATUS_CANCELLED, exec.Status)
	assert.Empty(t, exec.NodeResults)
}

func TestRunEmptyFlowSucceeds(t *testing.T) {
	r := flowlocalrunner.New(flowlocalrunner.Options{Logger: slog.Default()})
	exec, err := r.Run(context.Background(), mflow.Flow{ID: idwrap.NewNow(), Name: "empty"})
	require.NoError(t, err)
	assert.Equal(t, mexec.EXEC_STATUS_SUCCESS, exec.Status)
}
