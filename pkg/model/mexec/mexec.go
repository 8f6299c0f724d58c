//nolint:revive // exported
package mexec

import (
	"time"

	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
)

type ExecStatus = int8

const (
	EXEC_STATUS_QUEUED    ExecStatus = 0
	EXEC_STATUS_RUNNING   ExecStatus = 1
	EXEC_STATUS_SUCCESS   ExecStatus = 2
	EXEC_STATUS_FAILED    ExecStatus = 3
	EXEC_STATUS_CANCELLED ExecStatus = 4
)

func StringExecStatus(s ExecStatus) string {
	return [...]string{"Queued", "Running", "Success", "Failed", "Cancelled"}[s]
}

func IsExecStatusDone(s ExecStatus) bool {
	return s == EXEC_STATUS_SUCCESS || s == EXEC_STATUS_FAILED || s == EXEC_STATUS_CANCELLED
}

type NodeStatus = int8

const (
	NODE_STATUS_SUCCESS NodeStatus = 0
	NODE_STATUS_FAILED  NodeStatus = 1
)

func StringNodeStatus(s NodeStatus) string {
	return [...]string{"Success", "Failed"}[s]
}

// NodeResult records the outcome of a single node execution. It is produced
// exactly once per executed node and never mutated afterwards.
type NodeResult struct {
	NodeID     idwrap.IDWrap `json:"nodeId"`
	NodeName   string        `json:"nodeName"`
	Status     NodeStatus    `json:"status"`
	OutputData any           `json:"outputData,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
}

// Execution is one run of a flow. NodeResults is append-only until a
// terminal status is set; the owning runner is the only writer.
type Execution struct {
	ID          idwrap.IDWrap `json:"id"`
	FlowID      idwrap.IDWrap `json:"workflowId"`
	Status      ExecStatus    `json:"status"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     *time.Time    `json:"endTime,omitempty"`
	NodeResults []NodeResult  `json:"nodeResults"`
}

func New(flowID idwrap.IDWrap) *Execution {
	return &Execution{
		ID:        idwrap.NewNow(),
		FlowID:    flowID,
		Status:    EXEC_STATUS_RUNNING,
		StartTime: time.Now(),
	}
}

// ResultByName returns the recorded result for the node with the given
// name, or false when that node has not run.
func (e *Execution) ResultByName(name string) (NodeResult, bool) {
	for _, r := range e.NodeResults {
		if r.NodeName == name {
			return r, true
		}
	}
	return NodeResult{}, false
}

// OutputMap collects prior node outputs keyed by node name. It is the data
// the resolver and the script sandbox see.
func (e *Execution) OutputMap() map[string]any {
	out := make(map[string]any, len(e.NodeResults))
	for _, r := range e.NodeResults {
		if r.Status == NODE_STATUS_SUCCESS {
			out[r.NodeName] = r.OutputData
		}
	}
	return out
}

func (e *Execution) Finish(status ExecStatus) {
	now := time.Now()
	e.Status = status
	e.EndTime = &now
}
