// Package ntrigger implements the trigger nodes that start a workflow:
// manual, webhook and schedule. Triggers do no outbound work at run time;
// they validate their configuration and seed the execution with output
// downstream nodes can reference.
package ntrigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/s6s-labs/s6s-engine/pkg/flow/node"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

type NodeManual struct{}

func NewManual() NodeManual { return NodeManual{} }

func (NodeManual) Kind() mflow.NodeKind { return mflow.NODE_KIND_MANUAL_TRIGGER }

func (NodeManual) Execute(_ context.Context, _ mflow.Node, _ *node.RunRequest) node.RunResult {
	return node.OkResult(map[string]any{
		"status":  "success",
		"message": "Manual trigger executed",
	})
}

// NodeWebhook surfaces the inbound request that started the run. The
// runner stores the delivered payload under the "payload" config key
// before execution begins.
type NodeWebhook struct{}

func NewWebhook() NodeWebhook { return NodeWebhook{} }

func (NodeWebhook) Kind() mflow.NodeKind { return mflow.NODE_KIND_WEBHOOK_TRIGGER }

func (NodeWebhook) Execute(_ context.Context, _ mflow.Node, req *node.RunRequest) node.RunResult {
	output := map[string]any{"status": "success"}
	if body, ok := req.Config["payload"]; ok {
		output["body"] = body
	}
	if headers, ok := req.Config["headers"]; ok {
		output["headers"] = headers
	}
	return node.OkResult(output)
}

type NodeSchedule struct{}

func NewSchedule() NodeSchedule { return NodeSchedule{} }

func (NodeSchedule) Kind() mflow.NodeKind { return mflow.NODE_KIND_SCHEDULE_TRIGGER }

// Execute validates the schedule config. Either a "cron" expression or an
// "interval" (value + unit) must be present; intervals are normalized to
// cron so both forms record the same output shape.
func (NodeSchedule) Execute(_ context.Context, n mflow.Node, req *node.RunRequest) node.RunResult {
	cron := node.ConfigStringDefault(req.Config, "cron", "")
	if cron == "" {
		value, okValue := toInt(req.Config["intervalValue"])
		unit := node.ConfigStringDefault(req.Config, "intervalUnit", "")
		if !okValue || unit == "" {
			return node.ErrResult(node.NewConfigErr(n.Name, "cron", "or intervalValue/intervalUnit is required"))
		}
		converted, err := IntervalToCron(value, unit)
		if err != nil {
			return node.ErrResult(node.NewConfigErr(n.Name, "intervalUnit", err.Error()))
		}
		cron = converted
	}

	if err := validateCron(cron); err != nil {
		return node.ErrResult(node.NewConfigErr(n.Name, "cron", err.Error()))
	}

	return node.OkResult(map[string]any{
		"status": "success",
		"cron":   cron,
	})
}

// IntervalToCron converts an "every N minutes/hours/days" interval into a
// five-field cron expression.
func IntervalToCron(value int, unit string) (string, error) {
	if value <= 0 {
		return "", fmt.Errorf("interval value must be positive, got %d", value)
	}
	switch strings.ToLower(unit) {
	case "minute", "minutes":
		return fmt.Sprintf("*/%d * * * *", value), nil
	case "hour", "hours":
		return fmt.Sprintf("0 */%d * * *", value), nil
	case "day", "days":
		return fmt.Sprintf("0 0 */%d * *", value), nil
	default:
		return "", fmt.Errorf("unsupported interval unit %q", unit)
	}
}

func validateCron(cron string) error {
	fields := strings.Fields(cron)
	if len(fields) != 5 {
		return fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}
	return nil
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	default:
		return 0, false
	}
}
