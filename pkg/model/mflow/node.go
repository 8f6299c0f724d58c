//nolint:revive // exported
package mflow

import "github.com/s6s-labs/s6s-engine/pkg/idwrap"

type NodeKind = int32

const (
	NODE_KIND_UNSPECIFIED      NodeKind = 0
	NODE_KIND_MANUAL_TRIGGER   NodeKind = 1
	NODE_KIND_WEBHOOK_TRIGGER  NodeKind = 2
	NODE_KIND_SCHEDULE_TRIGGER NodeKind = 3
	NODE_KIND_HTTP             NodeKind = 4
	NODE_KIND_CONDITION        NodeKind = 5
	NODE_KIND_SCRIPT           NodeKind = 6
	NODE_KIND_DB_QUERY         NodeKind = 7
	NODE_KIND_STORAGE          NodeKind = 8
	NODE_KIND_MAIL             NodeKind = 9
	NODE_KIND_LLM              NodeKind = 10
	NODE_KIND_TEAMS            NodeKind = 11
	NODE_KIND_SPREADSHEET      NodeKind = 12
	NODE_KIND_FILESYSTEM       NodeKind = 13
)

var nodeKindNames = map[NodeKind]string{
	NODE_KIND_UNSPECIFIED:      "UNSPECIFIED",
	NODE_KIND_MANUAL_TRIGGER:   "TRIGGER_MANUAL",
	NODE_KIND_WEBHOOK_TRIGGER:  "TRIGGER_WEBHOOK",
	NODE_KIND_SCHEDULE_TRIGGER: "TRIGGER_SCHEDULE",
	NODE_KIND_HTTP:             "ACTION_HTTP",
	NODE_KIND_CONDITION:        "LOGIC_IF",
	NODE_KIND_SCRIPT:           "CODE_CUSTOM",
	NODE_KIND_DB_QUERY:         "ACTION_DB_QUERY",
	NODE_KIND_STORAGE:          "CLOUD_STORAGE",
	NODE_KIND_MAIL:             "EMAIL_SENDER",
	NODE_KIND_LLM:              "LLM_QUERY",
	NODE_KIND_TEAMS:            "INTEGRATION_TEAMS",
	NODE_KIND_SPREADSHEET:      "INTEGRATION_SPREADSHEET",
	NODE_KIND_FILESYSTEM:       "INTEGRATION_FILE_SYSTEM",
}

func StringNodeKind(k NodeKind) string {
	if s, ok := nodeKindNames[k]; ok {
		return s
	}
	return "UNSPECIFIED"
}

// NodeKindFromString parses the wire name of a node kind. Unknown names map
// to NODE_KIND_UNSPECIFIED; the dispatcher treats those as generic HTTP.
func NodeKindFromString(s string) NodeKind {
	for k, name := range nodeKindNames {
		if name == s {
			return k
		}
	}
	return NODE_KIND_UNSPECIFIED
}

type Node struct {
	ID     idwrap.IDWrap
	FlowID idwrap.IDWrap
	// Name is unique within a flow and is the key prior outputs are
	// referenced by in template expressions.
	Name      string
	Kind      NodeKind
	Config    map[string]any
	PositionX float64
	PositionY float64
	// CredentialIDs are the credential links attached to this node. The
	// runner decrypts them into a name -> plaintext map scoped to one
	// node execution.
	CredentialIDs []idwrap.IDWrap
}
