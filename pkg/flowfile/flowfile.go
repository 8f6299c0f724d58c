// Package flowfile loads workflow definitions from YAML files, the input
// format of the CLI. Node and credential references are by name in the
// file; loading assigns IDs and rewires the references.
package flowfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
	"github.com/s6s-labs/s6s-engine/pkg/model/mcredential"
	"github.com/s6s-labs/s6s-engine/pkg/model/mflow"
)

type File struct {
	Workflow    Workflow     `yaml:"workflow"`
	Credentials []Credential `yaml:"credentials"`
}

type Workflow struct {
	Name  string `yaml:"name"`
	Nodes []Node `yaml:"nodes"`
	Edges []Edge `yaml:"edges"`
}

type Node struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Config      map[string]any `yaml:"config"`
	Credentials []string       `yaml:"credentials"`
}

type Edge struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Handle string `yaml:"handle"`
}

type Credential struct {
	Name     string `yaml:"name"`
	Envelope string `yaml:"envelope"`
}

// Load reads and links a workflow file. Unknown node types are kept with
// the unspecified kind so the dispatcher's fallback can still run them.
func Load(path string) (mflow.Flow, []mcredential.Credential, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return mflow.Flow{}, nil, fmt.Errorf("flowfile: read %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (mflow.Flow, []mcredential.Credential, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return mflow.Flow{}, nil, fmt.Errorf("flowfile: parse: %w", err)
	}
	if file.Workflow.Name == "" {
		return mflow.Flow{}, nil, fmt.Errorf("flowfile: workflow.name is required")
	}

	creds := make([]mcredential.Credential, 0, len(file.Credentials))
	credIDs := make(map[string]idwrap.IDWrap, len(file.Credentials))
	for _, fc := range file.Credentials {
		if fc.Name == "" {
			return mflow.Flow{}, nil, fmt.Errorf("flowfile: credential without a name")
		}
		cred, err := mcredential.FromEnvelope(idwrap.NewNow(), fc.Name, fc.Envelope)
		if err != nil {
			return mflow.Flow{}, nil, fmt.Errorf("flowfile: credential %q: %w", fc.Name, err)
		}
		creds = append(creds, cred)
		credIDs[fc.Name] = cred.ID
	}

	flow := mflow.Flow{
		ID:   idwrap.NewNow(),
		Name: file.Workflow.Name,
	}

	nodeIDs := make(map[string]idwrap.IDWrap, len(file.Workflow.Nodes))
	for _, fn := range file.Workflow.Nodes {
		if fn.Name == "" {
			return mflow.Flow{}, nil, fmt.Errorf("flowfile: node without a name")
		}
		if _, dup := nodeIDs[fn.Name]; dup {
			return mflow.Flow{}, nil, fmt.Errorf("flowfile: duplicate node name %q", fn.Name)
		}

		n := mflow.Node{
			ID:     idwrap.NewNow(),
			FlowID: flow.ID,
			Name:   fn.Name,
			Kind:   mflow.NodeKindFromString(fn.Type),
			Config: fn.Config,
		}
		for _, credName := range fn.Credentials {
			id, ok := credIDs[credName]
			if !ok {
				return mflow.Flow{}, nil, fmt.Errorf("flowfile: node %q references unknown credential %q", fn.Name, credName)
			}
			n.CredentialIDs = append(n.CredentialIDs, id)
		}

		nodeIDs[fn.Name] = n.ID
		flow.Nodes = append(flow.Nodes, n)
	}

	for _, fe := range file.Workflow.Edges {
		sourceID, ok := nodeIDs[fe.Source]
		if !ok {
			return mflow.Flow{}, nil, fmt.Errorf("flowfile: edge source %q is not a node", fe.Source)
		}
		targetID, ok := nodeIDs[fe.Target]
		if !ok {
			return mflow.Flow{}, nil, fmt.Errorf("flowfile: edge target %q is not a node", fe.Target)
		}
		handle, err := parseHandle(fe.Handle)
		if err != nil {
			return mflow.Flow{}, nil, err
		}
		flow.Edges = append(flow.Edges, mflow.Edge{
			ID:           idwrap.NewNow(),
			FlowID:       flow.ID,
			SourceID:     sourceID,
			TargetID:     targetID,
			SourceHandle: handle,
		})
	}

	return flow, creds, nil
}

func parseHandle(handle string) (mflow.EdgeHandle, error) {
	switch handle {
	case "", "unspecified":
		return mflow.HandleUnspecified, nil
	case "then", "true":
		return mflow.HandleThen, nil
	case "else", "false":
		return mflow.HandleElse, nil
	default:
		return mflow.HandleUnspecified, fmt.Errorf("flowfile: unknown edge handle %q", handle)
	}
}
