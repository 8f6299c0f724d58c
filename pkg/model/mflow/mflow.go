//nolint:revive // exported
package mflow

import "github.com/s6s-labs/s6s-engine/pkg/idwrap"

type Flow struct {
	ID       idwrap.IDWrap
	Name     string
	Nodes    []Node
	Edges    []Edge
	IsActive bool
}

// NodeByName returns the first node with the given name.
func (f Flow) NodeByName(name string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}
