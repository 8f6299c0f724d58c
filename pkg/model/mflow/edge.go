//nolint:revive // exported
package mflow

import (
	"errors"

	"github.com/s6s-labs/s6s-engine/pkg/idwrap"
)

type EdgeHandle = int32

const (
	HandleUnspecified EdgeHandle = iota
	HandleThen
	HandleElse
	HandleLength
)

var ErrEdgeNotFound = errors.New("edge not found")

// Edge connects two nodes. Edges carry branch labels for rendering and for
// the condition node's then/else handles; the local runner walks nodes in
// declaration order and does not consult them for scheduling.
type Edge struct {
	ID           idwrap.IDWrap
	FlowID       idwrap.IDWrap
	SourceID     idwrap.IDWrap
	TargetID     idwrap.IDWrap
	SourceHandle EdgeHandle
}

type EdgesMap map[idwrap.IDWrap]map[EdgeHandle][]idwrap.IDWrap

func NewEdge(id, sourceID, targetID idwrap.IDWrap, handle EdgeHandle) Edge {
	return Edge{
		ID:           id,
		SourceID:     sourceID,
		TargetID:     targetID,
		SourceHandle: handle,
	}
}

func NewEdgesMap(edges []Edge) EdgesMap {
	edgesMap := make(EdgesMap)
	for _, e := range edges {
		if _, ok := edgesMap[e.SourceID]; !ok {
			edgesMap[e.SourceID] = make(map[EdgeHandle][]idwrap.IDWrap)
		}
		edgesMap[e.SourceID][e.SourceHandle] = append(edgesMap[e.SourceID][e.SourceHandle], e.TargetID)
	}
	return edgesMap
}

func GetNextNodeID(edgesMap EdgesMap, sourceID idwrap.IDWrap, handle EdgeHandle) []idwrap.IDWrap {
	edges, ok := edgesMap[sourceID]
	if !ok {
		return nil
	}
	targets, ok := edges[handle]
	if !ok {
		return nil
	}
	return targets
}
