// Package plan builds the maneuver graph of a plan specification and
// linearizes it into the execution sequence used for duration and progress
// estimation.
//
// Only the first transition of each node is followed. Plans whose nodes
// carry several transitions keep their full graph for execution, but
// duration, timeline and progress only model the primary branch.
package plan

import (
	"errors"
	"fmt"

	"github.com/kilianp07/auvplan/core/model"
)

// ErrInvalidGraph is returned when a plan specification cannot form a graph.
var ErrInvalidGraph = errors.New("invalid plan graph")

// Node is a maneuver together with its ordered outgoing transitions.
type Node struct {
	Maneuver    *model.PlanManeuver
	Transitions []*model.PlanTransition
}

// ID returns the maneuver identifier.
func (n *Node) ID() string { return n.Maneuver.ID }

// IsTerminal reports whether the node ends the plan when it completes.
func (n *Node) IsTerminal() bool {
	return len(n.Transitions) == 0 || n.Transitions[0].Dest == model.TransitionDone
}

// Provider exposes a plan graph.
type Provider interface {
	ID() string
	Spec() *model.PlanSpecification
	StartNode() *Node
	FindNode(id string) *Node
	Nodes() []*Node
}

// Graph is the default Provider built from a plan specification.
type Graph struct {
	spec  *model.PlanSpecification
	nodes []*Node
	index map[string]*Node
	start *Node
}

// NewGraph validates spec and builds its graph. Every transition must
// start from and lead to a known maneuver, or to model.TransitionDone.
func NewGraph(spec *model.PlanSpecification) (*Graph, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil specification", ErrInvalidGraph)
	}
	if len(spec.Maneuvers) == 0 {
		return nil, fmt.Errorf("%w: plan %s has no maneuvers", ErrInvalidGraph, spec.ID)
	}
	g := &Graph{spec: spec, index: make(map[string]*Node, len(spec.Maneuvers))}
	for i := range spec.Maneuvers {
		pm := &spec.Maneuvers[i]
		if pm.ID == "" {
			return nil, fmt.Errorf("%w: maneuver #%d has no id", ErrInvalidGraph, i)
		}
		if pm.ID == model.TransitionDone {
			return nil, fmt.Errorf("%w: %s is a reserved id", ErrInvalidGraph, pm.ID)
		}
		if pm.Data == nil {
			return nil, fmt.Errorf("%w: maneuver %s has no data", ErrInvalidGraph, pm.ID)
		}
		if _, dup := g.index[pm.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate maneuver id %s", ErrInvalidGraph, pm.ID)
		}
		n := &Node{Maneuver: pm}
		g.nodes = append(g.nodes, n)
		g.index[pm.ID] = n
	}
	for i := range spec.Transitions {
		tr := &spec.Transitions[i]
		src, ok := g.index[tr.Source]
		if !ok {
			return nil, fmt.Errorf("%w: transition from unknown maneuver %s", ErrInvalidGraph, tr.Source)
		}
		if tr.Dest != model.TransitionDone {
			if _, ok := g.index[tr.Dest]; !ok {
				return nil, fmt.Errorf("%w: transition to unknown maneuver %s", ErrInvalidGraph, tr.Dest)
			}
		}
		src.Transitions = append(src.Transitions, tr)
	}
	start, ok := g.index[spec.StartManeuver]
	if !ok {
		return nil, fmt.Errorf("%w: unknown start maneuver %q", ErrInvalidGraph, spec.StartManeuver)
	}
	g.start = start
	return g, nil
}

func (g *Graph) ID() string { return g.spec.ID }

func (g *Graph) Spec() *model.PlanSpecification { return g.spec }

func (g *Graph) StartNode() *Node { return g.start }

// FindNode returns the node with the given id or nil.
func (g *Graph) FindNode(id string) *Node { return g.index[id] }

// Nodes returns the nodes in specification order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Branching reports whether any node has more than one outgoing transition.
func (g *Graph) Branching() bool {
	for _, n := range g.nodes {
		if len(n.Transitions) > 1 {
			return true
		}
	}
	return false
}
