package plan

import (
	"fmt"

	"github.com/kilianp07/auvplan/core/model"
)

// SequenceError reports a transition towards a maneuver missing from the
// graph. It means the provider broke its own invariant and is not
// recoverable.
type SequenceError struct {
	ManeuverID string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("found invalid maneuver id '%s'", e.ManeuverID)
}

// Sequence is the ordered list of maneuvers along the primary branch.
type Sequence []*model.PlanManeuver

// IDs returns the maneuver ids in order.
func (s Sequence) IDs() []string {
	ids := make([]string, len(s))
	for i, m := range s {
		ids[i] = m.ID
	}
	return ids
}

// Index returns the position of the maneuver id, or -1.
func (s Sequence) Index(id string) int {
	for i, m := range s {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Linearize follows first transitions from the start node. A transition back
// to an already visited maneuver yields an empty sequence flagged
// non-linear, infinite and cyclical; this is a plan property, not an error.
func Linearize(p Provider) (Sequence, model.PlanProperties, error) {
	var props model.PlanProperties
	var seq Sequence

	node := p.StartNode()
	id := ""
	if node != nil {
		id = node.ID()
	}
	visited := make(map[string]struct{})
	for {
		if node == nil {
			return nil, props, &SequenceError{ManeuverID: id}
		}
		seq = append(seq, node.Maneuver)
		visited[node.ID()] = struct{}{}

		if len(node.Transitions) == 0 {
			break
		}
		dest := node.Transitions[0].Dest
		if dest == model.TransitionDone {
			break
		}
		if _, seen := visited[dest]; seen {
			props.Set(model.PropNonLinear | model.PropInfinite | model.PropCyclical)
			return Sequence{}, props, nil
		}
		id = dest
		node = p.FindNode(dest)
	}
	return seq, props, nil
}
