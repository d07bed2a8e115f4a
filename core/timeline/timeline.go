// Package timeline turns duration estimates into per-maneuver ETA windows.
//
// ETAs are seconds remaining until the end of the plan, so they decrease
// along the sequence.
package timeline

import (
	"math"

	"github.com/kilianp07/auvplan/core/plan"
	"github.com/kilianp07/auvplan/core/profile"
)

// Unknown marks an ETA that cannot be estimated.
const Unknown = -1.0

// ETA is the window of one maneuver.
type ETA struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ManeuverETA pairs a maneuver id with its window.
type ManeuverETA struct {
	ID string `json:"id"`
	ETA
}

// DurationSource is the part of a profile the builder needs.
type DurationSource interface {
	Find(id string) (profile.Entry, bool)
}

// Timeline holds the windows of a linear plan.
type Timeline struct {
	maneuvers []ManeuverETA
	index     map[string]int
	planETA   float64
}

// Build computes the window of every maneuver in seq. The first maneuver
// starts at execDuration; each next one starts where its predecessor ends.
// A maneuver without estimate ends at Unknown.
func Build(execDuration float64, src DurationSource, seq plan.Sequence) *Timeline {
	tl := &Timeline{index: make(map[string]int, len(seq)), planETA: execDuration}
	start := execDuration
	for i, pm := range seq {
		end := Unknown
		if e, ok := src.Find(pm.ID); ok {
			if last, ok := e.Last(); ok {
				end = execDuration - last
			}
		}
		tl.maneuvers = append(tl.maneuvers, ManeuverETA{ID: pm.ID, ETA: ETA{Start: start, End: end}})
		tl.index[pm.ID] = i
		start = end
	}
	return tl
}

// SetPlanETA sets the plan-level ETA to the later of the scheduler's
// earliest feasible completion and the execution duration.
func (t *Timeline) SetPlanETA(earliest float64) {
	t.planETA = math.Max(earliest, t.planETA)
}

func (t *Timeline) PlanETA() float64 { return t.planETA }

// Find returns the window of a maneuver.
func (t *Timeline) Find(id string) (ETA, bool) {
	i, ok := t.index[id]
	if !ok {
		return ETA{}, false
	}
	return t.maneuvers[i].ETA, true
}

// Maneuvers returns every window in sequence order.
func (t *Timeline) Maneuvers() []ManeuverETA {
	out := make([]ManeuverETA, len(t.maneuvers))
	copy(out, t.maneuvers)
	return out
}
