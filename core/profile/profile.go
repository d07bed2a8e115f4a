// Package profile estimates how long each maneuver of a linear plan takes.
package profile

import (
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/plan"
)

// Entry holds the estimate of one maneuver.
type Entry struct {
	// Durations are cumulative seconds since plan start, one per segment.
	Durations []float64
	// Speed is the commanded speed in m/s.
	Speed float64
	// Distance travelled in metres.
	Distance float64
}

// Last returns the cumulative duration at the end of the maneuver.
func (e Entry) Last() (float64, bool) {
	if len(e.Durations) == 0 {
		return 0, false
	}
	return e.Durations[len(e.Durations)-1], true
}

// Profile maps maneuver ids to duration estimates.
type Profile interface {
	Parse(seq plan.Sequence, state *model.EstimatedState)
	Find(id string) (Entry, bool)
	Size() int
	// LastValid is the id of the last maneuver with an estimate, empty if
	// none.
	LastValid() string
	IsDurationFinite() bool
	Clear()
	// Range visits entries in sequence order until fn returns false.
	Range(fn func(id string, e Entry) bool)
}

var (
	_ Profile = (*TimeProfile)(nil)
	_ Profile = (*Static)(nil)
)
