// Package safety checks maneuvers against the vehicle's operating limits.
package safety

import "github.com/kilianp07/auvplan/core/model"

// DepthMargin is the tolerance, in metres, added to the maximum depth.
const DepthMargin = 1.0

// Validator rejects maneuvers that would take the vehicle deeper than
// MaxDepth plus DepthMargin.
type Validator struct {
	MaxDepth float64
}

// IsDepthSafe reports whether every depth-referenced coordinate of m is
// within limits. Maneuvers without a depth reference are always safe.
func (v Validator) IsDepthSafe(m model.Maneuver) bool {
	switch man := m.(type) {
	case *model.Elevator:
		return v.check(man.StartZ, man.StartZUnits) && v.check(man.EndZ, man.EndZUnits)
	case *model.ScheduledGoto:
		return v.check(man.Z, man.ZUnits) && v.check(man.TravelZ, man.TravelZUnits)
	case model.VerticalReferenced:
		return v.check(man.Vertical())
	default:
		return true
	}
}

func (v Validator) check(z float64, units model.ZUnits) bool {
	if units != model.ZUnitsDepth {
		return true
	}
	return z <= v.MaxDepth+DepthMargin
}
