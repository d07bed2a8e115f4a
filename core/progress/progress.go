// Package progress estimates the completion percentage of a running plan.
package progress

import (
	"github.com/kilianp07/auvplan/core/model"
)

// Unknown is returned when progress cannot be computed.
const Unknown = -1.0

// Func maps the live state of the current maneuver to the percentage of the
// plan execution time already elapsed. durations are the cumulative samples
// of the maneuver.
type Func func(m model.Maneuver, mcs model.ManeuverControlState, durations []float64, execDuration float64) float64

// Calibration is the view of the calibration window the estimator needs.
type Calibration interface {
	NotStarted() bool
	InProgress() bool
	Remaining() float64
}

// Input gathers the runtime state progress depends on.
type Input struct {
	Enabled       bool
	Linear        bool
	ProfileSize   int
	Calibration   Calibration
	ExecDuration  float64
	TotalDuration float64
	// Maneuver is the current maneuver, nil if none is loaded.
	Maneuver model.Maneuver
	// Durations of the current maneuver; Found is false when the profile
	// has no entry for it.
	Durations []float64
	Found     bool
	// Beyond is set once the last estimated maneuver completed.
	Beyond bool
}

// Estimator caches the last reported progress and never reports less
// within one plan execution.
type Estimator struct {
	fn    Func
	value float64
}

// NewEstimator returns an estimator using fn for the current maneuver, or
// Compute when fn is nil.
func NewEstimator(fn Func) *Estimator {
	if fn == nil {
		fn = Compute
	}
	return &Estimator{fn: fn, value: Unknown}
}

// Value returns the last cached progress.
func (e *Estimator) Value() float64 { return e.value }

// Reset forgets the cached progress.
func (e *Estimator) Reset() { e.value = Unknown }

// Compute returns the plan progress in [0,100] or Unknown.
func (e *Estimator) Compute(in Input, mcs *model.ManeuverControlState) float64 {
	if !in.Enabled || !in.Linear || in.ProfileSize == 0 {
		return Unknown
	}
	if in.Calibration != nil && in.Calibration.NotStarted() {
		return Unknown
	}
	if in.TotalDuration <= 0 {
		return e.value
	}

	if in.Calibration != nil && in.Calibration.InProgress() {
		left := in.Calibration.Remaining() + in.ExecDuration
		e.value = 100 * clamp(1-left/in.TotalDuration)
		return e.value
	}

	if mcs == nil || mcs.State != model.ManeuverExecuting || mcs.ETA == 0 {
		return e.value
	}

	if !in.Found {
		if in.Beyond {
			e.value = 100
			return e.value
		}
		return Unknown
	}
	if len(in.Durations) == 0 || in.Maneuver == nil {
		return e.value
	}

	execProg := e.fn(in.Maneuver, *mcs, in.Durations, in.ExecDuration)
	execPct := in.ExecDuration / in.TotalDuration * 100
	prog := 100 - execPct*(1-execProg/100)
	if prog < 0 {
		if e.value < 0 {
			return Unknown
		}
		return e.value
	}
	if prog > e.value {
		e.value = prog
	}
	return e.value
}

// Compute is the default Func. The elapsed execution time is the end of the
// current maneuver minus the time left in it, which is the reported ETA plus,
// for segmented maneuvers, the remaining segments.
func Compute(m model.Maneuver, mcs model.ManeuverControlState, durations []float64, execDuration float64) float64 {
	if len(durations) == 0 || execDuration <= 0 {
		return Unknown
	}
	last := durations[len(durations)-1]
	left := float64(mcs.ETA)
	if segmented(m) && mcs.Segment > 0 && mcs.Segment <= len(durations) {
		left += last - durations[mcs.Segment-1]
	}
	return 100 * clamp((last-left)/execDuration)
}

func segmented(m model.Maneuver) bool {
	switch m.(type) {
	case *model.FollowPath, *model.Rows, *model.RowsCoverage:
		return true
	default:
		return false
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
