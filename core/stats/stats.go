// Package stats builds the plan statistics messages.
package stats

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/profile"
)

// Duration keys besides maneuver ids.
const (
	KeyTotal       = "Total"
	KeyExecution   = "Execution"
	KeyCalibration = "Calibration"
)

// Filler writes its results into a statistics message.
type Filler interface {
	FillStatistics(st *model.PlanStatistics)
}

// PreInput gathers what is known about a plan once loaded.
type PreInput struct {
	PlanID              string
	Properties          model.PlanProperties
	Profile             profile.Profile
	ExecDuration        float64
	CalibrationTime     float64
	Actions             map[string]int
	ComponentActiveTime map[string]float64
	Fuel                Filler
}

// Pre builds the pre-execution statistics. Durations hold each profiled
// maneuver duration; totals are only reported when the execution duration
// is known.
func Pre(in PreInput, now time.Time) model.PlanStatistics {
	st := model.PlanStatistics{
		ID:         uuid.New().String(),
		PlanID:     in.PlanID,
		Type:       model.StatisticsPre,
		Properties: in.Properties,
		Actions:    in.Actions,
		Timestamp:  now,
	}
	if in.Profile != nil && in.Profile.Size() > 0 {
		st.Durations = make(map[string]float64, in.Profile.Size()+3)
		var prev float64
		in.Profile.Range(func(id string, e profile.Entry) bool {
			if last, ok := e.Last(); ok {
				st.Durations[id] = last - prev
				prev = last
			}
			return true
		})
		if in.ExecDuration >= 0 {
			st.Durations[KeyExecution] = in.ExecDuration
			st.Durations[KeyCalibration] = in.CalibrationTime
			st.Durations[KeyTotal] = in.ExecDuration + in.CalibrationTime
		}
	}
	if len(in.ComponentActiveTime) > 0 {
		st.ComponentActiveTime = make(map[string]float64, len(in.ComponentActiveTime))
		for k, v := range in.ComponentActiveTime {
			st.ComponentActiveTime[k] = v
		}
	}
	if in.Fuel != nil {
		in.Fuel.FillStatistics(&st)
	}
	return st
}

// Runtime records what happens while a plan executes.
type Runtime struct {
	now func() time.Time
	st  model.PlanStatistics
}

// NewRuntime starts the execution report of a plan.
func NewRuntime(planID string, props model.PlanProperties, now func() time.Time) *Runtime {
	if now == nil {
		now = time.Now
	}
	return &Runtime{now: now, st: model.PlanStatistics{
		ID:         uuid.New().String(),
		PlanID:     planID,
		Type:       model.StatisticsPost,
		Properties: props,
	}}
}

func (r *Runtime) PlanStarted() { r.st.StartTime = r.now() }

// PlanStopped closes the report and any maneuver left open.
func (r *Runtime) PlanStopped() {
	t := r.now()
	r.closeCurrent(t)
	r.st.EndTime = t
	r.st.Timestamp = t
}

// ManeuverStarted opens a maneuver record, closing the previous one.
func (r *Runtime) ManeuverStarted(id string) {
	t := r.now()
	r.closeCurrent(t)
	r.st.Maneuvers = append(r.st.Maneuvers, model.ManeuverRecord{ID: id, Start: t})
}

// ManeuverDone closes the current maneuver record.
func (r *Runtime) ManeuverDone() { r.closeCurrent(r.now()) }

func (r *Runtime) closeCurrent(t time.Time) {
	if n := len(r.st.Maneuvers); n > 0 && r.st.Maneuvers[n-1].End.IsZero() {
		r.st.Maneuvers[n-1].End = t
	}
}

// FillCalibration records the calibration duration in seconds.
func (r *Runtime) FillCalibration(seconds float64) { r.st.CalibrationSeconds = seconds }

// Fill lets f add its results.
func (r *Runtime) Fill(f Filler) { f.FillStatistics(&r.st) }

// Message returns a copy of the report.
func (r *Runtime) Message() model.PlanStatistics {
	st := r.st
	st.Maneuvers = append([]model.ManeuverRecord(nil), r.st.Maneuvers...)
	return st
}
