package metrics

import (
	"time"

	"github.com/kilianp07/auvplan/core/model"
)

// ProgressSample is one progress computation of the running plan.
type ProgressSample struct {
	PlanID     string
	ManeuverID string
	// Progress and ETA are -1 when unknown.
	Progress float64
	ETA      float64
	Time     time.Time
}

// MetricsSink records plan progress for observability purposes.
type MetricsSink interface {
	RecordProgress(s ProgressSample) error
}

// PlanLifecycleEvent is a plan load, rejection, start, stop or clear.
type PlanLifecycleEvent struct {
	PlanID     string
	Action     string
	Properties model.PlanProperties
	Error      string
	Time       time.Time
}

// PlanLifecycleRecorder records plan lifecycle transitions.
type PlanLifecycleRecorder interface {
	RecordPlanLifecycle(ev PlanLifecycleEvent) error
}

// StatisticsRecorder records pre and post execution statistics.
type StatisticsRecorder interface {
	RecordStatistics(st model.PlanStatistics) error
}

// ManeuverEvent marks the start or completion of a maneuver.
type ManeuverEvent struct {
	PlanID     string
	ManeuverID string
	Kind       model.ManeuverKind
	Done       bool
	Time       time.Time
}

// ManeuverRecorder records maneuver transitions.
type ManeuverRecorder interface {
	RecordManeuver(ev ManeuverEvent) error
}

// ActivationEvent is an entity activation or deactivation request.
type ActivationEvent struct {
	PlanID string
	Entity string
	Active bool
	Reason string
	Time   time.Time
}

// ActivationRecorder records entity activation requests.
type ActivationRecorder interface {
	RecordActivation(ev ActivationEvent) error
}

// CalibrationEvent is the opening or closing of the calibration window.
type CalibrationEvent struct {
	PlanID  string
	Started bool
	// Elapsed is set when the window closes, in seconds.
	Elapsed float64
	Time    time.Time
}

// CalibrationRecorder records calibration windows.
type CalibrationRecorder interface {
	RecordCalibration(ev CalibrationEvent) error
}

// BusDropRecorder records events dropped by a slow bus subscriber.
type BusDropRecorder interface {
	RecordBusDrops(total uint64) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordProgress(ProgressSample) error { return nil }

func (NopSink) RecordPlanLifecycle(PlanLifecycleEvent) error { return nil }
func (NopSink) RecordStatistics(model.PlanStatistics) error  { return nil }
func (NopSink) RecordManeuver(ManeuverEvent) error           { return nil }
func (NopSink) RecordActivation(ActivationEvent) error       { return nil }
func (NopSink) RecordCalibration(CalibrationEvent) error     { return nil }
func (NopSink) RecordBusDrops(uint64) error                  { return nil }
