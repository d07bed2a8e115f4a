package events

import (
	"time"

	"github.com/kilianp07/auvplan/core/model"
)

// PlanAction names a plan lifecycle change.
type PlanAction string

const (
	PlanLoaded   PlanAction = "loaded"
	PlanRejected PlanAction = "rejected"
	PlanStarted  PlanAction = "started"
	PlanStopped  PlanAction = "stopped"
	PlanCleared  PlanAction = "cleared"
)

// PlanEvent is published on every plan lifecycle change.
type PlanEvent struct {
	PlanID     string
	Action     PlanAction
	Properties model.PlanProperties
	Err        error
	Time       time.Time
}

// ManeuverEvent is published when a maneuver starts or completes.
type ManeuverEvent struct {
	PlanID     string
	ManeuverID string
	Kind       model.ManeuverKind
	Done       bool
	Time       time.Time
}

// ProgressEvent carries a progress update. Progress and ETA are -1 when
// unknown.
type ProgressEvent struct {
	PlanID     string
	ManeuverID string
	Progress   float64
	ETA        float64
	Time       time.Time
}

// CalibrationEvent is published when the calibration window opens or
// closes. Elapsed is set on close.
type CalibrationEvent struct {
	PlanID  string
	Started bool
	Elapsed float64
	Time    time.Time
}

// StatisticsEvent carries a statistics report.
type StatisticsEvent struct {
	Statistics model.PlanStatistics
}
