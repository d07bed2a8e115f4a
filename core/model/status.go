package model

import "time"

// PlanState is the lifecycle stage of the supervised plan.
type PlanState int

const (
	PlanReady PlanState = iota
	PlanLoaded
	PlanCalibrating
	PlanExecuting
)

var planStateNames = []string{"ready", "loaded", "calibrating", "executing"}

func (s PlanState) String() string { return enumName(planStateNames, int(s)) }

func (s PlanState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *PlanState) UnmarshalText(b []byte) error {
	v, err := parseEnum("plan state", planStateNames, string(b))
	if err != nil {
		return err
	}
	*s = PlanState(v)
	return nil
}

// PlanStatus is a snapshot of the supervised plan. Progress and ETA are
// -1 while unknown.
type PlanStatus struct {
	PlanID            string         `json:"plan_id,omitempty"`
	State             PlanState      `json:"state"`
	ManeuverID        string         `json:"maneuver_id,omitempty"`
	Properties        PlanProperties `json:"properties"`
	Progress          float64        `json:"progress"`
	ETA               float64        `json:"eta"`
	Calibration       string         `json:"calibration"`
	ExecutionDuration float64        `json:"execution_duration"`
	TotalDuration     float64        `json:"total_duration"`
	LastError         string         `json:"last_error,omitempty"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
