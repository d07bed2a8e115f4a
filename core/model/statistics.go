package model

import "time"

// StatisticsType distinguishes pre-execution estimates from execution reports.
type StatisticsType int

const (
	StatisticsPre StatisticsType = iota
	StatisticsPost
)

var statisticsTypeNames = []string{"pre", "post"}

func (t StatisticsType) String() string { return enumName(statisticsTypeNames, int(t)) }

func (t StatisticsType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *StatisticsType) UnmarshalText(b []byte) error {
	v, err := parseEnum("statistics type", statisticsTypeNames, string(b))
	if err != nil {
		return err
	}
	*t = StatisticsType(v)
	return nil
}

// ManeuverRecord holds the execution window of one maneuver.
type ManeuverRecord struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"`
}

// Duration returns the execution time of the maneuver, zero if unfinished.
func (r ManeuverRecord) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// PlanStatistics summarises a plan before or after execution.
type PlanStatistics struct {
	ID         string         `json:"id"`
	PlanID     string         `json:"plan_id"`
	Type       StatisticsType `json:"type"`
	Properties PlanProperties `json:"properties"`
	// Durations maps maneuver ids, and "Total", to estimated seconds.
	Durations map[string]float64 `json:"durations,omitempty"`
	// Actions counts scheduled actions by category.
	Actions map[string]int `json:"actions,omitempty"`
	// ComponentActiveTime maps entity labels to seconds active.
	ComponentActiveTime map[string]float64 `json:"component_active_time,omitempty"`
	Fuel                map[string]float64 `json:"fuel,omitempty"`
	Maneuvers           []ManeuverRecord   `json:"maneuvers,omitempty"`
	CalibrationSeconds  float64            `json:"calibration_seconds,omitempty"`
	StartTime           time.Time          `json:"start_time,omitempty"`
	EndTime             time.Time          `json:"end_time,omitempty"`
	Timestamp           time.Time          `json:"timestamp"`
}
