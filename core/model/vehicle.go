package model

import "time"

// EstimatedState is the navigation solution of the vehicle.
type EstimatedState struct {
	Lat      float64 `json:"lat"` // degrees
	Lon      float64 `json:"lon"` // degrees
	Depth    float64 `json:"depth"`
	Altitude float64 `json:"altitude"`
	U        float64 `json:"u"` // forward speed in m/s
}

// OperationMode is the vehicle's overall operating mode.
type OperationMode int

const (
	OpModeService OperationMode = iota
	OpModeCalibration
	OpModeError
	OpModeManeuver
	OpModeExternal
	OpModeBoot
)

var opModeNames = []string{"service", "calibration", "error", "maneuver", "external", "boot"}

func (m OperationMode) String() string { return enumName(opModeNames, int(m)) }

func (m OperationMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *OperationMode) UnmarshalText(b []byte) error {
	v, err := parseEnum("operation mode", opModeNames, string(b))
	if err != nil {
		return err
	}
	*m = OperationMode(v)
	return nil
}

// VehicleState reports the vehicle operating mode.
type VehicleState struct {
	OpMode    OperationMode `json:"op_mode"`
	LastError string        `json:"last_error,omitempty"`
}

// ManeuverState is the state reported by the maneuver controller.
type ManeuverState int

const (
	ManeuverExecuting ManeuverState = iota
	ManeuverDone
	ManeuverError
	ManeuverStopped
)

var maneuverStateNames = []string{"executing", "done", "error", "stopped"}

func (s ManeuverState) String() string { return enumName(maneuverStateNames, int(s)) }

func (s ManeuverState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ManeuverState) UnmarshalText(b []byte) error {
	v, err := parseEnum("maneuver state", maneuverStateNames, string(b))
	if err != nil {
		return err
	}
	*s = ManeuverState(v)
	return nil
}

// ManeuverControlState is the live feedback of the active maneuver.
type ManeuverControlState struct {
	State ManeuverState `json:"state"`
	// ETA is the time left in the active maneuver, in seconds.
	ETA uint16 `json:"eta"`
	// Segment is the 1-based index of the active segment (path point or row)
	// for multi-segment maneuvers, zero when not reported. ETA then covers
	// only the active segment.
	Segment int    `json:"segment,omitempty"`
	Info    string `json:"info,omitempty"`
}

// FuelLevel is the energy left on board.
type FuelLevel struct {
	Value      float64   `json:"value"` // percentage
	Confidence float64   `json:"confidence"`
	Time       time.Time `json:"time"`
}

// EntityInfo describes an on-board entity that plan actions may toggle.
type EntityInfo struct {
	Label     string `json:"label" yaml:"label"`
	Component string `json:"component" yaml:"component"`
	// ActivationTime is the number of seconds the entity needs to become
	// operational once activated.
	ActivationTime   uint16 `json:"activation_time" yaml:"activation_time"`
	DeactivationTime uint16 `json:"deactivation_time" yaml:"deactivation_time"`
}

// EntityState is the activation state reported by an entity.
type EntityState int

const (
	EntityInactive EntityState = iota
	EntityActive
	EntityActivating
	EntityDeactivating
	EntityActivationFailed
	EntityDeactivationFailed
)

var entityStateNames = []string{"inactive", "active", "activating", "deactivating", "activation_failed", "deactivation_failed"}

func (s EntityState) String() string { return enumName(entityStateNames, int(s)) }

func (s EntityState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *EntityState) UnmarshalText(b []byte) error {
	v, err := parseEnum("entity state", entityStateNames, string(b))
	if err != nil {
		return err
	}
	*s = EntityState(v)
	return nil
}

// EntityActivationState reports the activation state of one entity.
type EntityActivationState struct {
	State EntityState `json:"state"`
	Error string      `json:"error,omitempty"`
}
