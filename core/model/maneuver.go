package model

import (
	"errors"
	"fmt"
)

// ZUnits tells how a vertical coordinate is referenced.
type ZUnits int

const (
	ZUnitsNone ZUnits = iota
	ZUnitsDepth
	ZUnitsAltitude
	ZUnitsHeight
)

var zUnitsNames = []string{"none", "depth", "altitude", "height"}

func (z ZUnits) String() string { return enumName(zUnitsNames, int(z)) }

func (z ZUnits) MarshalText() ([]byte, error) { return []byte(z.String()), nil }

func (z *ZUnits) UnmarshalText(b []byte) error {
	v, err := parseEnum("z units", zUnitsNames, string(b))
	if err != nil {
		return err
	}
	*z = ZUnits(v)
	return nil
}

// SpeedUnits tells how a speed reference is expressed.
type SpeedUnits int

const (
	SpeedUnitsMPS SpeedUnits = iota
	SpeedUnitsRPM
	SpeedUnitsPercentage
)

var speedUnitsNames = []string{"mps", "rpm", "percentage"}

func (s SpeedUnits) String() string { return enumName(speedUnitsNames, int(s)) }

func (s SpeedUnits) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *SpeedUnits) UnmarshalText(b []byte) error {
	v, err := parseEnum("speed units", speedUnitsNames, string(b))
	if err != nil {
		return err
	}
	*s = SpeedUnits(v)
	return nil
}

// ManeuverKind identifies the concrete type behind a Maneuver.
type ManeuverKind string

const (
	KindGoto               ManeuverKind = "goto"
	KindPopUp              ManeuverKind = "popup"
	KindLaunch             ManeuverKind = "launch"
	KindLoiter             ManeuverKind = "loiter"
	KindRows               ManeuverKind = "rows"
	KindRowsCoverage       ManeuverKind = "rows_coverage"
	KindFollowPath         ManeuverKind = "follow_path"
	KindYoYo               ManeuverKind = "yoyo"
	KindStationKeeping     ManeuverKind = "station_keeping"
	KindCompassCalibration ManeuverKind = "compass_calibration"
	KindElevator           ManeuverKind = "elevator"
	KindScheduledGoto      ManeuverKind = "scheduled_goto"
	KindDislodge           ManeuverKind = "dislodge"
	KindTeleoperation      ManeuverKind = "teleoperation"
)

// ErrUnknownManeuverKind is returned when decoding a maneuver of an unregistered kind.
var ErrUnknownManeuverKind = errors.New("unknown maneuver kind")

// Maneuver is a single vehicle behaviour with kind-specific parameters.
type Maneuver interface {
	Kind() ManeuverKind
}

// VerticalReferenced is implemented by maneuvers carrying a single vertical
// coordinate.
type VerticalReferenced interface {
	Vertical() (z float64, units ZUnits)
}

// Positioned is implemented by maneuvers with a target location.
type Positioned interface {
	Position() (lat, lon float64)
}

// SpeedReferenced is implemented by maneuvers with a speed reference.
type SpeedReferenced interface {
	SpeedSetting() (speed float64, units SpeedUnits)
}

// Waypoint is a target location in degrees plus a vertical reference.
type Waypoint struct {
	Lat    float64 `json:"lat" yaml:"lat"`
	Lon    float64 `json:"lon" yaml:"lon"`
	Z      float64 `json:"z" yaml:"z"`
	ZUnits ZUnits  `json:"z_units" yaml:"z_units"`
}

func (w Waypoint) Vertical() (float64, ZUnits) { return w.Z, w.ZUnits }

func (w Waypoint) Position() (float64, float64) { return w.Lat, w.Lon }

// SpeedRef is a speed reference.
type SpeedRef struct {
	Speed      float64    `json:"speed" yaml:"speed"`
	SpeedUnits SpeedUnits `json:"speed_units" yaml:"speed_units"`
}

func (s SpeedRef) SpeedSetting() (float64, SpeedUnits) { return s.Speed, s.SpeedUnits }

type Goto struct {
	Waypoint `yaml:",inline"`
	SpeedRef `yaml:",inline"`
	Timeout  uint16 `json:"timeout" yaml:"timeout"`
}

func (*Goto) Kind() ManeuverKind { return KindGoto }

type PopUp struct {
	Waypoint `yaml:",inline"`
	SpeedRef `yaml:",inline"`
	Duration uint16  `json:"duration" yaml:"duration"`
	Radius   float64 `json:"radius" yaml:"radius"`
}

func (*PopUp) Kind() ManeuverKind { return KindPopUp }

type Launch struct {
	Waypoint `yaml:",inline"`
	SpeedRef `yaml:",inline"`
	Timeout  uint16 `json:"timeout" yaml:"timeout"`
}

func (*Launch) Kind() ManeuverKind { return KindLaunch }

// Loiter circles a point. A zero Duration loiters forever.
type Loiter struct {
	Waypoint `yaml:",inline"`
	SpeedRef `yaml:",inline"`
	Duration uint16  `json:"duration" yaml:"duration"`
	Radius   float64 `json:"radius" yaml:"radius"`
}

func (*Loiter) Kind() ManeuverKind { return KindLoiter }

// Rows sweeps a Width x Length area in parallel rows HStep metres apart.
// Lat/Lon is the first corner; Bearing is in degrees.
type Rows struct {
	Waypoint `yaml:",inline"`
	SpeedRef `yaml:",inline"`
	Bearing  float64 `json:"bearing" yaml:"bearing"`
	Width    float64 `json:"width" yaml:"width"`
	Length   float64 `json:"length" yaml:"length"`
	HStep    float64 `json:"hstep" yaml:"hstep"`
}

func (*Rows) Kind() ManeuverKind { return KindRows }

// RowsCoverage sweeps an area with row spacing derived from the sensor swath
// and the requested overlap percentage.
type RowsCoverage struct {
	Waypoint    `yaml:",inline"`
	SpeedRef    `yaml:",inline"`
	Bearing     float64 `json:"bearing" yaml:"bearing"`
	Width       float64 `json:"width" yaml:"width"`
	Length      float64 `json:"length" yaml:"length"`
	SensorWidth float64 `json:"sensor_width" yaml:"sensor_width"`
	Overlap     float64 `json:"overlap" yaml:"overlap"`
}

func (*RowsCoverage) Kind() ManeuverKind { return KindRowsCoverage }

// RowSpacing returns the distance between consecutive rows.
func (r *RowsCoverage) RowSpacing() float64 {
	ov := r.Overlap
	if ov < 0 {
		ov = 0
	}
	if ov >= 100 {
		ov = 99
	}
	return r.SensorWidth * (1 - ov/100)
}

// PathPoint is an offset in metres (north, east, down) from the path origin.
type PathPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

type FollowPath struct {
	Waypoint `yaml:",inline"`
	SpeedRef `yaml:",inline"`
	Points   []PathPoint `json:"points" yaml:"points"`
}

func (*FollowPath) Kind() ManeuverKind { return KindFollowPath }

type YoYo struct {
	Waypoint  `yaml:",inline"`
	SpeedRef  `yaml:",inline"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Pitch     float64 `json:"pitch" yaml:"pitch"`
}

func (*YoYo) Kind() ManeuverKind { return KindYoYo }

// StationKeeping holds position. A zero Duration keeps station forever.
type StationKeeping struct {
	Waypoint `yaml:",inline"`
	SpeedRef `yaml:",inline"`
	Duration uint16  `json:"duration" yaml:"duration"`
	Radius   float64 `json:"radius" yaml:"radius"`
}

func (*StationKeeping) Kind() ManeuverKind { return KindStationKeeping }

type CompassCalibration struct {
	Waypoint  `yaml:",inline"`
	SpeedRef  `yaml:",inline"`
	Duration  uint16  `json:"duration" yaml:"duration"`
	Radius    float64 `json:"radius" yaml:"radius"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Pitch     float64 `json:"pitch" yaml:"pitch"`
}

func (*CompassCalibration) Kind() ManeuverKind { return KindCompassCalibration }

// Elevator changes vertical position between two references while
// circling a point.
type Elevator struct {
	Lat         float64 `json:"lat" yaml:"lat"`
	Lon         float64 `json:"lon" yaml:"lon"`
	StartZ      float64 `json:"start_z" yaml:"start_z"`
	StartZUnits ZUnits  `json:"start_z_units" yaml:"start_z_units"`
	EndZ        float64 `json:"end_z" yaml:"end_z"`
	EndZUnits   ZUnits  `json:"end_z_units" yaml:"end_z_units"`
	Radius      float64 `json:"radius" yaml:"radius"`
	SpeedRef    `yaml:",inline"`
}

func (*Elevator) Kind() ManeuverKind { return KindElevator }

func (e *Elevator) Position() (float64, float64) { return e.Lat, e.Lon }

// ScheduledGoto travels at TravelZ and must reach the target at ArrivalTime
// (unix seconds).
type ScheduledGoto struct {
	Waypoint     `yaml:",inline"`
	SpeedRef     `yaml:",inline"`
	TravelZ      float64 `json:"travel_z" yaml:"travel_z"`
	TravelZUnits ZUnits  `json:"travel_z_units" yaml:"travel_z_units"`
	ArrivalTime  float64 `json:"arrival_time" yaml:"arrival_time"`
}

func (*ScheduledGoto) Kind() ManeuverKind { return KindScheduledGoto }

type Dislodge struct {
	RPM       float64 `json:"rpm" yaml:"rpm"`
	Direction string  `json:"direction" yaml:"direction"`
	Timeout   uint16  `json:"timeout" yaml:"timeout"`
}

func (*Dislodge) Kind() ManeuverKind { return KindDislodge }

type Teleoperation struct {
	Custom string `json:"custom" yaml:"custom"`
}

func (*Teleoperation) Kind() ManeuverKind { return KindTeleoperation }

var maneuverKinds = map[ManeuverKind]func() Maneuver{
	KindGoto:               func() Maneuver { return &Goto{} },
	KindPopUp:              func() Maneuver { return &PopUp{} },
	KindLaunch:             func() Maneuver { return &Launch{} },
	KindLoiter:             func() Maneuver { return &Loiter{} },
	KindRows:               func() Maneuver { return &Rows{} },
	KindRowsCoverage:       func() Maneuver { return &RowsCoverage{} },
	KindFollowPath:         func() Maneuver { return &FollowPath{} },
	KindYoYo:               func() Maneuver { return &YoYo{} },
	KindStationKeeping:     func() Maneuver { return &StationKeeping{} },
	KindCompassCalibration: func() Maneuver { return &CompassCalibration{} },
	KindElevator:           func() Maneuver { return &Elevator{} },
	KindScheduledGoto:      func() Maneuver { return &ScheduledGoto{} },
	KindDislodge:           func() Maneuver { return &Dislodge{} },
	KindTeleoperation:      func() Maneuver { return &Teleoperation{} },
}

// NewManeuver returns an empty maneuver of the given kind.
func NewManeuver(kind ManeuverKind) (Maneuver, error) {
	f, ok := maneuverKinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownManeuverKind, kind)
	}
	return f(), nil
}

// Kinds returns every registered maneuver kind.
func Kinds() []ManeuverKind {
	out := make([]ManeuverKind, 0, len(maneuverKinds))
	for k := range maneuverKinds {
		out = append(out, k)
	}
	return out
}
