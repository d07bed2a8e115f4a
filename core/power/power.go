// Package power models the electrical consumption of the vehicle.
package power

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// ErrInvalidModel is returned when the power configuration is unusable.
var ErrInvalidModel = errors.New("invalid power model")

// Config describes the consumption of the vehicle. Powers are in watts.
type Config struct {
	// Speeds (m/s) and Power (W) are the propulsion consumption table.
	Speeds            []float64          `json:"speeds" yaml:"speeds"`
	Power             []float64          `json:"power" yaml:"power"`
	HotelLoad         float64            `json:"hotel_load" yaml:"hotel_load"`
	IMUPower          float64            `json:"imu_power" yaml:"imu_power"`
	BatteryCapacityWh float64            `json:"battery_capacity_wh" yaml:"battery_capacity_wh"`
	Components        map[string]float64 `json:"components" yaml:"components"`
}

// Model answers consumption queries.
type Model struct {
	propulsion interp.PiecewiseLinear
	cfg        Config
}

// New validates cfg and builds the model.
func New(cfg Config) (*Model, error) {
	if len(cfg.Speeds) < 2 || len(cfg.Speeds) != len(cfg.Power) {
		return nil, fmt.Errorf("%w: propulsion table needs at least 2 matching rows (speeds=%d power=%d)", ErrInvalidModel, len(cfg.Speeds), len(cfg.Power))
	}
	for i := 1; i < len(cfg.Speeds); i++ {
		if !(cfg.Speeds[i] > cfg.Speeds[i-1]) {
			return nil, fmt.Errorf("%w: speeds are not strictly increasing", ErrInvalidModel)
		}
	}
	for _, p := range cfg.Power {
		if p < 0 {
			return nil, fmt.Errorf("%w: negative propulsion power", ErrInvalidModel)
		}
	}
	if cfg.BatteryCapacityWh <= 0 {
		return nil, fmt.Errorf("%w: battery capacity must be positive", ErrInvalidModel)
	}
	if cfg.HotelLoad < 0 || cfg.IMUPower < 0 {
		return nil, fmt.Errorf("%w: negative load", ErrInvalidModel)
	}
	m := &Model{cfg: cfg}
	_ = m.propulsion.Fit(cfg.Speeds, cfg.Power)
	return m, nil
}

// Propulsion returns the propulsion power at the given speed.
func (m *Model) Propulsion(mps float64) float64 { return m.propulsion.Predict(mps) }

func (m *Model) HotelLoad() float64 { return m.cfg.HotelLoad }

func (m *Model) IMUPower() float64 { return m.cfg.IMUPower }

func (m *Model) BatteryCapacityWh() float64 { return m.cfg.BatteryCapacityWh }

// Component returns the power drawn by a component when active, zero if
// unknown.
func (m *Model) Component(name string) float64 { return m.cfg.Components[name] }
