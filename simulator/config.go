package simulator

import (
	"errors"
	"fmt"
	"time"
)

// Config holds parameters for the simulator.
type Config struct {
	// Step is the virtual time advanced on every tick.
	Step time.Duration `json:"step"`
	// SampleEvery is the interval between two recorded progress points.
	SampleEvery time.Duration `json:"sample_every"`
	// MaxDuration bounds the virtual execution time, for cyclic plans.
	MaxDuration time.Duration `json:"max_duration"`
	// SpeedFactor is the ratio between the actual and the estimated
	// vehicle speed.
	SpeedFactor float64 `json:"speed_factor"`
	// FallbackManeuverTime is used for maneuvers without an estimate.
	FallbackManeuverTime time.Duration `json:"fallback_maneuver_time"`
	AckLatency           time.Duration `json:"ack_latency"`
	DropRate             float64       `json:"drop_rate"`
	Seed                 int64         `json:"seed"`
	// FuelInterval is the period of the fuel level reports.
	FuelInterval time.Duration `json:"fuel_interval"`
	// Realtime paces ticks on the wall clock.
	Realtime bool `json:"realtime"`

	BatteryProfile string  `json:"battery_profile"`
	CapacityWh     float64 `json:"capacity_wh"`
	FuelLevel      float64 `json:"fuel_level"`
	DrawW          float64 `json:"draw_w"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Step <= 0 {
		c.Step = time.Second
	}
	if c.SampleEvery <= 0 {
		c.SampleEvery = c.Step
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 24 * time.Hour
	}
	if c.SpeedFactor == 0 {
		c.SpeedFactor = 1
	}
	if c.FallbackManeuverTime <= 0 {
		c.FallbackManeuverTime = time.Minute
	}
	if c.FuelInterval <= 0 {
		c.FuelInterval = 10 * time.Second
	}
	applyBatteryProfile(c)
	if c.CapacityWh == 0 {
		c.CapacityWh = 1500
	}
	if c.FuelLevel == 0 {
		c.FuelLevel = 100
	}
	if c.DrawW == 0 {
		c.DrawW = 60
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	var errs []error
	if c.SpeedFactor <= 0 {
		errs = append(errs, fmt.Errorf("speed_factor must be positive, got %v", c.SpeedFactor))
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		errs = append(errs, fmt.Errorf("drop_rate must be within [0,1], got %v", c.DropRate))
	}
	if c.AckLatency < 0 {
		errs = append(errs, errors.New("ack_latency must not be negative"))
	}
	if c.CapacityWh <= 0 {
		errs = append(errs, errors.New("capacity_wh must be positive"))
	}
	if c.FuelLevel < 0 || c.FuelLevel > 100 {
		errs = append(errs, fmt.Errorf("fuel_level must be within [0,100], got %v", c.FuelLevel))
	}
	if c.DrawW < 0 {
		errs = append(errs, errors.New("draw_w must not be negative"))
	}
	switch c.BatteryProfile {
	case "", "small", "medium", "large":
	default:
		errs = append(errs, fmt.Errorf("unknown battery profile %q", c.BatteryProfile))
	}
	return errors.Join(errs...)
}

func applyBatteryProfile(c *Config) {
	switch c.BatteryProfile {
	case "small":
		c.CapacityWh = 800
		c.DrawW = 40
	case "medium":
		c.CapacityWh = 1500
		c.DrawW = 60
	case "large":
		c.CapacityWh = 4000
		c.DrawW = 120
	}
}
