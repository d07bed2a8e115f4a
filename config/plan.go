package config

import (
	"fmt"

	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/runtime"
)

// PlanConfig holds the runtime settings applied to every loaded plan.
type PlanConfig struct {
	// MaxDepth is the deepest the vehicle may go, in metres.
	MaxDepth float64 `json:"max_depth"`
	// MinCalTime is the minimum calibration time in seconds.
	MinCalTime      float64 `json:"min_cal_time"`
	ComputeProgress bool    `json:"compute_progress"`
	FuelPrediction  bool    `json:"fuel_prediction"`
	// SupportedManeuvers restricts accepted maneuver kinds. Empty allows all.
	SupportedManeuvers []string `json:"supported_maneuvers"`
	IMUEnabled         bool     `json:"imu_enabled"`
}

// SetDefaults applies sane defaults.
func (c *PlanConfig) SetDefaults() {
	if c.MaxDepth == 0 {
		c.MaxDepth = 50
	}
	if c.MinCalTime == 0 {
		c.MinCalTime = 10
	}
}

// Validate checks value ranges and maneuver kinds.
func (c PlanConfig) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be positive, got %v", c.MaxDepth)
	}
	if c.MinCalTime < 0 {
		return fmt.Errorf("min_cal_time must be positive, got %v", c.MinCalTime)
	}
	_, err := c.Supported()
	return err
}

// Args converts the settings to runtime arguments.
func (c PlanConfig) Args() runtime.Args {
	return runtime.Args{
		MaxDepth:           c.MaxDepth,
		MinCalibrationTime: c.MinCalTime,
		ComputeProgress:    c.ComputeProgress,
		FuelPrediction:     c.FuelPrediction,
	}
}

// Supported returns the accepted maneuver kinds, nil meaning all.
func (c PlanConfig) Supported() ([]model.ManeuverKind, error) {
	if len(c.SupportedManeuvers) == 0 {
		return nil, nil
	}
	out := make([]model.ManeuverKind, 0, len(c.SupportedManeuvers))
	for _, name := range c.SupportedManeuvers {
		kind := model.ManeuverKind(name)
		if _, err := model.NewManeuver(kind); err != nil {
			return nil, err
		}
		out = append(out, kind)
	}
	return out, nil
}
