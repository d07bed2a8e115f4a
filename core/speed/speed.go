// Package speed converts speed references between units using the
// vehicle's calibrated propulsion table.
package speed

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"

	"github.com/kilianp07/auvplan/core/model"
)

// ErrInvalidModel is returned when the speed tables cannot form a model.
var ErrInvalidModel = errors.New("invalid speed model")

// Config holds matching rows of the propulsion table: RPM[i] drives the
// vehicle at MPS[i], which is Percent[i] of full thrust.
type Config struct {
	RPM     []float64 `json:"rpm" yaml:"rpm"`
	MPS     []float64 `json:"mps" yaml:"mps"`
	Percent []float64 `json:"percent" yaml:"percent"`
}

// Model interpolates the propulsion table. Values outside the table are
// clamped to its first or last row.
type Model struct {
	rpmToMPS     interp.PiecewiseLinear
	percentToMPS interp.PiecewiseLinear
	mpsToRPM     interp.PiecewiseLinear
	maxMPS       float64
}

// New validates cfg and builds the model. Every column needs the same
// number of rows, at least two, strictly increasing.
func New(cfg Config) (*Model, error) {
	n := len(cfg.MPS)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 rows, got %d", ErrInvalidModel, n)
	}
	if len(cfg.RPM) != n || len(cfg.Percent) != n {
		return nil, fmt.Errorf("%w: column sizes differ (rpm=%d mps=%d percent=%d)", ErrInvalidModel, len(cfg.RPM), n, len(cfg.Percent))
	}
	for name, col := range map[string][]float64{"rpm": cfg.RPM, "mps": cfg.MPS, "percent": cfg.Percent} {
		if !increasing(col) {
			return nil, fmt.Errorf("%w: %s column is not strictly increasing", ErrInvalidModel, name)
		}
	}
	m := &Model{maxMPS: cfg.MPS[n-1]}
	// Fit only fails on the conditions checked above.
	_ = m.rpmToMPS.Fit(cfg.RPM, cfg.MPS)
	_ = m.percentToMPS.Fit(cfg.Percent, cfg.MPS)
	_ = m.mpsToRPM.Fit(cfg.MPS, cfg.RPM)
	return m, nil
}

// increasing reports whether xs is strictly increasing. interp panics
// otherwise.
func increasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return true
}

// ToMPS converts a speed reference to metres per second.
func (m *Model) ToMPS(value float64, units model.SpeedUnits) (float64, bool) {
	switch units {
	case model.SpeedUnitsMPS:
		return value, true
	case model.SpeedUnitsRPM:
		return m.rpmToMPS.Predict(value), true
	case model.SpeedUnitsPercentage:
		return m.percentToMPS.Predict(value), true
	default:
		return 0, false
	}
}

// ToRPM converts a speed in metres per second to propeller RPM.
func (m *Model) ToRPM(mps float64) float64 {
	return m.mpsToRPM.Predict(mps)
}

// MaxMPS returns the fastest speed in the table.
func (m *Model) MaxMPS() float64 { return m.maxMPS }
