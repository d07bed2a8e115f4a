package simulator

import (
	"math"
	"time"

	"github.com/kilianp07/auvplan/core/model"
)

// Vehicle is a simulated AUV. It executes the maneuvers it is given for
// their true duration and reports the telemetry a real vehicle would.
type Vehicle struct {
	durations map[string]float64
	fallback  float64
	factor    float64
	battery   *Battery
	drawW     float64

	mode      model.OperationMode
	maneuver  string
	remaining float64
	err       string
}

// NewVehicle creates a vehicle whose maneuvers last their estimated
// seconds divided by cfg.SpeedFactor.
func NewVehicle(estimates map[string]float64, cfg Config) *Vehicle {
	return &Vehicle{
		durations: estimates,
		fallback:  cfg.FallbackManeuverTime.Seconds(),
		factor:    cfg.SpeedFactor,
		battery:   &Battery{CapacityWh: cfg.CapacityWh, Level: cfg.FuelLevel},
		drawW:     cfg.DrawW,
		mode:      model.OpModeService,
	}
}

// Calibrate switches the vehicle to calibration mode.
func (v *Vehicle) Calibrate() {
	v.mode = model.OpModeCalibration
	v.maneuver = ""
}

// Execute starts maneuver id.
func (v *Vehicle) Execute(id string) {
	v.mode = model.OpModeManeuver
	v.maneuver = id
	d, ok := v.durations[id]
	if !ok || d <= 0 {
		d = v.fallback
	}
	v.remaining = d / v.factor
}

// Stop returns the vehicle to service mode.
func (v *Vehicle) Stop() {
	v.mode = model.OpModeService
	v.maneuver = ""
	v.remaining = 0
}

// Step advances the vehicle by dt. An empty battery puts the vehicle in
// error mode.
func (v *Vehicle) Step(dt time.Duration) {
	if v.mode == model.OpModeService || v.mode == model.OpModeError {
		return
	}
	v.battery.Drain(v.drawW, dt)
	if v.drawW > 0 && v.battery.Percent() <= 0 {
		v.mode = model.OpModeError
		v.err = "battery depleted"
		return
	}
	if v.mode == model.OpModeManeuver {
		v.remaining = math.Max(0, v.remaining-dt.Seconds())
	}
}

// State returns the vehicle operating mode.
func (v *Vehicle) State() model.VehicleState {
	return model.VehicleState{OpMode: v.mode, LastError: v.err}
}

// ManeuverState returns the maneuver controller report. The ETA is rounded
// up to whole seconds.
func (v *Vehicle) ManeuverState() model.ManeuverControlState {
	if v.remaining <= 0 {
		return model.ManeuverControlState{State: model.ManeuverDone}
	}
	eta := math.Min(math.Ceil(v.remaining), math.MaxUint16)
	return model.ManeuverControlState{State: model.ManeuverExecuting, ETA: uint16(eta)}
}

// Fuel returns the fuel level report at now.
func (v *Vehicle) Fuel(now time.Time) model.FuelLevel {
	return model.FuelLevel{Value: v.battery.Percent(), Confidence: 100, Time: now}
}

// Maneuver returns the maneuver being executed, empty if none.
func (v *Vehicle) Maneuver() string { return v.maneuver }
