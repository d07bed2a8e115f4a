// Package fuel predicts the energy a linear plan consumes.
package fuel

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/power"
	"github.com/kilianp07/auvplan/core/profile"
	"github.com/kilianp07/auvplan/core/schedule"
	"github.com/kilianp07/auvplan/core/speed"
)

// Statistics keys written by FillStatistics.
const (
	KeyPropulsion         = "propulsion_wh"
	KeyHotel              = "hotel_wh"
	KeyIMU                = "imu_wh"
	KeyPayload            = "payload_wh"
	KeyTotal              = "total_wh"
	KeyPredictedUsed      = "predicted_used_percent"
	KeyPredictedRemaining = "predicted_remaining_percent"
	KeyMeasuredStart      = "measured_start_percent"
	KeyMeasuredEnd        = "measured_end_percent"
	KeyMeanRPM            = "mean_rpm"
)

// Estimate is the energy breakdown of a plan in watt-hours.
type Estimate struct {
	Propulsion float64
	Hotel      float64
	IMU        float64
	Payload    float64
	MeanRPM    float64
}

// Total returns the energy of the whole plan.
func (e Estimate) Total() float64 { return e.Propulsion + e.Hotel + e.IMU + e.Payload }

// Predictor estimates the consumption once at construction and follows the
// fuel level readings during execution.
type Predictor struct {
	capacity float64
	est      Estimate
	first    *model.FuelLevel
	last     *model.FuelLevel
}

// NewPredictor estimates the energy needed by the profiled maneuvers,
// the hotel and IMU loads over planETA seconds, and the active components.
func NewPredictor(prof profile.Profile, cat schedule.ComponentActiveTime, pm *power.Model, sm *speed.Model, imu bool, planETA float64) *Predictor {
	p := &Predictor{capacity: pm.BatteryCapacityWh()}

	var durations, powers, speeds []float64
	var prev float64
	prof.Range(func(_ string, e profile.Entry) bool {
		last, ok := e.Last()
		if !ok {
			return true
		}
		durations = append(durations, math.Max(0, last-prev))
		powers = append(powers, pm.Propulsion(e.Speed))
		speeds = append(speeds, e.Speed)
		prev = last
		return true
	})
	if len(durations) > 0 {
		p.est.Propulsion = floats.Dot(durations, powers) / 3600
		if total := floats.Sum(durations); total > 0 && sm != nil {
			p.est.MeanRPM = sm.ToRPM(floats.Dot(durations, speeds) / total)
		}
	}

	eta := math.Max(0, planETA)
	p.est.Hotel = pm.HotelLoad() * eta / 3600
	if imu {
		p.est.IMU = pm.IMUPower() * eta / 3600
	}
	for comp, secs := range cat {
		p.est.Payload += pm.Component(comp) * secs / 3600
	}
	return p
}

// Estimate returns the energy breakdown.
func (p *Predictor) Estimate() Estimate { return p.est }

// PredictedUsed returns the share of the battery the plan needs, in percent.
func (p *Predictor) PredictedUsed() float64 {
	return p.est.Total() / p.capacity * 100
}

// OnFuelLevel records a fuel level reading.
func (p *Predictor) OnFuelLevel(fl model.FuelLevel) {
	if p.first == nil {
		first := fl
		p.first = &first
	}
	last := fl
	p.last = &last
}

// FillStatistics writes the energy breakdown and fuel readings into st.
func (p *Predictor) FillStatistics(st *model.PlanStatistics) {
	if st.Fuel == nil {
		st.Fuel = make(map[string]float64)
	}
	st.Fuel[KeyPropulsion] = p.est.Propulsion
	st.Fuel[KeyHotel] = p.est.Hotel
	st.Fuel[KeyIMU] = p.est.IMU
	st.Fuel[KeyPayload] = p.est.Payload
	st.Fuel[KeyTotal] = p.est.Total()
	st.Fuel[KeyPredictedUsed] = p.PredictedUsed()
	if p.est.MeanRPM > 0 {
		st.Fuel[KeyMeanRPM] = p.est.MeanRPM
	}
	if p.first != nil {
		st.Fuel[KeyMeasuredStart] = p.first.Value
		st.Fuel[KeyMeasuredEnd] = p.last.Value
		st.Fuel[KeyPredictedRemaining] = math.Max(0, p.first.Value-p.PredictedUsed())
	}
}
