package metrics

import (
	"errors"

	coremetrics "github.com/kilianp07/auvplan/core/metrics"
	"github.com/kilianp07/auvplan/core/model"
)

// MultiSink fans records out to several sinks. Optional recorders are only
// forwarded to the sinks implementing them.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func init() {
	coremetrics.RegisterCombiner(func(s ...coremetrics.MetricsSink) coremetrics.MetricsSink { return NewMultiSink(s...) })
}

// forward calls fn on every sink of type R and joins the errors, so one
// failing backend does not starve the others.
func forward[R any](m *MultiSink, fn func(R) error) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(R); ok {
			if err := fn(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordProgress(s coremetrics.ProgressSample) error {
	return forward(m, func(r coremetrics.MetricsSink) error { return r.RecordProgress(s) })
}

func (m *MultiSink) RecordPlanLifecycle(ev coremetrics.PlanLifecycleEvent) error {
	return forward(m, func(r coremetrics.PlanLifecycleRecorder) error { return r.RecordPlanLifecycle(ev) })
}

func (m *MultiSink) RecordStatistics(st model.PlanStatistics) error {
	return forward(m, func(r coremetrics.StatisticsRecorder) error { return r.RecordStatistics(st) })
}

func (m *MultiSink) RecordManeuver(ev coremetrics.ManeuverEvent) error {
	return forward(m, func(r coremetrics.ManeuverRecorder) error { return r.RecordManeuver(ev) })
}

func (m *MultiSink) RecordActivation(ev coremetrics.ActivationEvent) error {
	return forward(m, func(r coremetrics.ActivationRecorder) error { return r.RecordActivation(ev) })
}

func (m *MultiSink) RecordCalibration(ev coremetrics.CalibrationEvent) error {
	return forward(m, func(r coremetrics.CalibrationRecorder) error { return r.RecordCalibration(ev) })
}

func (m *MultiSink) RecordBusDrops(total uint64) error {
	return forward(m, func(r coremetrics.BusDropRecorder) error { return r.RecordBusDrops(total) })
}
