package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/auvplan/core/metrics"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/stats"
)

// PromSink exposes plan execution as Prometheus metrics.
type PromSink struct {
	progress    *prometheus.GaugeVec
	eta         *prometheus.GaugeVec
	lifecycle   *prometheus.CounterVec
	maneuvers   *prometheus.CounterVec
	activations *prometheus.CounterVec
	calibration prometheus.Histogram
	duration    *prometheus.GaugeVec
	drops       prometheus.Gauge
}

// NewPromSink registers the plan metrics on the default Prometheus
// registerer. The /metrics endpoint is served separately by
// StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		progress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plan_progress_percent",
			Help: "Completion of the running plan, -1 when unknown",
		}, []string{"plan_id"}),
		eta: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plan_eta_seconds",
			Help: "Estimated seconds until the running plan completes, -1 when unknown",
		}, []string{"plan_id"}),
		lifecycle: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_lifecycle_events_total",
			Help: "Plan lifecycle transitions",
		}, []string{"action"}),
		maneuvers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_maneuvers_total",
			Help: "Maneuvers started or completed",
		}, []string{"kind", "state"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_entity_activations_total",
			Help: "Entity activation and deactivation requests",
		}, []string{"entity", "active"}),
		calibration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plan_calibration_seconds",
			Help:    "Duration of calibration windows",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8),
		}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plan_estimated_duration_seconds",
			Help: "Estimated duration of the loaded plan",
		}, []string{"plan_id", "part"}),
		drops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plan_event_bus_dropped_total",
			Help: "Events dropped because a subscriber was too slow",
		}),
	}

	s.progress = register(reg, s.progress)
	s.eta = register(reg, s.eta)
	s.lifecycle = register(reg, s.lifecycle)
	s.maneuvers = register(reg, s.maneuvers)
	s.activations = register(reg, s.activations)
	s.calibration = register(reg, s.calibration)
	s.duration = register(reg, s.duration)
	s.drops = register(reg, s.drops)
	return s, nil
}

// register reuses a collector already registered under the same name.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (s *PromSink) RecordProgress(p coremetrics.ProgressSample) error {
	s.progress.WithLabelValues(p.PlanID).Set(p.Progress)
	s.eta.WithLabelValues(p.PlanID).Set(p.ETA)
	return nil
}

func (s *PromSink) RecordPlanLifecycle(ev coremetrics.PlanLifecycleEvent) error {
	s.lifecycle.WithLabelValues(ev.Action).Inc()
	if ev.Action == "cleared" || ev.Action == "stopped" {
		s.progress.DeleteLabelValues(ev.PlanID)
		s.eta.DeleteLabelValues(ev.PlanID)
	}
	return nil
}

func (s *PromSink) RecordManeuver(ev coremetrics.ManeuverEvent) error {
	state := "started"
	if ev.Done {
		state = "done"
	}
	s.maneuvers.WithLabelValues(string(ev.Kind), state).Inc()
	return nil
}

func (s *PromSink) RecordActivation(ev coremetrics.ActivationEvent) error {
	active := "false"
	if ev.Active {
		active = "true"
	}
	s.activations.WithLabelValues(ev.Entity, active).Inc()
	return nil
}

func (s *PromSink) RecordCalibration(ev coremetrics.CalibrationEvent) error {
	if !ev.Started {
		s.calibration.Observe(ev.Elapsed)
	}
	return nil
}

// RecordStatistics publishes the estimated durations of pre-execution
// statistics.
func (s *PromSink) RecordStatistics(st model.PlanStatistics) error {
	if st.Type != model.StatisticsPre {
		return nil
	}
	for _, part := range []string{stats.KeyExecution, stats.KeyCalibration, stats.KeyTotal} {
		if v, ok := st.Durations[part]; ok {
			s.duration.WithLabelValues(st.PlanID, part).Set(v)
		}
	}
	return nil
}

func (s *PromSink) RecordBusDrops(total uint64) error {
	s.drops.Set(float64(total))
	return nil
}
