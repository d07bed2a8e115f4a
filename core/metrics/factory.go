package metrics

import "github.com/kilianp07/auvplan/core/factory"

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a metrics sink factory identified by name.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// Combiner merges several sinks into one.
type Combiner func(sinks ...MetricsSink) MetricsSink

var combine Combiner

// RegisterCombiner sets how NewMetricsSink merges several configured
// sinks.
func RegisterCombiner(c Combiner) { combine = c }

// NewMetricsSink creates a MetricsSink from the provided configuration.
// No configuration yields a NopSink.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	if combine == nil {
		return sinks[0], nil
	}
	return combine(sinks...), nil
}
