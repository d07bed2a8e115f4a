package metrics

import "github.com/kilianp07/auvplan/core/factory"

// Config defines the metrics sinks and the address of the /metrics
// endpoint. An empty Listen disables the endpoint.
type Config struct {
	Sinks  []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	Listen string                 `json:"listen" yaml:"listen"`
}
