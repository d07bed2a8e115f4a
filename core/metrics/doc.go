// Package metrics defines the recorders plan observability goes through.
// Every sink implements MetricsSink and any subset of the optional
// recorder interfaces; callers type-assert for the rest. Sinks are built
// from configuration through a factory registry populated by
// infra/metrics, which also provides the multi-sink used when several are
// configured.
package metrics
