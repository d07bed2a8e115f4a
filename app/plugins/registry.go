// Package plugins maps configured backend names to statistics stores and
// error monitors.
package plugins

import (
	"fmt"
	"sort"

	"github.com/kilianp07/auvplan/config"
	coremon "github.com/kilianp07/auvplan/core/monitoring"
	"github.com/kilianp07/auvplan/infra/statstore"
)

// StatStoreFactory builds a statistics store from its configuration.
type StatStoreFactory func(cfg config.StoreConfig) (statstore.Store, error)

// MonitorFactory builds an error monitor from its configuration.
type MonitorFactory func(cfg config.SentryConfig) (coremon.Monitor, error)

var (
	StatStores = map[string]StatStoreFactory{}
	Monitors   = map[string]MonitorFactory{}
)

func RegisterStatStore(name string, f StatStoreFactory) { StatStores[name] = f }
func RegisterMonitor(name string, f MonitorFactory)     { Monitors[name] = f }

// NewStatStore builds the store selected by cfg.Backend.
func NewStatStore(cfg config.StoreConfig) (statstore.Store, error) {
	f, ok := StatStores[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown store backend %q (known: %v)", cfg.Backend, names(StatStores))
	}
	return f(cfg)
}

// NewMonitor builds the Sentry monitor when a DSN is set, a no-op monitor
// otherwise.
func NewMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	name := "sentry"
	if cfg.DSN == "" {
		name = "nop"
	}
	f, ok := Monitors[name]
	if !ok {
		return nil, fmt.Errorf("unknown monitor %q", name)
	}
	return f(cfg)
}

func names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
