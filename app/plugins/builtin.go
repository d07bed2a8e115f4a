package plugins

import (
	"github.com/kilianp07/auvplan/config"
	coremon "github.com/kilianp07/auvplan/core/monitoring"
	inframon "github.com/kilianp07/auvplan/infra/monitoring"
	"github.com/kilianp07/auvplan/infra/statstore"
)

func init() {
	RegisterStatStore("none", func(config.StoreConfig) (statstore.Store, error) {
		return statstore.Nop{}, nil
	})
	RegisterStatStore("jsonl", func(cfg config.StoreConfig) (statstore.Store, error) {
		return statstore.NewJSONLStore(cfg.Path)
	})
	RegisterStatStore("jsonl_rotating", func(cfg config.StoreConfig) (statstore.Store, error) {
		return statstore.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	})
	RegisterStatStore("sqlite", func(cfg config.StoreConfig) (statstore.Store, error) {
		return statstore.NewSQLiteStore(cfg.Path)
	})

	RegisterMonitor("nop", func(config.SentryConfig) (coremon.Monitor, error) {
		return coremon.NopMonitor{}, nil
	})
	RegisterMonitor("sentry", inframon.NewSentryMonitor)
}
