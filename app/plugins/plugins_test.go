package plugins

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilianp07/auvplan/config"
	coremon "github.com/kilianp07/auvplan/core/monitoring"
	"github.com/kilianp07/auvplan/infra/statstore"
)

func TestNewStatStore(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		backend string
		path    string
	}{
		{"none", ""},
		{"jsonl", filepath.Join(dir, "a.jsonl")},
		{"jsonl_rotating", filepath.Join(dir, "b.jsonl")},
		{"sqlite", filepath.Join(dir, "c.db")},
	}
	for _, c := range cases {
		s, err := NewStatStore(config.StoreConfig{Backend: c.backend, Path: c.path, MaxSizeMB: 1})
		if err != nil {
			t.Fatalf("%s: %v", c.backend, err)
		}
		if s == nil {
			t.Fatalf("%s: nil store", c.backend)
		}
		_ = s.Close()
	}
	if s, _ := NewStatStore(config.StoreConfig{Backend: "none"}); s != (statstore.Nop{}) {
		t.Fatalf("expected Nop store, got %T", s)
	}
}

func TestNewStatStoreUnknown(t *testing.T) {
	_, err := NewStatStore(config.StoreConfig{Backend: "redis"})
	if err == nil || !strings.Contains(err.Error(), "known: [jsonl jsonl_rotating none sqlite]") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewMonitorWithoutDSN(t *testing.T) {
	m, err := NewMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}
