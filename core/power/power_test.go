package power

import (
	"errors"
	"testing"
)

func TestModel(t *testing.T) {
	m, err := New(Config{
		Speeds:            []float64{0, 1, 2},
		Power:             []float64{0, 40, 120},
		HotelLoad:         15,
		IMUPower:          8,
		BatteryCapacityWh: 1000,
		Components:        map[string]float64{"sidescan": 30},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := m.Propulsion(1.5); got != 80 {
		t.Fatalf("expected 80 got %v", got)
	}
	if got := m.Propulsion(3); got != 120 {
		t.Fatalf("expected clamped 120 got %v", got)
	}
	if m.Component("sidescan") != 30 || m.Component("camera") != 0 {
		t.Fatalf("unexpected component power")
	}
	if m.HotelLoad() != 15 || m.IMUPower() != 8 || m.BatteryCapacityWh() != 1000 {
		t.Fatalf("unexpected loads")
	}
}

func TestNewInvalid(t *testing.T) {
	base := func() Config {
		return Config{Speeds: []float64{0, 1}, Power: []float64{0, 10}, BatteryCapacityWh: 100}
	}
	mutate := map[string]func(*Config){
		"short":    func(c *Config) { c.Speeds = c.Speeds[:1]; c.Power = c.Power[:1] },
		"mismatch": func(c *Config) { c.Power = []float64{0, 1, 2} },
		"unsorted": func(c *Config) { c.Speeds = []float64{1, 0} },
		"negative": func(c *Config) { c.Power = []float64{-1, 10} },
		"battery":  func(c *Config) { c.BatteryCapacityWh = 0 },
		"hotel":    func(c *Config) { c.HotelLoad = -2 },
	}
	for name, f := range mutate {
		cfg := base()
		f(&cfg)
		if _, err := New(cfg); !errors.Is(err, ErrInvalidModel) {
			t.Fatalf("%s: expected ErrInvalidModel got %v", name, err)
		}
	}
}
