package simulator

import (
	"sync"
	"time"
)

// Battery models the vehicle energy pack.
type Battery struct {
	CapacityWh float64
	// Level is the state of charge in percent.
	Level float64
	mu    sync.Mutex
}

// Drain consumes powerW during dt and returns the power actually drawn,
// which is lower than requested once the pack is empty.
func (b *Battery) Drain(powerW float64, dt time.Duration) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	hours := dt.Hours()
	if hours <= 0 || powerW <= 0 || b.CapacityWh <= 0 {
		return 0
	}
	avail := b.Level / 100 * b.CapacityWh
	needed := powerW * hours
	actual := powerW
	if needed >= avail {
		b.Level = 0
		return avail / hours
	}
	b.Level -= needed / b.CapacityWh * 100
	return actual
}

// Percent returns the state of charge.
func (b *Battery) Percent() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Level
}
