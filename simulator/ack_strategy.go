package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/kilianp07/auvplan/core/events"
	"github.com/kilianp07/auvplan/core/model"
)

// AckStrategy defines how on-board entities answer activation requests.
// It returns the delay before the entity reports and the state reported.
type AckStrategy interface {
	Ack(ev events.ActivationEvent) (time.Duration, model.EntityActivationState)
}

// AutoAck always honors the request after a fixed delay.
type AutoAck struct {
	Delay time.Duration
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ev events.ActivationEvent) (time.Duration, model.EntityActivationState) {
	return a.Delay, reached(ev)
}

// RandomAck fails requests with the configured probability.
type RandomAck struct {
	Delay    time.Duration
	DropRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomAck creates a strategy drawing from a source seeded with seed.
func NewRandomAck(delay time.Duration, dropRate float64, seed int64) *RandomAck {
	return &RandomAck{Delay: delay, DropRate: dropRate, rng: rand.New(rand.NewSource(seed))}
}

// Ack implements AckStrategy.
func (r *RandomAck) Ack(ev events.ActivationEvent) (time.Duration, model.EntityActivationState) {
	r.mu.Lock()
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(1))
	}
	drop := r.DropRate > 0 && r.rng.Float64() < r.DropRate
	r.mu.Unlock()
	if !drop {
		return r.Delay, reached(ev)
	}
	st := model.EntityActivationState{State: model.EntityActivationFailed, Error: "simulated activation failure"}
	if !ev.Active {
		st = model.EntityActivationState{State: model.EntityDeactivationFailed, Error: "simulated deactivation failure"}
	}
	return r.Delay, st
}

func reached(ev events.ActivationEvent) model.EntityActivationState {
	if ev.Active {
		return model.EntityActivationState{State: model.EntityActive}
	}
	return model.EntityActivationState{State: model.EntityInactive}
}

// strategyFor picks the strategy matching cfg.
func strategyFor(cfg Config) AckStrategy {
	if cfg.DropRate > 0 {
		return NewRandomAck(cfg.AckLatency, cfg.DropRate, cfg.Seed)
	}
	return AutoAck{Delay: cfg.AckLatency}
}
