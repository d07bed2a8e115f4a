package runtime

import (
	"time"

	"github.com/kilianp07/auvplan/core/logger"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/plan"
	"github.com/kilianp07/auvplan/core/profile"
	"github.com/kilianp07/auvplan/core/progress"
	"github.com/kilianp07/auvplan/core/schedule"
	"github.com/kilianp07/auvplan/core/speed"
)

// Option customises a PlanRuntime.
type Option func(*PlanRuntime)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *PlanRuntime) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *PlanRuntime) {
		if now != nil {
			r.now = now
		}
	}
}

// WithProfile replaces the time profile estimator. f receives the speed
// model, nil when unavailable.
func WithProfile(f func(*speed.Model) profile.Profile) Option {
	return func(r *PlanRuntime) {
		if f != nil {
			r.newProfile = f
		}
	}
}

// WithProgressFunc replaces the per-maneuver progress function.
func WithProgressFunc(f progress.Func) Option {
	return func(r *PlanRuntime) { r.progressFn = f }
}

// WithBus publishes runtime events on the given bus.
func WithBus(p Publisher) Option {
	return func(r *PlanRuntime) {
		if p != nil {
			r.bus = p
		}
	}
}

// WithDispatcher sets where entity activation requests go. By default they
// are published on the bus.
func WithDispatcher(d schedule.Dispatcher) Option {
	return func(r *PlanRuntime) { r.dispatcher = d }
}

// WithSchedulerFactory replaces the action scheduler.
func WithSchedulerFactory(f SchedulerFactory) Option {
	return func(r *PlanRuntime) { r.schedulers = f }
}

// WithGraphBuilder replaces the plan graph provider.
func WithGraphBuilder(f func(*model.PlanSpecification) (plan.Provider, error)) Option {
	return func(r *PlanRuntime) {
		if f != nil {
			r.newGraph = f
		}
	}
}
