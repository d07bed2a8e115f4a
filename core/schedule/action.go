// Package schedule decides when entity activation actions attached to a
// plan are dispatched relative to maneuver execution.
//
// Activations of entities that need time to become operational are timed:
// in a linear plan they fire ahead of the maneuver start ETA by the entity
// activation time. Those due before execution starts fire with the plan and
// define the calibration window. Every other action fires on the plan or
// maneuver event it is attached to.
package schedule

import (
	"time"

	"github.com/kilianp07/auvplan/core/events"
)

// Trigger tells when an action fires.
type Trigger int

const (
	OnPlanStart Trigger = iota
	OnPlanEnd
	OnManeuverStart
	OnManeuverEnd
	// Timed actions fire when the plan ETA reaches FireETA.
	Timed
)

var triggerNames = [...]string{"plan_start", "plan_end", "maneuver_start", "maneuver_end", "timed"}

func (t Trigger) String() string {
	if int(t) < len(triggerNames) {
		return triggerNames[t]
	}
	return "unknown"
}

// Action is one entity activation or deactivation.
type Action struct {
	Entity     string
	Active     bool
	ManeuverID string
	Trigger    Trigger
	FireETA    float64
	fired      bool
}

// Dispatcher delivers activation requests to entities.
type Dispatcher interface {
	Dispatch(ev events.ActivationEvent)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(events.ActivationEvent)

func (f DispatcherFunc) Dispatch(ev events.ActivationEvent) { f(ev) }

// Publisher is the event bus side of BusDispatcher.
type Publisher interface {
	Publish(e any)
}

// BusDispatcher publishes activation requests on an event bus.
type BusDispatcher struct {
	Bus Publisher
}

func (d BusDispatcher) Dispatch(ev events.ActivationEvent) {
	if d.Bus != nil {
		d.Bus.Publish(ev)
	}
}

// ComponentActiveTime maps components to their estimated active seconds.
type ComponentActiveTime map[string]float64

// Total returns the sum over every component.
func (c ComponentActiveTime) Total() float64 {
	var s float64
	for _, v := range c {
		s += v
	}
	return s
}

func stamp(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
