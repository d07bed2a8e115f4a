package runtime

import (
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/plan"
	"github.com/kilianp07/auvplan/core/schedule"
	"github.com/kilianp07/auvplan/core/timeline"
)

// Scheduler dispatches the entity actions of the loaded plan.
type Scheduler interface {
	PlanStarted() []string
	PlanStopped(affected []string)
	ManeuverStarted(id string)
	ManeuverDone(id string)
	UpdateSchedule(eta float64)
	FlushTimed()
	WaitingForDevice() bool
	CalibTimeLeft() float64
	EarliestSchedule() float64
	FillComponentActiveTime(cat schedule.ComponentActiveTime)
	OnEntityActivationState(label string, st model.EntityActivationState) bool
	Summary() map[string]int
}

// SchedulerFactory builds the scheduler of a loaded plan.
type SchedulerFactory interface {
	Linear(spec *model.PlanSpecification, seq plan.Sequence, tl *timeline.Timeline, entities []model.EntityInfo) Scheduler
	NonLinear(spec *model.PlanSpecification, entities []model.EntityInfo) Scheduler
}

// FuelPredictor follows the energy of the loaded plan.
type FuelPredictor interface {
	OnFuelLevel(fl model.FuelLevel)
	FillStatistics(st *model.PlanStatistics)
}

// Publisher receives runtime events.
type Publisher interface {
	Publish(e any)
}

// actionSchedulers is the default factory backed by schedule.ActionScheduler.
type actionSchedulers struct {
	rt *PlanRuntime
}

func (f actionSchedulers) Linear(spec *model.PlanSpecification, seq plan.Sequence, tl *timeline.Timeline, entities []model.EntityInfo) Scheduler {
	return schedule.NewLinear(spec, seq, tl, entities, f.rt.dispatcher, f.rt.log, f.rt.now)
}

func (f actionSchedulers) NonLinear(spec *model.PlanSpecification, entities []model.EntityInfo) Scheduler {
	return schedule.NewNonLinear(spec, entities, f.rt.dispatcher, f.rt.log, f.rt.now)
}

// noScheduler stands in when no plan is loaded: nothing is dispatched,
// no device is awaited and every entity report is accepted.
type noScheduler struct{}

func (noScheduler) PlanStarted() []string                                            { return nil }
func (noScheduler) PlanStopped([]string)                                             {}
func (noScheduler) ManeuverStarted(string)                                           {}
func (noScheduler) ManeuverDone(string)                                              {}
func (noScheduler) UpdateSchedule(float64)                                           {}
func (noScheduler) FlushTimed()                                                      {}
func (noScheduler) WaitingForDevice() bool                                           { return false }
func (noScheduler) CalibTimeLeft() float64                                           { return -1 }
func (noScheduler) EarliestSchedule() float64                                        { return 0 }
func (noScheduler) FillComponentActiveTime(schedule.ComponentActiveTime)             {}
func (noScheduler) OnEntityActivationState(string, model.EntityActivationState) bool { return true }
func (noScheduler) Summary() map[string]int                                          { return nil }

// noFuel stands in when fuel prediction is disabled or impossible.
type noFuel struct{}

func (noFuel) OnFuelLevel(model.FuelLevel)          {}
func (noFuel) FillStatistics(*model.PlanStatistics) {}

type noPublisher struct{}

func (noPublisher) Publish(any) {}

var (
	_ Scheduler     = (*schedule.ActionScheduler)(nil)
	_ Scheduler     = noScheduler{}
	_ FuelPredictor = noFuel{}
)
