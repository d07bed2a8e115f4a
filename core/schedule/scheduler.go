package schedule

import (
	"math"
	"sort"
	"time"

	"github.com/kilianp07/auvplan/core/events"
	"github.com/kilianp07/auvplan/core/logger"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/plan"
	"github.com/kilianp07/auvplan/core/timeline"
)

// ActionScheduler dispatches the entity actions of one plan. It is not safe
// for concurrent use.
type ActionScheduler struct {
	planID   string
	entities map[string]model.EntityInfo
	disp     Dispatcher
	log      logger.Logger
	now      func() time.Time

	planStart []*Action
	planEnd   []*Action
	manStart  map[string][]*Action
	manEnd    map[string][]*Action
	timed     []*Action
	// preExec are timed actions due before execution starts.
	preExec []*Action

	tl       *timeline.Timeline
	earliest float64
	active   map[string]time.Time
	// commanded holds the last activation command sent to each entity.
	commanded map[string]bool
	// pending holds entities activated with the plan that did not report
	// being active yet, with the time they are expected ready.
	pending map[string]time.Time
}

func newScheduler(spec *model.PlanSpecification, entities []model.EntityInfo, d Dispatcher, log logger.Logger, now func() time.Time) *ActionScheduler {
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &ActionScheduler{
		planID:   spec.ID,
		entities: make(map[string]model.EntityInfo, len(entities)),
		disp:     d,
		log:      log,
		now:      now,
		manStart: make(map[string][]*Action),
		manEnd:   make(map[string][]*Action),
		active:   make(map[string]time.Time),
		pending:  make(map[string]time.Time),

		commanded: make(map[string]bool),
	}
	for _, e := range entities {
		s.entities[e.Label] = e
	}
	for _, a := range spec.StartActions {
		s.planStart = append(s.planStart, &Action{Entity: a.Entity, Active: a.Active, Trigger: OnPlanStart})
	}
	for _, a := range spec.EndActions {
		s.planEnd = append(s.planEnd, &Action{Entity: a.Entity, Active: a.Active, Trigger: OnPlanEnd})
	}
	return s
}

// NewLinear builds the scheduler of a linear plan. Activations attached to
// the start of a sequenced maneuver with a known start ETA are timed
// according to the entity activation time.
func NewLinear(spec *model.PlanSpecification, seq plan.Sequence, tl *timeline.Timeline, entities []model.EntityInfo, d Dispatcher, log logger.Logger, now func() time.Time) *ActionScheduler {
	s := newScheduler(spec, entities, d, log, now)
	s.tl = tl
	execDuration := tl.PlanETA()
	if len(seq) > 0 {
		if w, ok := tl.Find(seq[0].ID); ok {
			execDuration = w.Start
		}
	}
	inSeq := make(map[string]bool, len(seq))
	for _, pm := range seq {
		inSeq[pm.ID] = true
	}

	for _, a := range s.planStart {
		if a.Active {
			s.earliest = math.Max(s.earliest, execDuration+s.activationTime(a.Entity))
		}
	}
	for i := range spec.Maneuvers {
		pm := &spec.Maneuvers[i]
		w, known := tl.Find(pm.ID)
		for _, ea := range pm.StartActions {
			a := &Action{Entity: ea.Entity, Active: ea.Active, ManeuverID: pm.ID, Trigger: OnManeuverStart}
			lead := s.activationTime(ea.Entity)
			if ea.Active && lead > 0 && inSeq[pm.ID] && known && w.Start >= 0 {
				a.Trigger = Timed
				a.FireETA = w.Start + lead
				s.earliest = math.Max(s.earliest, a.FireETA)
				if a.FireETA > execDuration {
					s.preExec = append(s.preExec, a)
				} else {
					s.timed = append(s.timed, a)
				}
				continue
			}
			s.manStart[pm.ID] = append(s.manStart[pm.ID], a)
		}
		s.addEndActions(pm)
	}
	sort.SliceStable(s.timed, func(i, j int) bool { return s.timed[i].FireETA > s.timed[j].FireETA })
	return s
}

// NewNonLinear builds the scheduler of a plan without timeline. Every action
// fires on its event.
func NewNonLinear(spec *model.PlanSpecification, entities []model.EntityInfo, d Dispatcher, log logger.Logger, now func() time.Time) *ActionScheduler {
	s := newScheduler(spec, entities, d, log, now)
	for _, a := range s.planStart {
		if a.Active {
			s.earliest = math.Max(s.earliest, s.activationTime(a.Entity))
		}
	}
	for i := range spec.Maneuvers {
		pm := &spec.Maneuvers[i]
		for _, ea := range pm.StartActions {
			s.manStart[pm.ID] = append(s.manStart[pm.ID], &Action{Entity: ea.Entity, Active: ea.Active, ManeuverID: pm.ID, Trigger: OnManeuverStart})
		}
		s.addEndActions(pm)
	}
	return s
}

func (s *ActionScheduler) addEndActions(pm *model.PlanManeuver) {
	for _, ea := range pm.EndActions {
		s.manEnd[pm.ID] = append(s.manEnd[pm.ID], &Action{Entity: ea.Entity, Active: ea.Active, ManeuverID: pm.ID, Trigger: OnManeuverEnd})
	}
}

func (s *ActionScheduler) activationTime(label string) float64 {
	return float64(s.entities[label].ActivationTime)
}

// PlanStarted fires the plan start actions and the timed actions due before
// execution. It returns the entities it activated.
func (s *ActionScheduler) PlanStarted() []string {
	var affected []string
	for _, a := range append(append([]*Action{}, s.planStart...), s.preExec...) {
		s.fire(a, "plan start")
		if !a.Active {
			continue
		}
		affected = append(affected, a.Entity)
		if lead := s.activationTime(a.Entity); lead > 0 {
			s.pending[a.Entity] = stamp(s.now).Add(time.Duration(lead * float64(time.Second)))
		}
	}
	return affected
}

// PlanStopped fires the plan end actions then deactivates every entity
// still active, affected ones included.
func (s *ActionScheduler) PlanStopped(affected []string) {
	for _, a := range s.planEnd {
		s.fire(a, "plan end")
	}
	seen := make(map[string]bool)
	var labels []string
	collect := func(label string) {
		if seen[label] {
			return
		}
		seen[label] = true
		if on, ok := s.commanded[label]; ok && !on {
			return
		}
		labels = append(labels, label)
	}
	for label := range s.active {
		collect(label)
	}
	for label, on := range s.commanded {
		if on {
			collect(label)
		}
	}
	for _, label := range affected {
		collect(label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		s.fire(&Action{Entity: label, Trigger: OnPlanEnd}, "plan stopped")
	}
	s.pending = make(map[string]time.Time)
}

func (s *ActionScheduler) ManeuverStarted(id string) {
	for _, a := range s.timed {
		if a.ManeuverID == id && !a.fired {
			s.fire(a, "maneuver start")
		}
	}
	for _, a := range s.manStart[id] {
		s.fire(a, "maneuver start")
	}
}

func (s *ActionScheduler) ManeuverDone(id string) {
	for _, a := range s.manEnd[id] {
		s.fire(a, "maneuver end")
	}
}

// UpdateSchedule fires the timed actions due at the given plan ETA.
func (s *ActionScheduler) UpdateSchedule(eta float64) {
	if eta < 0 {
		return
	}
	for _, a := range s.timed {
		if !a.fired && eta <= a.FireETA {
			s.fire(a, "timed")
		}
	}
}

// FlushTimed fires every pending timed action.
func (s *ActionScheduler) FlushTimed() {
	for _, a := range s.timed {
		if !a.fired {
			s.fire(a, "flush")
		}
	}
}

// WaitingForDevice reports whether an entity activated with the plan is
// still becoming operational.
func (s *ActionScheduler) WaitingForDevice() bool { return len(s.pending) > 0 }

// CalibTimeLeft returns the seconds until the last pending entity is
// expected ready, or -1 when none is pending.
func (s *ActionScheduler) CalibTimeLeft() float64 {
	if len(s.pending) == 0 {
		return -1
	}
	now := stamp(s.now)
	var left float64
	for _, ready := range s.pending {
		left = math.Max(left, ready.Sub(now).Seconds())
	}
	return left
}

// EarliestSchedule returns the earliest plan ETA at which every timed
// action can still fire on time.
func (s *ActionScheduler) EarliestSchedule() float64 { return s.earliest }

// OnEntityActivationState records an entity report. It returns false when a
// requested activation failed.
func (s *ActionScheduler) OnEntityActivationState(label string, st model.EntityActivationState) bool {
	switch st.State {
	case model.EntityActive:
		delete(s.pending, label)
		if _, ok := s.active[label]; !ok {
			s.active[label] = stamp(s.now)
		}
	case model.EntityInactive:
		delete(s.active, label)
	case model.EntityActivationFailed:
		_, requested := s.pending[label]
		delete(s.pending, label)
		if requested || s.requested(label) {
			s.log.Errorf("entity %s failed to activate: %s", label, st.Error)
			return false
		}
	case model.EntityDeactivationFailed:
		s.log.Warnf("entity %s failed to deactivate: %s", label, st.Error)
	}
	return true
}

// requested reports whether the last command sent to label activated it.
func (s *ActionScheduler) requested(label string) bool { return s.commanded[label] }

func (s *ActionScheduler) fire(a *Action, reason string) {
	a.fired = true
	s.commanded[a.Entity] = a.Active
	if s.disp != nil {
		s.disp.Dispatch(events.ActivationEvent{PlanID: s.planID, Entity: a.Entity, Active: a.Active, Reason: reason, Time: stamp(s.now)})
	}
	if !a.Active {
		delete(s.active, a.Entity)
	}
	s.log.Debugf("%s %s (%s)", activationVerb(a.Active), a.Entity, reason)
}

func activationVerb(active bool) string {
	if active {
		return "activating"
	}
	return "deactivating"
}
