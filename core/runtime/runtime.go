// Package runtime drives the execution of a mission plan: it validates and
// loads the plan, follows the active maneuver, computes progress and ETA,
// manages the calibration window and feeds the action scheduler and fuel
// predictor.
//
// A PlanRuntime is single-threaded. Every call must come from the same
// control loop.
package runtime

import (
	"errors"
	"math"
	"time"

	"github.com/kilianp07/auvplan/core/calibration"
	"github.com/kilianp07/auvplan/core/events"
	"github.com/kilianp07/auvplan/core/fuel"
	"github.com/kilianp07/auvplan/core/logger"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/monitoring"
	"github.com/kilianp07/auvplan/core/plan"
	"github.com/kilianp07/auvplan/core/power"
	"github.com/kilianp07/auvplan/core/profile"
	"github.com/kilianp07/auvplan/core/progress"
	"github.com/kilianp07/auvplan/core/safety"
	"github.com/kilianp07/auvplan/core/schedule"
	"github.com/kilianp07/auvplan/core/speed"
	"github.com/kilianp07/auvplan/core/stats"
	"github.com/kilianp07/auvplan/core/timeline"
)

// Args are the runtime settings.
type Args struct {
	MaxDepth float64 `json:"max_depth"`
	// MinCalibrationTime is in seconds.
	MinCalibrationTime float64 `json:"min_cal_time"`
	ComputeProgress    bool    `json:"compute_progress"`
	FuelPrediction     bool    `json:"fuel_prediction"`
}

// PlanRuntime is the state of one loaded plan.
type PlanRuntime struct {
	args       Args
	log        logger.Logger
	now        func() time.Time
	bus        Publisher
	dispatcher schedule.Dispatcher
	schedulers SchedulerFactory
	newGraph   func(*model.PlanSpecification) (plan.Provider, error)
	newProfile func(*speed.Model) profile.Profile
	progressFn progress.Func
	validator  safety.Validator

	speed *speed.Model
	power *power.Model

	spec     *model.PlanSpecification
	graph    plan.Provider
	seq      plan.Sequence
	props    model.PlanProperties
	profile  profile.Profile
	tl       *timeline.Timeline
	sched    Scheduler
	fuel     FuelPredictor
	calib    *calibration.Tracker
	estCal   float64
	prog     *progress.Estimator
	rtStats  *stats.Runtime
	cat      schedule.ComponentActiveTime
	affected []string
	current  *plan.Node
	started  bool
	beyond   bool
}

// New creates a runtime. Invalid speed or power configurations do not
// fail: duration estimation or fuel prediction is disabled instead.
func New(args Args, speedCfg speed.Config, powerCfg power.Config, opts ...Option) *PlanRuntime {
	r := &PlanRuntime{
		args:       args,
		log:        logger.NopLogger{},
		now:        time.Now,
		bus:        noPublisher{},
		newGraph:   func(s *model.PlanSpecification) (plan.Provider, error) { return plan.NewGraph(s) },
		newProfile: func(sm *speed.Model) profile.Profile { return profile.NewTimeProfile(sm) },
		validator:  safety.Validator{MaxDepth: args.MaxDepth},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.dispatcher == nil {
		r.dispatcher = schedule.BusDispatcher{Bus: r.bus}
	}
	if r.schedulers == nil {
		r.schedulers = actionSchedulers{rt: r}
	}

	sm, err := speed.New(speedCfg)
	if err != nil {
		r.log.Infof("speed model unavailable, durations will not be estimated: %v", err)
	} else {
		r.speed = sm
	}
	pm, err := power.New(powerCfg)
	if err != nil {
		if args.FuelPrediction {
			r.log.Errorf("power model unavailable, fuel prediction disabled: %v", err)
		}
	} else {
		r.power = pm
	}

	r.calib = calibration.NewTracker(r.now)
	r.prog = progress.NewEstimator(r.progressFn)
	r.profile = r.newProfile(r.speed)
	r.reset()
	return r
}

// reset discards every piece of plan state.
func (r *PlanRuntime) reset() {
	r.spec = nil
	r.graph = nil
	r.seq = nil
	r.props = 0
	r.profile.Clear()
	r.tl = nil
	r.sched = noScheduler{}
	r.fuel = noFuel{}
	r.calib.Clear()
	r.estCal = r.args.MinCalibrationTime
	r.prog.Reset()
	r.rtStats = stats.NewRuntime("", 0, r.now)
	r.cat = schedule.ComponentActiveTime{}
	r.affected = nil
	r.current = nil
	r.started = false
	r.beyond = false
}

// Clear drops the loaded plan. It is safe at any point of the lifecycle.
func (r *PlanRuntime) Clear() {
	id := r.PlanID()
	r.reset()
	if id != "" {
		r.bus.Publish(events.PlanEvent{PlanID: id, Action: events.PlanCleared, Time: r.now()})
	}
}

// Load validates spec and prepares its execution. supported lists the
// maneuver kinds the vehicle can execute, nil accepting every kind. state
// is the current vehicle state, required to estimate durations. Load is
// all-or-nothing: on error the runtime is left cleared.
func (r *PlanRuntime) Load(spec *model.PlanSpecification, supported []model.ManeuverKind, entities []model.EntityInfo, imu bool, state *model.EstimatedState) (model.PlanStatistics, error) {
	r.reset()

	g, err := r.newGraph(spec)
	if err != nil {
		return model.PlanStatistics{}, r.reject(spec, err)
	}
	if err := r.validate(g, supported); err != nil {
		return model.PlanStatistics{}, r.reject(spec, err)
	}
	if b, ok := g.(interface{ Branching() bool }); ok && b.Branching() {
		r.log.Warnf("plan %s has branching maneuvers, only first transitions are estimated", g.ID())
	}
	seq, props, err := plan.Linearize(g)
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"plan_id": g.ID()})
		return model.PlanStatistics{}, r.reject(spec, err)
	}

	r.spec = g.Spec()
	r.graph = g
	r.seq = seq
	r.props = props
	r.initialize(entities, imu, state)
	r.rtStats = stats.NewRuntime(r.graph.ID(), r.props, r.now)

	pre := stats.Pre(stats.PreInput{
		PlanID:              r.graph.ID(),
		Properties:          r.props,
		Profile:             r.profile,
		ExecDuration:        r.ExecutionDuration(),
		CalibrationTime:     r.estCal,
		Actions:             r.sched.Summary(),
		ComponentActiveTime: r.cat,
		Fuel:                r.fuel,
	}, r.now())

	r.log.Infof("plan %s loaded: %d maneuvers, properties %s, execution %.0fs, calibration %.0fs",
		r.graph.ID(), len(r.graph.Nodes()), r.props, r.ExecutionDuration(), r.estCal)
	r.bus.Publish(events.PlanEvent{PlanID: r.graph.ID(), Action: events.PlanLoaded, Properties: r.props, Time: r.now()})
	r.bus.Publish(events.StatisticsEvent{Statistics: pre})
	return pre, nil
}

func (r *PlanRuntime) validate(g plan.Provider, supported []model.ManeuverKind) error {
	var allowed map[model.ManeuverKind]bool
	if supported != nil {
		allowed = make(map[model.ManeuverKind]bool, len(supported))
		for _, k := range supported {
			allowed[k] = true
		}
	}
	for _, n := range g.Nodes() {
		data := n.Maneuver.Data
		if !r.validator.IsDepthSafe(data) {
			return &InvalidPlanSpecError{ManeuverID: n.ID(), Reason: ErrDepthUnsafe}
		}
		if allowed != nil && !allowed[data.Kind()] {
			return &InvalidPlanSpecError{ManeuverID: n.ID(), Reason: ErrUnsupportedManeuver}
		}
	}
	return nil
}

func (r *PlanRuntime) reject(spec *model.PlanSpecification, err error) error {
	r.reset()
	id := ""
	if spec != nil {
		id = spec.ID
	}
	var seqErr *plan.SequenceError
	if errors.As(err, &seqErr) {
		r.log.Errorf("plan %s rejected: %v", id, err)
	} else {
		r.log.Warnf("plan %s rejected: %v", id, err)
	}
	r.bus.Publish(events.PlanEvent{PlanID: id, Action: events.PlanRejected, Err: err, Time: r.now()})
	return err
}

// initialize builds the duration estimates, timeline, scheduler and fuel
// predictor of the loaded plan.
func (r *PlanRuntime) initialize(entities []model.EntityInfo, imu bool, state *model.EstimatedState) {
	if !r.props.IsLinear() || state == nil {
		if !r.props.IsLinear() {
			r.log.Infof("plan %s is not linear, progress and ETA are unavailable", r.graph.ID())
		}
		r.sched = r.schedulers.NonLinear(r.spec, entities)
		r.estCal = r.args.MinCalibrationTime
		return
	}

	r.profile.Parse(r.seq, state)
	exec := r.ExecutionDuration()
	r.tl = timeline.Build(exec, r.profile, r.seq)
	r.sched = r.schedulers.Linear(r.spec, r.seq, r.tl, entities)

	earliest := r.sched.EarliestSchedule()
	r.tl.SetPlanETA(earliest)
	r.sched.FillComponentActiveTime(r.cat)
	r.estCal = math.Max(r.args.MinCalibrationTime, math.Max(0, earliest-exec))

	if r.args.FuelPrediction {
		if r.power == nil {
			r.log.Warnf("fuel prediction requested without a valid power model")
		} else {
			r.fuel = fuel.NewPredictor(r.profile, r.cat, r.power, r.speed, imu, r.tl.PlanETA())
		}
	}
	if !r.profile.IsDurationFinite() {
		r.props.Set(model.PropInfinite)
	}
}

// PlanStarted notifies the scheduler that execution begins.
func (r *PlanRuntime) PlanStarted() {
	r.affected = r.sched.PlanStarted()
	r.rtStats.PlanStarted()
	r.log.Infof("plan %s started", r.PlanID())
	r.bus.Publish(events.PlanEvent{PlanID: r.PlanID(), Action: events.PlanStarted, Properties: r.props, Time: r.now()})
}

// PlanStopped closes the execution, deactivates the entities the plan
// switched on and returns the execution statistics, which are also
// published.
func (r *PlanRuntime) PlanStopped() model.PlanStatistics {
	r.sched.PlanStopped(r.affected)
	if r.args.FuelPrediction {
		r.rtStats.Fill(r.fuel)
	}
	r.rtStats.PlanStopped()
	st := r.rtStats.Message()
	r.log.Infof("plan %s stopped", r.PlanID())
	r.bus.Publish(events.PlanEvent{PlanID: r.PlanID(), Action: events.PlanStopped, Properties: r.props, Time: r.now()})
	r.bus.Publish(events.StatisticsEvent{Statistics: st})
	return st
}

// CalibrationStarted schedules the calibration window with the estimated
// calibration time.
func (r *PlanRuntime) CalibrationStarted() {
	r.calib.SetTime(r.estCal)
}

// ManeuverStarted records the start of maneuver id.
func (r *PlanRuntime) ManeuverStarted(id string) {
	r.started = true
	r.rtStats.ManeuverStarted(id)
	r.sched.ManeuverStarted(id)
	r.publishManeuver(id, false)
}

// ManeuverDone records the completion of the current maneuver. Completing
// the last estimated maneuver moves the plan beyond its estimated duration.
func (r *PlanRuntime) ManeuverDone() {
	if !r.started || r.current == nil {
		return
	}
	r.rtStats.ManeuverDone()
	id := r.current.ID()
	if id == r.profile.LastValid() {
		r.beyond = true
	}
	r.sched.ManeuverDone(id)
	r.publishManeuver(id, true)
}

func (r *PlanRuntime) publishManeuver(id string, done bool) {
	ev := events.ManeuverEvent{PlanID: r.PlanID(), ManeuverID: id, Done: done, Time: r.now()}
	if r.graph != nil {
		if n := r.graph.FindNode(id); n != nil {
			ev.Kind = n.Maneuver.Data.Kind()
		}
	}
	r.bus.Publish(ev)
}

// LoadStartManeuver moves to the start maneuver and returns it, nil when
// no plan is loaded.
func (r *PlanRuntime) LoadStartManeuver() *model.PlanManeuver {
	if r.graph == nil {
		return nil
	}
	return r.loadNode(r.graph.StartNode())
}

// LoadNextManeuver moves to the destination of the first transition of the
// current maneuver. It returns nil when there is none or it does not
// resolve, leaving the current maneuver unchanged.
func (r *PlanRuntime) LoadNextManeuver() *model.PlanManeuver {
	if r.graph == nil || r.current == nil || len(r.current.Transitions) == 0 {
		return nil
	}
	return r.loadNode(r.graph.FindNode(r.current.Transitions[0].Dest))
}

func (r *PlanRuntime) loadNode(n *plan.Node) *model.PlanManeuver {
	if n == nil {
		return nil
	}
	r.current = n
	return n.Maneuver
}

// UpdateProgress computes the progress from the live maneuver state. A
// known progress also advances the action schedule.
func (r *PlanRuntime) UpdateProgress(mcs *model.ManeuverControlState) float64 {
	p := r.prog.Compute(r.progressInput(), mcs)
	if p >= 0 {
		if r.beyond {
			r.sched.FlushTimed()
		} else {
			r.sched.UpdateSchedule(r.ETA())
		}
	}
	r.bus.Publish(events.ProgressEvent{PlanID: r.PlanID(), ManeuverID: r.CurrentManeuverID(), Progress: p, ETA: r.ETA(), Time: r.now()})
	return p
}

func (r *PlanRuntime) progressInput() progress.Input {
	in := progress.Input{
		Enabled:       r.args.ComputeProgress,
		Linear:        r.props.IsLinear(),
		ProfileSize:   r.profile.Size(),
		Calibration:   r.calib,
		ExecDuration:  r.ExecutionDuration(),
		TotalDuration: r.TotalDuration(),
		Beyond:        r.beyond,
	}
	if r.current != nil {
		in.Maneuver = r.current.Maneuver.Data
		e, ok := r.profile.Find(r.current.ID())
		in.Durations, in.Found = e.Durations, ok
	}
	return in
}

// UpdateCalibration follows the vehicle operating mode to open and close
// the calibration window.
func (r *PlanRuntime) UpdateCalibration(vs model.VehicleState) {
	calibrating := vs.OpMode == model.OpModeCalibration
	switch {
	case calibrating && r.calib.NotStarted():
		r.calib.Start()
		r.log.Debugf("calibration started, %.0fs required", r.calib.Required())
		r.bus.Publish(events.CalibrationEvent{PlanID: r.PlanID(), Started: true, Time: r.now()})
	case !calibrating && r.calib.InProgress():
		r.stopCalibration()
	case r.calib.InProgress():
		if r.sched.WaitingForDevice() {
			r.calib.ForceRemainingTime(r.sched.CalibTimeLeft())
		} else if r.calib.Elapsed() >= r.args.MinCalibrationTime {
			r.stopCalibration()
		}
	}
}

func (r *PlanRuntime) stopCalibration() {
	r.calib.Stop()
	elapsed := r.calib.Elapsed()
	r.rtStats.FillCalibration(elapsed)
	r.log.Debugf("calibration stopped after %.1fs", elapsed)
	r.bus.Publish(events.CalibrationEvent{PlanID: r.PlanID(), Elapsed: elapsed, Time: r.now()})
}

// OnEntityActivationState forwards an entity report to the scheduler. It
// returns false when a requested activation failed.
func (r *PlanRuntime) OnEntityActivationState(label string, st model.EntityActivationState) bool {
	return r.sched.OnEntityActivationState(label, st)
}

// OnFuelLevel forwards a fuel reading to the fuel predictor.
func (r *PlanRuntime) OnFuelLevel(fl model.FuelLevel) {
	r.fuel.OnFuelLevel(fl)
}

// IsDone reports whether the current maneuver ends the plan.
func (r *PlanRuntime) IsDone() bool {
	if r.current == nil {
		return false
	}
	return r.current.IsTerminal()
}

// ETA returns the seconds left until the plan completes, -1 while progress
// is unknown.
func (r *PlanRuntime) ETA() float64 {
	p := r.prog.Value()
	total := r.TotalDuration()
	if p < 0 || total < 0 {
		return -1
	}
	return total * (1 - p/100)
}

// Progress returns the last computed progress, -1 if unknown.
func (r *PlanRuntime) Progress() float64 { return r.prog.Value() }

// ExecutionDuration returns the estimated seconds from the first maneuver
// start to the end of the last estimated one, -1 if nothing is estimated.
func (r *PlanRuntime) ExecutionDuration() float64 {
	e, ok := r.profile.Find(r.profile.LastValid())
	if !ok {
		return -1
	}
	last, ok := e.Last()
	if !ok {
		return -1
	}
	return last
}

// TotalDuration is the execution duration plus the calibration time, -1 if
// the execution duration is unknown.
func (r *PlanRuntime) TotalDuration() float64 {
	exec := r.ExecutionDuration()
	if exec < 0 {
		return -1
	}
	return exec + r.estCal
}

// EstimatedCalibrationTime returns the calibration seconds the loaded plan
// requires.
func (r *PlanRuntime) EstimatedCalibrationTime() float64 { return r.estCal }

func (r *PlanRuntime) Properties() model.PlanProperties { return r.props }

func (r *PlanRuntime) IsLinear() bool { return r.props.IsLinear() }

// Sequence returns the linearized maneuvers, empty for non-linear plans.
func (r *PlanRuntime) Sequence() plan.Sequence { return r.seq }

// Timeline returns the maneuver windows, nil when unavailable.
func (r *PlanRuntime) Timeline() *timeline.Timeline { return r.tl }

// CalibrationState returns the state of the calibration window.
func (r *PlanRuntime) CalibrationState() calibration.State { return r.calib.State() }

// CurrentManeuverID returns the id of the current maneuver, empty if none.
func (r *PlanRuntime) CurrentManeuverID() string {
	if r.current == nil {
		return ""
	}
	return r.current.ID()
}

// PlanID returns the id of the loaded plan, empty if none.
func (r *PlanRuntime) PlanID() string {
	if r.graph == nil {
		return ""
	}
	return r.graph.ID()
}

// Loaded reports whether a plan is loaded.
func (r *PlanRuntime) Loaded() bool { return r.graph != nil }

// BeyondDuration reports whether the last estimated maneuver completed.
func (r *PlanRuntime) BeyondDuration() bool { return r.beyond }
