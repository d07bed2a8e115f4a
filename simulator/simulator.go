// Package simulator executes mission plans against a simulated vehicle on a
// virtual clock. It drives the plan runtime the way the plan service does
// and records the progress, ETA and statistics of the execution.
package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/auvplan/core/calibration"
	"github.com/kilianp07/auvplan/core/events"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/power"
	"github.com/kilianp07/auvplan/core/runtime"
	"github.com/kilianp07/auvplan/core/schedule"
	"github.com/kilianp07/auvplan/core/speed"
	"github.com/kilianp07/auvplan/core/timeline"
	"github.com/kilianp07/auvplan/infra/logger"
	"github.com/kilianp07/auvplan/pkg/export"
)

// Platform describes the vehicle the plan runtime estimates for.
type Platform struct {
	Args      runtime.Args
	Speed     speed.Config
	Power     power.Config
	Entities  []model.EntityInfo
	Supported []model.ManeuverKind
	IMU       bool
}

// Result is the outcome of one simulated execution.
type Result struct {
	PlanID   string                 `json:"plan_id"`
	Pre      model.PlanStatistics   `json:"pre"`
	Post     model.PlanStatistics   `json:"post"`
	Timeline []timeline.ManeuverETA `json:"timeline,omitempty"`
	Points   []export.ProgressPoint `json:"points"`
	// Elapsed is the virtual execution time in seconds.
	Elapsed   float64 `json:"elapsed"`
	FuelLevel float64 `json:"fuel_level"`
	Completed bool    `json:"completed"`
	Truncated bool    `json:"truncated"`
	Failure   string  `json:"failure,omitempty"`
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSink mirrors the vehicle telemetry to sink.
func WithSink(sink Sink) Option {
	return func(s *Simulator) { s.sink = sink }
}

// WithAckStrategy overrides the strategy derived from the configuration.
func WithAckStrategy(a AckStrategy) Option {
	return func(s *Simulator) { s.acks = a }
}

// WithStart sets the virtual start time.
func WithStart(t time.Time) Option {
	return func(s *Simulator) { s.start = t }
}

// WithRuntimeOptions passes options to the plan runtime.
func WithRuntimeOptions(opts ...runtime.Option) Option {
	return func(s *Simulator) { s.rtOpts = append(s.rtOpts, opts...) }
}

// Simulator runs plans against a simulated vehicle.
type Simulator struct {
	cfg    Config
	plat   Platform
	log    logger.Logger
	sink   Sink
	acks   AckStrategy
	start  time.Time
	rtOpts []runtime.Option
}

// New validates cfg and creates a simulator.
func New(cfg Config, plat Platform, opts ...Option) (*Simulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulator config: %w", err)
	}
	s := &Simulator{cfg: cfg, plat: plat, log: logger.New("simulator"), start: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	if s.acks == nil {
		s.acks = strategyFor(cfg)
	}
	return s, nil
}

type phase int

const (
	phaseCalibrating phase = iota
	phaseExecuting
	phaseFinished
)

type pendingAck struct {
	due    time.Time
	report model.EntityStateReport
}

// run is the state of one execution.
type run struct {
	s     *Simulator
	rt    *runtime.PlanRuntime
	veh   *Vehicle
	now   time.Time
	acks  []pendingAck
	phase phase
	res   *Result
}

// Run loads spec, estimated from state, and executes it to completion,
// failure or the configured time limit. A rejected plan returns the load
// error and no result. On cancellation the partial result is returned with
// the context error.
func (s *Simulator) Run(ctx context.Context, spec *model.PlanSpecification, state *model.EstimatedState) (*Result, error) {
	r := &run{s: s, now: s.start}
	opts := append([]runtime.Option{
		runtime.WithLogger(s.log),
		runtime.WithClock(r.clock),
		runtime.WithDispatcher(schedule.DispatcherFunc(r.dispatch)),
	}, s.rtOpts...)
	r.rt = runtime.New(s.plat.Args, s.plat.Speed, s.plat.Power, opts...)

	pre, err := r.rt.Load(spec, s.plat.Supported, s.plat.Entities, s.plat.IMU, state)
	if err != nil {
		return nil, err
	}
	r.res = &Result{PlanID: r.rt.PlanID(), Pre: pre}
	if tl := r.rt.Timeline(); tl != nil {
		r.res.Timeline = tl.Maneuvers()
	}
	r.veh = NewVehicle(pre.Durations, s.cfg)

	err = r.execute(ctx)
	r.res.Post = r.rt.PlanStopped()
	r.veh.Stop()
	r.emitVehicle(r.veh.State())
	r.res.Elapsed = r.elapsed()
	r.res.FuelLevel = r.veh.battery.Percent()
	r.record()
	s.log.Infof("plan %s simulated in %.0fs: completed=%t truncated=%t", r.res.PlanID, r.res.Elapsed, r.res.Completed, r.res.Truncated)
	return r.res, err
}

func (r *run) clock() time.Time { return r.now }

func (r *run) elapsed() float64 { return r.now.Sub(r.s.start).Seconds() }

func (r *run) dispatch(ev events.ActivationEvent) {
	delay, st := r.s.acks.Ack(ev)
	r.acks = append(r.acks, pendingAck{
		due:    r.now.Add(delay),
		report: model.EntityStateReport{Label: ev.Entity, EntityActivationState: st},
	})
}

func (r *run) execute(ctx context.Context) error {
	cfg := r.s.cfg
	r.rt.PlanStarted()
	r.rt.CalibrationStarted()
	r.veh.Calibrate()
	r.emitVehicle(r.veh.State())
	r.rt.UpdateProgress(nil)
	r.record()

	var lastSample, lastFuel float64
	for r.phase != phaseFinished {
		if err := r.wait(ctx); err != nil {
			return err
		}
		r.now = r.now.Add(cfg.Step)
		r.veh.Step(cfg.Step)
		r.deliverAcks()
		if r.phase == phaseFinished {
			break
		}
		if r.elapsed()-lastFuel >= cfg.FuelInterval.Seconds() {
			lastFuel = r.elapsed()
			fl := r.veh.Fuel(r.now)
			r.emitFuel(fl)
			r.rt.OnFuelLevel(fl)
		}

		vs := r.veh.State()
		r.emitVehicle(vs)
		if vs.OpMode == model.OpModeError {
			r.fail(fmt.Sprintf("vehicle error: %s", vs.LastError))
			break
		}
		switch r.phase {
		case phaseCalibrating:
			r.calibrate(vs)
		case phaseExecuting:
			r.follow()
		}

		if r.elapsed()-lastSample >= cfg.SampleEvery.Seconds() {
			lastSample = r.elapsed()
			r.record()
		}
		if r.phase != phaseFinished && r.elapsed() >= cfg.MaxDuration.Seconds() {
			r.res.Truncated = true
			r.s.log.Warnf("plan %s still running after %s, stopping", r.res.PlanID, cfg.MaxDuration)
			break
		}
	}
	return nil
}

func (r *run) wait(ctx context.Context) error {
	if !r.s.cfg.Realtime {
		return ctx.Err()
	}
	t := time.NewTimer(r.s.cfg.Step)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// deliverAcks hands the due entity reports to the runtime in request
// order.
func (r *run) deliverAcks() {
	kept := r.acks[:0]
	var due []pendingAck
	for _, a := range r.acks {
		if a.due.After(r.now) {
			kept = append(kept, a)
		} else {
			due = append(due, a)
		}
	}
	r.acks = kept
	for _, a := range due {
		if r.s.sink != nil {
			r.s.sink.OnEntityState(a.report)
		}
		if !r.rt.OnEntityActivationState(a.report.Label, a.report.EntityActivationState) {
			r.fail(fmt.Sprintf("entity %s failed to activate: %s", a.report.Label, a.report.Error))
			return
		}
	}
}

func (r *run) calibrate(vs model.VehicleState) {
	r.rt.UpdateCalibration(vs)
	if r.rt.CalibrationState() != calibration.Stopped {
		r.rt.UpdateProgress(nil)
		return
	}
	m := r.rt.LoadStartManeuver()
	if m == nil {
		r.fail("start maneuver not found")
		return
	}
	r.begin(m.ID)
}

func (r *run) begin(id string) {
	r.rt.ManeuverStarted(id)
	r.veh.Execute(id)
	r.phase = phaseExecuting
	mcs := r.veh.ManeuverState()
	r.emitManeuver(mcs)
	r.rt.UpdateProgress(&mcs)
}

func (r *run) follow() {
	mcs := r.veh.ManeuverState()
	r.emitManeuver(mcs)
	if mcs.State == model.ManeuverExecuting {
		r.rt.UpdateProgress(&mcs)
		return
	}
	r.rt.ManeuverDone()
	if r.rt.IsDone() {
		r.finish()
		return
	}
	next := r.rt.LoadNextManeuver()
	if next == nil {
		r.finish()
		return
	}
	r.begin(next.ID)
}

func (r *run) finish() {
	r.phase = phaseFinished
	r.res.Completed = true
}

func (r *run) fail(reason string) {
	r.phase = phaseFinished
	r.res.Failure = reason
	r.s.log.Errorf("plan %s failed: %s", r.res.PlanID, reason)
}

// record appends the current progress, replacing a sample taken at the
// same instant.
func (r *run) record() {
	p := export.ProgressPoint{
		Elapsed:  r.elapsed(),
		Progress: r.rt.Progress(),
		ETA:      r.rt.ETA(),
		Maneuver: r.veh.Maneuver(),
	}
	if n := len(r.res.Points); n > 0 && r.res.Points[n-1].Elapsed == p.Elapsed {
		r.res.Points[n-1] = p
		return
	}
	r.res.Points = append(r.res.Points, p)
}

func (r *run) emitVehicle(vs model.VehicleState) {
	if r.s.sink != nil {
		r.s.sink.OnVehicleState(vs)
	}
}

func (r *run) emitManeuver(mcs model.ManeuverControlState) {
	if r.s.sink != nil {
		r.s.sink.OnManeuverState(mcs)
	}
}

func (r *run) emitFuel(fl model.FuelLevel) {
	if r.s.sink != nil {
		r.s.sink.OnFuelLevel(fl)
	}
}
