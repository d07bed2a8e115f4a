package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	planapi "github.com/kilianp07/auvplan/api/plan"
	"github.com/kilianp07/auvplan/app/plugins"
	"github.com/kilianp07/auvplan/config"
	"github.com/kilianp07/auvplan/core/calibration"
	"github.com/kilianp07/auvplan/core/events"
	coremetrics "github.com/kilianp07/auvplan/core/metrics"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/monitoring"
	"github.com/kilianp07/auvplan/core/runtime"
	"github.com/kilianp07/auvplan/infra/logger"
	"github.com/kilianp07/auvplan/infra/metrics"
	"github.com/kilianp07/auvplan/infra/mqtt"
	"github.com/kilianp07/auvplan/infra/statstore"
	"github.com/kilianp07/auvplan/internal/eventbus"
)

var (
	ErrPlanRunning = errors.New("a plan is running")
	ErrNotRunning  = errors.New("no plan is running")
	ErrNoPlan      = errors.New("no plan loaded")
	ErrNoSpec      = errors.New("command carries no plan specification")
	ErrUnknownOp   = errors.New("unknown plan operation")
)

// Deps are the adapters a Service runs with. Nil fields fall back to no-op
// implementations.
type Deps struct {
	Client mqtt.Client
	Sink   coremetrics.MetricsSink
	Store  statstore.Store
	Clock  func() time.Time
	Logger logger.Logger
}

// Service supervises plan execution on the vehicle. A single control loop
// owns the plan runtime; the MQTT bridge and the HTTP API only post
// requests to it.
type Service struct {
	cfg       *config.Config
	rt        *runtime.PlanRuntime
	bus       *eventbus.Bus
	cli       mqtt.Client
	bridge    *mqtt.Bridge
	sink      coremetrics.MetricsSink
	store     statstore.Store
	log       logger.Logger
	now       func() time.Time
	supported []model.ManeuverKind

	reqs chan func()
	done chan struct{}

	// owned by the control loop
	state    model.PlanState
	spec     *model.PlanSpecification
	estState *model.EstimatedState
	lastMCS  *model.ManeuverControlState
	lastErr  string

	mu     sync.RWMutex
	status model.PlanStatus
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	mon, err := plugins.NewMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	monitoring.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := plugins.NewStatStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("statistics store: %w", err)
	}
	d := Deps{Sink: sink, Store: store}
	if cfg.MQTT.Broker != "" {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		d.Client = client
	}
	return NewWithDeps(cfg, d)
}

// NewWithDeps creates a Service using the given adapters.
func NewWithDeps(cfg *config.Config, d Deps) (*Service, error) {
	supported, err := cfg.Plan.Supported()
	if err != nil {
		return nil, err
	}
	if d.Sink == nil {
		d.Sink = coremetrics.NopSink{}
	}
	if d.Store == nil {
		d.Store = statstore.Nop{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = logger.New("service")
	}
	bus := eventbus.New()
	s := &Service{
		cfg:       cfg,
		bus:       bus,
		cli:       d.Client,
		sink:      d.Sink,
		store:     d.Store,
		log:       d.Logger,
		now:       d.Clock,
		supported: supported,
		reqs:      make(chan func()),
		done:      make(chan struct{}),
	}
	s.rt = runtime.New(cfg.Plan.Args(), cfg.Speed, cfg.Power,
		runtime.WithLogger(logger.New("runtime")),
		runtime.WithClock(d.Clock),
		runtime.WithBus(bus),
	)
	if d.Client != nil {
		s.bridge = mqtt.NewBridge(d.Client, cfg.MQTT.TopicPrefix, s)
	}
	s.snapshot()
	return s, nil
}

// Bus returns the event bus the runtime publishes on.
func (s *Service) Bus() eventbus.EventBus { return s.bus }

// Status returns the latest plan snapshot. It is safe for concurrent use.
func (s *Service) Status() model.PlanStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Handlers returns the HTTP API routes.
func (s *Service) Handlers() map[string]http.Handler {
	return planapi.Routes(s, s.store, s.cfg.API.Token)
}

// Run starts the adapters and the control loop and blocks until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	defer close(s.done)
	if s.bridge != nil {
		if err := s.bridge.Subscribe(); err != nil {
			return fmt.Errorf("mqtt subscribe: %w", err)
		}
		go s.bridge.Run(ctx, s.bus)
	}
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	s.persist(ctx)
	s.serve(ctx)
	s.loop(ctx)
	return nil
}

func (s *Service) serve(ctx context.Context) {
	mcfg, acfg := s.cfg.Metrics, s.cfg.API
	var extra map[string]http.Handler
	if acfg.Listen == "" || acfg.Listen == mcfg.Listen {
		extra = s.Handlers()
	}
	if mcfg.Listen != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, mcfg.Listen, extra); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if acfg.Listen != "" && acfg.Listen != mcfg.Listen {
		go func() {
			if err := planapi.Serve(ctx, acfg.Listen, s.Handlers(), acfg.Timeout()); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
}

// persist appends every statistics report to the store.
func (s *Service) persist(ctx context.Context) {
	sub := s.bus.Subscribe()
	go func() {
		defer s.bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				se, ok := ev.(events.StatisticsEvent)
				if !ok {
					continue
				}
				if err := s.store.Append(ctx, se.Statistics); err != nil {
					s.log.Errorf("store statistics of plan %s: %v", se.Statistics.PlanID, err)
				}
			}
		}
	}()
}

func (s *Service) loop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.API.ProgressInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.reqs:
			fn()
		case <-ticker.C:
			s.tick()
		}
		s.snapshot()
	}
}

// post hands fn to the control loop. It blocks until the loop accepts it
// and drops fn once the loop has exited.
func (s *Service) post(fn func()) {
	select {
	case s.reqs <- fn:
	case <-s.done:
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.cli != nil {
		s.cli.Disconnect()
	}
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	monitoring.Current().Flush(2 * time.Second)
	return s.store.Close()
}

func (s *Service) OnEstimatedState(st model.EstimatedState) {
	s.post(func() { s.estState = &st })
}

func (s *Service) OnVehicleState(vs model.VehicleState) {
	s.post(func() { s.handleVehicleState(vs) })
}

func (s *Service) OnManeuverState(mcs model.ManeuverControlState) {
	s.post(func() { s.handleManeuverState(mcs) })
}

func (s *Service) OnFuelLevel(fl model.FuelLevel) {
	s.post(func() { s.rt.OnFuelLevel(fl) })
}

func (s *Service) OnEntityState(r model.EntityStateReport) {
	s.post(func() { s.handleEntityState(r) })
}

func (s *Service) OnPlanCommand(cmd model.PlanCommand) {
	s.post(func() {
		if err := s.execute(cmd); err != nil {
			s.lastErr = err.Error()
			s.log.Warnf("plan command %s (%s) failed: %v", cmd.Op, cmd.RequestID, err)
		}
	})
}

// Execute runs cmd on the control loop and waits for its outcome.
func (s *Service) Execute(ctx context.Context, cmd model.PlanCommand) error {
	res := make(chan error, 1)
	fn := func() { res <- s.execute(cmd) }
	select {
	case s.reqs <- fn:
	case <-s.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) running() bool {
	return s.state == model.PlanCalibrating || s.state == model.PlanExecuting
}

func (s *Service) execute(cmd model.PlanCommand) error {
	switch cmd.Op {
	case model.PlanOpLoad:
		if s.running() {
			return ErrPlanRunning
		}
		return s.load(cmd.Spec)
	case model.PlanOpStart:
		if s.running() {
			return ErrPlanRunning
		}
		spec := cmd.Spec
		if spec == nil {
			spec = s.spec
		}
		if spec == nil {
			return ErrNoPlan
		}
		if err := s.load(spec); err != nil {
			return err
		}
		s.start()
	case model.PlanOpStop:
		if !s.running() {
			return ErrNotRunning
		}
		s.stop(nil)
	case model.PlanOpClear:
		if s.running() {
			s.stop(nil)
		}
		s.rt.Clear()
		s.spec = nil
		s.state = model.PlanReady
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}
	return nil
}

// load replaces the loaded plan. A rejected plan leaves nothing loaded.
func (s *Service) load(spec *model.PlanSpecification) error {
	if spec == nil {
		return ErrNoSpec
	}
	if _, err := s.rt.Load(spec, s.supported, s.cfg.Entities, s.cfg.Plan.IMUEnabled, s.estState); err != nil {
		s.spec = nil
		s.state = model.PlanReady
		return err
	}
	s.spec = spec
	s.state = model.PlanLoaded
	s.lastErr = ""
	return nil
}

func (s *Service) start() {
	s.rt.PlanStarted()
	s.rt.CalibrationStarted()
	s.state = model.PlanCalibrating
	s.lastMCS = nil
	s.rt.UpdateProgress(nil)
}

// stop ends execution. The plan stays loaded and can be started again.
func (s *Service) stop(cause error) {
	st := s.rt.PlanStopped()
	s.state = model.PlanLoaded
	s.lastMCS = nil
	if cause != nil {
		s.lastErr = cause.Error()
		s.log.Errorf("plan %s failed: %v", st.PlanID, cause)
		monitoring.CaptureException(cause, map[string]string{"plan_id": st.PlanID, "module": "service"})
	}
}

func (s *Service) handleVehicleState(vs model.VehicleState) {
	if !s.running() {
		return
	}
	if vs.OpMode == model.OpModeError {
		s.stop(fmt.Errorf("vehicle error: %s", vs.LastError))
		return
	}
	if s.state != model.PlanCalibrating {
		return
	}
	s.rt.UpdateCalibration(vs)
	cs := s.rt.CalibrationState()
	if cs == calibration.Stopped || (cs != calibration.InProgress && vs.OpMode == model.OpModeManeuver) {
		s.beginManeuvers()
		return
	}
	s.rt.UpdateProgress(nil)
}

func (s *Service) beginManeuvers() {
	m := s.rt.LoadStartManeuver()
	if m == nil {
		s.stop(ErrNoPlan)
		return
	}
	s.rt.ManeuverStarted(m.ID)
	s.state = model.PlanExecuting
}

func (s *Service) handleManeuverState(mcs model.ManeuverControlState) {
	if s.state != model.PlanExecuting {
		return
	}
	id := s.rt.CurrentManeuverID()
	switch mcs.State {
	case model.ManeuverExecuting:
		s.lastMCS = &mcs
		s.rt.UpdateProgress(&mcs)
	case model.ManeuverDone:
		s.advance()
	case model.ManeuverError:
		s.stop(fmt.Errorf("maneuver %s: %s", id, mcs.Info))
	case model.ManeuverStopped:
		s.stop(nil)
	}
}

// advance completes the current maneuver and moves to the next one, or
// ends the plan.
func (s *Service) advance() {
	s.rt.ManeuverDone()
	s.lastMCS = nil
	if s.rt.IsDone() {
		s.stop(nil)
		return
	}
	next := s.rt.LoadNextManeuver()
	if next == nil {
		s.stop(nil)
		return
	}
	s.rt.ManeuverStarted(next.ID)
}

func (s *Service) handleEntityState(r model.EntityStateReport) {
	if s.rt.OnEntityActivationState(r.Label, r.EntityActivationState) {
		return
	}
	if s.running() {
		s.stop(fmt.Errorf("entity %s failed to activate: %s", r.Label, r.Error))
	}
}

// tick republishes progress while a plan runs.
func (s *Service) tick() {
	switch s.state {
	case model.PlanCalibrating:
		s.rt.UpdateProgress(nil)
	case model.PlanExecuting:
		if s.lastMCS != nil {
			s.rt.UpdateProgress(s.lastMCS)
		}
	}
}

func (s *Service) snapshot() {
	st := model.PlanStatus{
		PlanID:            s.rt.PlanID(),
		State:             s.state,
		ManeuverID:        s.rt.CurrentManeuverID(),
		Properties:        s.rt.Properties(),
		Progress:          s.rt.Progress(),
		ETA:               s.rt.ETA(),
		Calibration:       s.rt.CalibrationState().String(),
		ExecutionDuration: s.rt.ExecutionDuration(),
		TotalDuration:     s.rt.TotalDuration(),
		LastError:         s.lastErr,
		UpdatedAt:         s.now(),
	}
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

var _ mqtt.Telemetry = (*Service)(nil)
