package runtime

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/auvplan/core/calibration"
	"github.com/kilianp07/auvplan/core/events"
	"github.com/kilianp07/auvplan/core/fuel"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/plan"
	"github.com/kilianp07/auvplan/core/power"
	"github.com/kilianp07/auvplan/core/profile"
	"github.com/kilianp07/auvplan/core/schedule"
	"github.com/kilianp07/auvplan/core/speed"
	"github.com/kilianp07/auvplan/core/timeline"
	"github.com/kilianp07/auvplan/internal/eventbus"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func gotoDepth(z float64) *model.Goto {
	return &model.Goto{Waypoint: model.Waypoint{Z: z, ZUnits: model.ZUnitsDepth}}
}

// linearSpec is m1 -> m2 -> m3 -> done.
func linearSpec() *model.PlanSpecification {
	return &model.PlanSpecification{
		ID:            "survey",
		StartManeuver: "m1",
		Maneuvers: []model.PlanManeuver{
			{ID: "m1", Data: gotoDepth(5)},
			{ID: "m2", Data: gotoDepth(5)},
			{ID: "m3", Data: gotoDepth(5)},
		},
		Transitions: []model.PlanTransition{
			{Source: "m1", Dest: "m2"},
			{Source: "m2", Dest: "m3"},
			{Source: "m3", Dest: model.TransitionDone},
		},
	}
}

var scenarioDurations = map[string]float64{"m1": 10, "m2": 15, "m3": 5}

func staticProfile(d map[string]float64) Option {
	return WithProfile(func(*speed.Model) profile.Profile { return profile.NewStatic(d) })
}

func newRuntime(args Args, opts ...Option) (*PlanRuntime, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	opts = append([]Option{WithClock(c.now)}, opts...)
	return New(args, speed.Config{}, power.Config{}, opts...), c
}

func executing(eta uint16) *model.ManeuverControlState {
	return &model.ManeuverControlState{State: model.ManeuverExecuting, ETA: eta}
}

var state = &model.EstimatedState{}

// calibrate runs a full calibration window of the minimum length.
func calibrate(t *testing.T, r *PlanRuntime, c *clock) {
	t.Helper()
	r.CalibrationStarted()
	calibrating := model.VehicleState{OpMode: model.OpModeCalibration}
	r.UpdateCalibration(calibrating)
	c.advance(time.Duration(r.args.MinCalibrationTime * float64(time.Second)))
	r.UpdateCalibration(calibrating)
	require.Equal(t, calibration.Stopped, r.CalibrationState())
}

func TestScenarioALinearPlan(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50, ComputeProgress: true}, staticProfile(scenarioDurations))
	pre, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)

	assert.Equal(t, 30.0, r.ExecutionDuration())
	assert.Equal(t, 30.0, r.TotalDuration())
	assert.Equal(t, -1.0, r.ETA())
	assert.Equal(t, -1.0, r.Progress())
	assert.Equal(t, 30.0, pre.Durations["Total"])
	assert.True(t, r.IsLinear())

	r.PlanStarted()
	calibrate(t, r, c)
	require.Equal(t, "m1", r.LoadStartManeuver().ID)
	r.ManeuverStarted("m1")
	p := r.UpdateProgress(executing(5))
	assert.Greater(t, p, 0.0)
	assert.Less(t, p, 100.0/3)
	assert.InDelta(t, 100.0*5/30, p, 1e-9)
	assert.InDelta(t, 25, r.ETA(), 1e-9)
}

func TestScenarioBCyclicPlan(t *testing.T) {
	spec := linearSpec()
	spec.Maneuvers = spec.Maneuvers[:2]
	spec.Transitions = []model.PlanTransition{{Source: "m1", Dest: "m2"}, {Source: "m2", Dest: "m1"}}

	r, _ := newRuntime(Args{MaxDepth: 50, ComputeProgress: true, MinCalibrationTime: 30}, staticProfile(scenarioDurations))
	pre, err := r.Load(spec, nil, nil, false, state)
	require.NoError(t, err)

	assert.Empty(t, r.Sequence())
	assert.Equal(t, model.PropNonLinear|model.PropInfinite|model.PropCyclical, r.Properties())
	assert.Equal(t, r.Properties(), pre.Properties)
	assert.Nil(t, r.Timeline())
	assert.Equal(t, 30.0, r.EstimatedCalibrationTime())

	r.LoadStartManeuver()
	r.ManeuverStarted("m1")
	assert.Equal(t, -1.0, r.UpdateProgress(executing(5)))
	assert.Equal(t, -1.0, r.ETA())
	assert.False(t, r.IsDone())
	assert.Equal(t, "m2", r.LoadNextManeuver().ID)
	assert.Equal(t, "m1", r.LoadNextManeuver().ID)
}

func TestScenarioCDepthViolation(t *testing.T) {
	spec := linearSpec()
	spec.Maneuvers[1].Data = gotoDepth(50 + 1.0 + 0.1)

	r, _ := newRuntime(Args{MaxDepth: 50}, staticProfile(scenarioDurations))
	_, err := r.Load(spec, nil, nil, false, state)

	var invalid *InvalidPlanSpecError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "m2", invalid.ManeuverID)
	assert.ErrorIs(t, err, ErrDepthUnsafe)
	assert.Contains(t, err.Error(), "m2")
	assert.False(t, r.Loaded())
	assert.Nil(t, r.LoadStartManeuver())
}

func TestLoadRejectsUnsupportedKind(t *testing.T) {
	spec := linearSpec()
	spec.Maneuvers[2].Data = &model.Loiter{Duration: 10}

	r, _ := newRuntime(Args{MaxDepth: 50}, staticProfile(scenarioDurations))
	_, err := r.Load(spec, []model.ManeuverKind{model.KindGoto}, nil, false, state)
	assert.ErrorIs(t, err, ErrUnsupportedManeuver)

	var invalid *InvalidPlanSpecError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "m3", invalid.ManeuverID)
}

func TestLoadRejectsInvalidGraph(t *testing.T) {
	spec := linearSpec()
	spec.StartManeuver = "nope"
	r, _ := newRuntime(Args{MaxDepth: 50})
	_, err := r.Load(spec, nil, nil, false, state)
	assert.ErrorIs(t, err, plan.ErrInvalidGraph)
}

// danglingGraph loses m2 after validation.
type danglingGraph struct{ *plan.Graph }

func (d danglingGraph) FindNode(id string) *plan.Node {
	if id == "m2" {
		return nil
	}
	return d.Graph.FindNode(id)
}

func TestLoadSequenceError(t *testing.T) {
	build := func(s *model.PlanSpecification) (plan.Provider, error) {
		g, err := plan.NewGraph(s)
		if err != nil {
			return nil, err
		}
		return danglingGraph{g}, nil
	}
	r, _ := newRuntime(Args{MaxDepth: 50}, WithGraphBuilder(build))
	_, err := r.Load(linearSpec(), nil, nil, false, state)

	var seqErr *plan.SequenceError
	require.True(t, errors.As(err, &seqErr))
	assert.Equal(t, "m2", seqErr.ManeuverID)
	assert.False(t, r.Loaded())
}

func TestProgressIsMonotonicAcrossManeuvers(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50, ComputeProgress: true}, staticProfile(scenarioDurations))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	calibrate(t, r, c)

	steps := []struct {
		id   string
		etas []uint16
	}{
		{"m1", []uint16{5, 8, 2}},
		{"m2", []uint16{15, 5, 12}},
		{"m3", []uint16{5, 1}},
	}
	last := -1.0
	r.LoadStartManeuver()
	for i, s := range steps {
		if i > 0 {
			require.Equal(t, s.id, r.LoadNextManeuver().ID)
		}
		r.ManeuverStarted(s.id)
		for _, eta := range s.etas {
			p := r.UpdateProgress(executing(eta))
			assert.GreaterOrEqual(t, p, last, "progress regressed on %s eta %d", s.id, eta)
			last = p
		}
		assert.Equal(t, s.id == "m3", r.IsDone())
		r.ManeuverDone()
	}
	assert.InDelta(t, 100.0*29/30, last, 1e-9)
	assert.True(t, r.BeyondDuration())
	assert.Nil(t, r.LoadNextManeuver())
	assert.Equal(t, "m3", r.CurrentManeuverID())
}

func TestProgressBeyondEstimatedDuration(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50, ComputeProgress: true}, staticProfile(map[string]float64{"m1": 10}))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.ExecutionDuration())
	calibrate(t, r, c)

	r.LoadStartManeuver()
	r.ManeuverStarted("m1")
	r.ManeuverDone()
	r.LoadNextManeuver()
	r.ManeuverStarted("m2")
	assert.Equal(t, 100.0, r.UpdateProgress(executing(30)))
	assert.Equal(t, 0.0, r.ETA())
}

func TestProgressUnknownBeforeBeyond(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50, ComputeProgress: true}, staticProfile(map[string]float64{"m1": 10}))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	calibrate(t, r, c)
	r.LoadStartManeuver()
	r.LoadNextManeuver()
	r.ManeuverStarted("m2")
	assert.Equal(t, -1.0, r.UpdateProgress(executing(30)))
}

func TestProgressDisabled(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50}, staticProfile(scenarioDurations))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	calibrate(t, r, c)
	r.LoadStartManeuver()
	r.ManeuverStarted("m1")
	assert.Equal(t, -1.0, r.UpdateProgress(executing(5)))
}

func TestProgressUnknownUntilCalibrationStarts(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50, ComputeProgress: true, MinCalibrationTime: 10}, staticProfile(scenarioDurations))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	assert.Equal(t, calibration.NotStarted, r.CalibrationState())

	r.LoadStartManeuver()
	r.ManeuverStarted("m1")
	assert.Equal(t, -1.0, r.UpdateProgress(executing(5)))
	r.CalibrationStarted()
	assert.Equal(t, -1.0, r.UpdateProgress(executing(5)))

	r.UpdateCalibration(model.VehicleState{OpMode: model.OpModeCalibration})
	assert.Equal(t, calibration.InProgress, r.CalibrationState())
	// 10 s of calibration and 30 s of execution left out of 40 s.
	assert.InDelta(t, 0, r.UpdateProgress(nil), 1e-9)
	c.advance(5 * time.Second)
	assert.InDelta(t, 100*(1-35.0/40), r.UpdateProgress(nil), 1e-9)
}

func TestCalibrationStartsAfterClear(t *testing.T) {
	r, _ := newRuntime(Args{MaxDepth: 50, MinCalibrationTime: 10}, staticProfile(scenarioDurations))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	r.Clear()
	assert.Equal(t, calibration.NotStarted, r.CalibrationState())
	r.UpdateCalibration(model.VehicleState{OpMode: model.OpModeCalibration})
	assert.Equal(t, calibration.InProgress, r.CalibrationState())
}

func TestManeuverDoneWithoutCurrentManeuver(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50}, staticProfile(scenarioDurations))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	r.PlanStarted()
	r.ManeuverStarted("m1")
	c.advance(5 * time.Second)
	r.ManeuverDone()
	c.advance(5 * time.Second)

	st := r.PlanStopped()
	require.Len(t, st.Maneuvers, 1)
	assert.Equal(t, 10*time.Second, st.Maneuvers[0].End.Sub(st.Maneuvers[0].Start))
}

func TestLoadWithoutStateSkipsEstimation(t *testing.T) {
	r, _ := newRuntime(Args{MaxDepth: 50, ComputeProgress: true, MinCalibrationTime: 12}, staticProfile(scenarioDurations))
	_, err := r.Load(linearSpec(), nil, nil, false, nil)
	require.NoError(t, err)
	assert.Equal(t, -1.0, r.ExecutionDuration())
	assert.Equal(t, -1.0, r.TotalDuration())
	assert.Nil(t, r.Timeline())
	assert.Equal(t, 12.0, r.EstimatedCalibrationTime())
}

func TestLoadWithoutStateStillDispatchesActions(t *testing.T) {
	spec := linearSpec()
	spec.StartActions = []model.EntityAction{{Entity: "ctd", Active: true}}
	entities := []model.EntityInfo{{Label: "ctd", ActivationTime: 100}}

	bus := eventbus.New()
	ch := bus.Subscribe()
	r, _ := newRuntime(Args{MaxDepth: 50}, staticProfile(scenarioDurations), WithBus(bus))
	_, err := r.Load(spec, nil, entities, false, nil)
	require.NoError(t, err)
	assert.Nil(t, r.Timeline())
	assert.True(t, r.IsLinear())

	r.PlanStarted()
	found := false
	for len(ch) > 0 {
		if ev, ok := (<-ch).(events.ActivationEvent); ok && ev.Entity == "ctd" && ev.Active {
			found = true
		}
	}
	assert.True(t, found, "plan start action dispatched without a timeline")
}

func TestInfiniteDurationFlag(t *testing.T) {
	r, _ := newRuntime(Args{MaxDepth: 50}, staticProfile(map[string]float64{"m1": 10, "m2": -1}))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	assert.True(t, r.Properties().Has(model.PropInfinite))
	assert.True(t, r.IsLinear())
}

func TestIsDone(t *testing.T) {
	r, _ := newRuntime(Args{MaxDepth: 50}, staticProfile(scenarioDurations))
	assert.False(t, r.IsDone())

	spec := linearSpec()
	spec.Transitions = spec.Transitions[:2]
	_, err := r.Load(spec, nil, nil, false, state)
	require.NoError(t, err)
	r.LoadStartManeuver()
	assert.False(t, r.IsDone())
	r.LoadNextManeuver()
	r.LoadNextManeuver()
	assert.True(t, r.IsDone(), "maneuver without transition is terminal")
}

func TestCalibrationWindow(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50, ComputeProgress: true, MinCalibrationTime: 60}, staticProfile(scenarioDurations))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	assert.Equal(t, 60.0, r.EstimatedCalibrationTime())
	assert.Equal(t, 90.0, r.TotalDuration())

	r.PlanStarted()
	r.CalibrationStarted()
	assert.Equal(t, calibration.NotStarted, r.CalibrationState())
	assert.Equal(t, -1.0, r.UpdateProgress(nil))

	calibrating := model.VehicleState{OpMode: model.OpModeCalibration}
	r.UpdateCalibration(calibrating)
	assert.Equal(t, calibration.InProgress, r.CalibrationState())

	c.advance(20 * time.Second)
	r.UpdateCalibration(calibrating)
	assert.Equal(t, calibration.InProgress, r.CalibrationState())
	assert.InDelta(t, 100*(1-70.0/90), r.UpdateProgress(nil), 1e-9)

	c.advance(40 * time.Second)
	r.UpdateCalibration(calibrating)
	assert.Equal(t, calibration.Stopped, r.CalibrationState())

	st := r.PlanStopped()
	assert.Equal(t, 60.0, st.CalibrationSeconds)
	assert.Equal(t, model.StatisticsPost, st.Type)
}

func TestCalibrationStopsWhenLeavingMode(t *testing.T) {
	r, c := newRuntime(Args{MaxDepth: 50, MinCalibrationTime: 60}, staticProfile(scenarioDurations))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	r.CalibrationStarted()
	r.UpdateCalibration(model.VehicleState{OpMode: model.OpModeCalibration})
	c.advance(15 * time.Second)
	r.UpdateCalibration(model.VehicleState{OpMode: model.OpModeManeuver})
	assert.Equal(t, calibration.Stopped, r.CalibrationState())
	assert.Equal(t, 15.0, r.PlanStopped().CalibrationSeconds)
}

func TestCalibrationWaitsForDevice(t *testing.T) {
	spec := linearSpec()
	spec.StartActions = []model.EntityAction{{Entity: "ctd", Active: true}}
	entities := []model.EntityInfo{{Label: "ctd", ActivationTime: 100}}

	bus := eventbus.New()
	activations := bus.Subscribe()
	r, c := newRuntime(Args{MaxDepth: 50, MinCalibrationTime: 10}, staticProfile(scenarioDurations), WithBus(bus))
	_, err := r.Load(spec, nil, entities, false, state)
	require.NoError(t, err)
	// ctd must be switched on 100 s before the 30 s execution starts.
	assert.Equal(t, 100.0, r.EstimatedCalibrationTime())
	assert.Equal(t, 130.0, r.Timeline().PlanETA())

	r.PlanStarted()
	r.CalibrationStarted()
	r.UpdateCalibration(model.VehicleState{OpMode: model.OpModeCalibration})
	c.advance(30 * time.Second)
	r.UpdateCalibration(model.VehicleState{OpMode: model.OpModeCalibration})
	assert.Equal(t, calibration.InProgress, r.CalibrationState(), "waiting for ctd")

	assert.True(t, r.OnEntityActivationState("ctd", model.EntityActivationState{State: model.EntityActive}))
	r.UpdateCalibration(model.VehicleState{OpMode: model.OpModeCalibration})
	assert.Equal(t, calibration.Stopped, r.CalibrationState())

	found := false
	for len(activations) > 0 {
		if ev, ok := (<-activations).(events.ActivationEvent); ok && ev.Entity == "ctd" && ev.Active {
			found = true
		}
	}
	assert.True(t, found, "activation request published on the bus")
}

func TestFuelPrediction(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	speedCfg := speed.Config{RPM: []float64{0, 2000}, MPS: []float64{0, 2}, Percent: []float64{0, 100}}
	powerCfg := power.Config{Speeds: []float64{0, 2}, Power: []float64{0, 200}, HotelLoad: 36, BatteryCapacityWh: 1000}
	r := New(Args{MaxDepth: 50, FuelPrediction: true}, speedCfg, powerCfg, WithClock(c.now))

	// 100 m north at 1 m/s.
	lat := 100 / 6378137.0 * 180 / math.Pi
	spec := &model.PlanSpecification{
		ID:            "transit",
		StartManeuver: "go",
		Maneuvers: []model.PlanManeuver{{ID: "go", Data: &model.Goto{
			Waypoint: model.Waypoint{Lat: lat},
			SpeedRef: model.SpeedRef{Speed: 1},
		}}},
	}
	pre, err := r.Load(spec, nil, nil, false, &model.EstimatedState{})
	require.NoError(t, err)
	assert.InDelta(t, 100, pre.Durations["go"], 1e-6)
	assert.Greater(t, pre.Fuel[fuel.KeyTotal], 0.0)

	r.OnFuelLevel(model.FuelLevel{Value: 80})
	r.PlanStarted()
	st := r.PlanStopped()
	assert.Equal(t, 80.0, st.Fuel[fuel.KeyMeasuredStart])
	assert.InDelta(t, pre.Fuel[fuel.KeyTotal], st.Fuel[fuel.KeyTotal], 1e-9)
}

func TestDegradedModels(t *testing.T) {
	r := New(Args{MaxDepth: 50, FuelPrediction: true, ComputeProgress: true}, speed.Config{MPS: []float64{1}}, power.Config{})
	pre, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	assert.Equal(t, -1.0, r.ExecutionDuration())
	assert.Nil(t, pre.Fuel)
	r.OnFuelLevel(model.FuelLevel{Value: 50})
	assert.Nil(t, r.PlanStopped().Fuel)
}

func TestClearResets(t *testing.T) {
	bus := eventbus.New()
	ch := bus.Subscribe()
	r, c := newRuntime(Args{MaxDepth: 50, ComputeProgress: true}, staticProfile(scenarioDurations), WithBus(bus))
	_, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)
	ev := (<-ch).(events.PlanEvent)
	assert.Equal(t, events.PlanLoaded, ev.Action)
	calibrate(t, r, c)

	r.LoadStartManeuver()
	r.ManeuverStarted("m1")
	require.Greater(t, r.UpdateProgress(executing(5)), 0.0)

	r.Clear()
	assert.Equal(t, -1.0, r.Progress())
	assert.Equal(t, -1.0, r.ETA())
	assert.False(t, r.Loaded())
	assert.Equal(t, "", r.CurrentManeuverID())
	assert.Equal(t, calibration.NotStarted, r.CalibrationState())
	assert.Equal(t, model.PlanProperties(0), r.Properties())
	assert.True(t, r.OnEntityActivationState("x", model.EntityActivationState{State: model.EntityActivationFailed}))
	r.OnFuelLevel(model.FuelLevel{})
	r.ManeuverDone()
	r.Clear()
}

type mockScheduler struct{ mock.Mock }

func (m *mockScheduler) PlanStarted() []string         { return m.Called().Get(0).([]string) }
func (m *mockScheduler) PlanStopped(affected []string) { m.Called(affected) }
func (m *mockScheduler) ManeuverStarted(id string)     { m.Called(id) }
func (m *mockScheduler) ManeuverDone(id string)        { m.Called(id) }
func (m *mockScheduler) UpdateSchedule(eta float64)    { m.Called(eta) }
func (m *mockScheduler) FlushTimed()                   { m.Called() }
func (m *mockScheduler) WaitingForDevice() bool        { return m.Called().Bool(0) }
func (m *mockScheduler) CalibTimeLeft() float64        { return m.Called().Get(0).(float64) }
func (m *mockScheduler) EarliestSchedule() float64     { return m.Called().Get(0).(float64) }
func (m *mockScheduler) Summary() map[string]int       { return m.Called().Get(0).(map[string]int) }
func (m *mockScheduler) FillComponentActiveTime(cat schedule.ComponentActiveTime) {
	m.Called(cat)
}
func (m *mockScheduler) OnEntityActivationState(label string, st model.EntityActivationState) bool {
	return m.Called(label, st).Bool(0)
}

type mockFactory struct{ s *mockScheduler }

func (f mockFactory) Linear(*model.PlanSpecification, plan.Sequence, *timeline.Timeline, []model.EntityInfo) Scheduler {
	return f.s
}

func (f mockFactory) NonLinear(*model.PlanSpecification, []model.EntityInfo) Scheduler { return f.s }

func TestSchedulerDrivenByProgress(t *testing.T) {
	s := &mockScheduler{}
	s.On("EarliestSchedule").Return(50.0)
	s.On("FillComponentActiveTime", mock.Anything).Return()
	s.On("Summary").Return(map[string]int{"plan_start": 1})
	s.On("ManeuverStarted", mock.Anything).Return()
	s.On("ManeuverDone", mock.Anything).Return()
	s.On("UpdateSchedule", mock.MatchedBy(func(eta float64) bool { return math.Abs(eta-25) < 1e-6 })).Return().Once()
	s.On("FlushTimed").Return().Once()
	s.On("WaitingForDevice").Return(false)

	r, c := newRuntime(Args{MaxDepth: 50, ComputeProgress: true, MinCalibrationTime: 10},
		staticProfile(map[string]float64{"m1": 10, "m2": 20}), WithSchedulerFactory(mockFactory{s}))
	pre, err := r.Load(linearSpec(), nil, nil, false, state)
	require.NoError(t, err)

	// Execution is 30 s but an action needs 50 s of lead time.
	assert.Equal(t, 20.0, r.EstimatedCalibrationTime())
	assert.Equal(t, 50.0, r.TotalDuration())
	assert.Equal(t, 50.0, r.Timeline().PlanETA())
	assert.Equal(t, 1, pre.Actions["plan_start"])

	calibrate(t, r, c)
	r.LoadStartManeuver()
	r.ManeuverStarted("m1")
	// 20 s of calibration and 5 s of execution out of 50 s.
	assert.InDelta(t, 50, r.UpdateProgress(executing(5)), 1e-9)

	r.ManeuverDone()
	r.LoadNextManeuver()
	r.ManeuverStarted("m2")
	r.ManeuverDone()
	require.True(t, r.BeyondDuration())
	r.LoadNextManeuver()
	r.ManeuverStarted("m3")
	assert.Equal(t, 100.0, r.UpdateProgress(executing(3)))

	s.AssertExpectations(t)
}
