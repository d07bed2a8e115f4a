package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/auvplan/core/events"
	"github.com/kilianp07/auvplan/core/logger"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/profile"
	"github.com/kilianp07/auvplan/core/runtime"
	"github.com/kilianp07/auvplan/core/speed"
)

// surveySpec is m1 (10 s) -> m2 (15 s) -> m3 (5 s).
func surveySpec() *model.PlanSpecification {
	at := func() *model.Goto { return &model.Goto{Waypoint: model.Waypoint{Z: 5, ZUnits: model.ZUnitsDepth}} }
	return &model.PlanSpecification{
		ID:            "survey",
		StartManeuver: "m1",
		Maneuvers: []model.PlanManeuver{
			{ID: "m1", Data: at()},
			{ID: "m2", Data: at()},
			{ID: "m3", Data: at()},
		},
		Transitions: []model.PlanTransition{
			{Source: "m1", Dest: "m2"},
			{Source: "m2", Dest: "m3"},
			{Source: "m3", Dest: model.TransitionDone},
		},
	}
}

var surveyDurations = map[string]float64{"m1": 10, "m2": 15, "m3": 5}

func platform() Platform {
	return Platform{Args: runtime.Args{MaxDepth: 50, MinCalibrationTime: 10, ComputeProgress: true}}
}

func newSim(t *testing.T, cfg Config, plat Platform, opts ...Option) *Simulator {
	t.Helper()
	opts = append([]Option{
		WithLogger(logger.NopLogger{}),
		WithStart(time.Unix(1_700_000_000, 0)),
		WithRuntimeOptions(runtime.WithProfile(func(*speed.Model) profile.Profile { return profile.NewStatic(surveyDurations) })),
	}, opts...)
	s, err := New(cfg, plat, opts...)
	require.NoError(t, err)
	return s
}

func TestRunLinearPlan(t *testing.T) {
	s := newSim(t, Config{}, platform())
	res, err := s.Run(context.Background(), surveySpec(), &model.EstimatedState{})
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.False(t, res.Truncated)
	assert.Empty(t, res.Failure)
	assert.Equal(t, "survey", res.PlanID)
	// 10 s of calibration, starting one tick after the plan.
	assert.InDelta(t, 41, res.Elapsed, 1e-9)
	assert.Equal(t, model.StatisticsPre, res.Pre.Type)
	assert.Equal(t, model.StatisticsPost, res.Post.Type)
	assert.Len(t, res.Timeline, 3)

	require.NotEmpty(t, res.Points)
	assert.Equal(t, -1.0, res.Points[0].Progress)
	last := -1.0
	for _, p := range res.Points {
		if p.Progress < 0 {
			continue
		}
		assert.GreaterOrEqual(t, p.Progress, last, "progress went back at %.0fs", p.Elapsed)
		last = p.Progress
	}
	assert.Greater(t, last, 95.0)
	assert.InDelta(t, 100-60*41.0/3600/1500*100, res.FuelLevel, 1e-9)
}

func TestRunSpeedFactor(t *testing.T) {
	s := newSim(t, Config{SpeedFactor: 2}, platform())
	res, err := s.Run(context.Background(), surveySpec(), &model.EstimatedState{})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	// 11 s to calibrate, then 5 s, 7.5 s and 2.5 s on a 1 s tick.
	assert.InDelta(t, 11+5+8+3, res.Elapsed, 1e-9)
}

func ctdPlatform() (Platform, *model.PlanSpecification) {
	plat := platform()
	plat.Entities = []model.EntityInfo{{Label: "ctd", Component: "ctd", ActivationTime: 100}}
	spec := surveySpec()
	spec.StartActions = []model.EntityAction{{Entity: "ctd", Active: true}}
	return plat, spec
}

func TestRunCalibrationWaitsForAck(t *testing.T) {
	plat, spec := ctdPlatform()
	s := newSim(t, Config{AckLatency: 25 * time.Second}, plat)
	res, err := s.Run(context.Background(), spec, &model.EstimatedState{})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.InDelta(t, 25+30, res.Elapsed, 1e-9)
}

func TestRunActivationFailure(t *testing.T) {
	plat, spec := ctdPlatform()
	s := newSim(t, Config{AckLatency: 5 * time.Second, DropRate: 1}, plat)
	res, err := s.Run(context.Background(), spec, &model.EstimatedState{})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Contains(t, res.Failure, "ctd")
	assert.InDelta(t, 5, res.Elapsed, 1e-9)
	assert.Equal(t, model.StatisticsPost, res.Post.Type)
}

func TestRunCyclicPlanTruncated(t *testing.T) {
	spec := surveySpec()
	spec.Transitions[2].Dest = "m1"
	s := newSim(t, Config{MaxDuration: 5 * time.Minute, SampleEvery: time.Minute}, platform())
	res, err := s.Run(context.Background(), spec, &model.EstimatedState{})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.False(t, res.Completed)
	assert.InDelta(t, 300, res.Elapsed, 1e-9)
	assert.True(t, res.Pre.Properties.Has(model.PropCyclical))
	assert.Len(t, res.Points, 6)
	for _, p := range res.Points {
		assert.Equal(t, -1.0, p.Progress)
	}
}

func TestRunBatteryDepleted(t *testing.T) {
	s := newSim(t, Config{CapacityWh: 1, DrawW: 360}, platform())
	res, err := s.Run(context.Background(), surveySpec(), &model.EstimatedState{})
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Contains(t, res.Failure, "battery depleted")
	assert.InDelta(t, 10, res.Elapsed, 1)
	assert.Zero(t, res.FuelLevel)
}

func TestRunRejectedPlan(t *testing.T) {
	spec := surveySpec()
	spec.Maneuvers[1].Data = &model.Goto{Waypoint: model.Waypoint{Z: 80, ZUnits: model.ZUnitsDepth}}
	s := newSim(t, Config{}, platform())
	res, err := s.Run(context.Background(), spec, &model.EstimatedState{})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, runtime.ErrDepthUnsafe)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newSim(t, Config{}, platform())
	res, err := s.Run(ctx, surveySpec(), &model.EstimatedState{})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.False(t, res.Completed)
	assert.Zero(t, res.Elapsed)
}

type recordingSink struct {
	vehicle   []model.VehicleState
	maneuvers []model.ManeuverControlState
	fuel      []model.FuelLevel
	entities  []model.EntityStateReport
}

func (r *recordingSink) OnVehicleState(v model.VehicleState) {
	r.vehicle = append(r.vehicle, v)
}

func (r *recordingSink) OnManeuverState(m model.ManeuverControlState) {
	r.maneuvers = append(r.maneuvers, m)
}

func (r *recordingSink) OnFuelLevel(f model.FuelLevel) {
	r.fuel = append(r.fuel, f)
}

func (r *recordingSink) OnEntityState(e model.EntityStateReport) {
	r.entities = append(r.entities, e)
}

func TestRunMirrorsTelemetry(t *testing.T) {
	plat, spec := ctdPlatform()
	sink := &recordingSink{}
	s := newSim(t, Config{AckLatency: 5 * time.Second}, plat, WithSink(sink))
	res, err := s.Run(context.Background(), spec, &model.EstimatedState{})
	require.NoError(t, err)
	require.True(t, res.Completed)

	require.NotEmpty(t, sink.vehicle)
	assert.Equal(t, model.OpModeCalibration, sink.vehicle[0].OpMode)
	assert.Equal(t, model.OpModeService, sink.vehicle[len(sink.vehicle)-1].OpMode)

	done := 0
	for _, m := range sink.maneuvers {
		if m.State == model.ManeuverDone {
			done++
		}
	}
	assert.Equal(t, 3, done)
	// one report every 10 s over 41 s.
	assert.Len(t, sink.fuel, 4)
	require.Len(t, sink.entities, 1)
	assert.Equal(t, "ctd", sink.entities[0].Label)
	assert.Equal(t, model.EntityActive, sink.entities[0].State)
}

type fixedAck struct{ n int }

func (f *fixedAck) Ack(events.ActivationEvent) (time.Duration, model.EntityActivationState) {
	f.n++
	return 0, model.EntityActivationState{State: model.EntityActive}
}

func TestWithAckStrategy(t *testing.T) {
	plat, spec := ctdPlatform()
	acks := &fixedAck{}
	s := newSim(t, Config{}, plat, WithAckStrategy(acks))
	res, err := s.Run(context.Background(), spec, &model.EstimatedState{})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	// activation at plan start, deactivation at plan stop.
	assert.Equal(t, 2, acks.n)
	// calibration lasts the minimum time once the ctd reports at once.
	assert.InDelta(t, 41, res.Elapsed, 1e-9)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{DropRate: 2}, platform())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drop_rate")
}
