package simulator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/auvplan/core/events"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/infra/mqtt"
)

func TestBatteryDrain(t *testing.T) {
	b := &Battery{CapacityWh: 100, Level: 50}
	got := b.Drain(60, 10*time.Minute)
	if got != 60 {
		t.Fatalf("expected 60 W drawn, got %v", got)
	}
	assert.InDelta(t, 40, b.Percent(), 1e-9)

	got = b.Drain(3600, time.Hour)
	assert.InDelta(t, 40, got, 1e-9, "only the energy left can be drawn")
	assert.Zero(t, b.Percent())
	assert.Zero(t, b.Drain(100, 0))
}

func TestVehicleExecute(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	v := NewVehicle(map[string]float64{"m1": 3}, cfg)
	assert.Equal(t, model.OpModeService, v.State().OpMode)

	v.Execute("m1")
	assert.Equal(t, model.ManeuverControlState{State: model.ManeuverExecuting, ETA: 3}, v.ManeuverState())
	v.Step(1500 * time.Millisecond)
	assert.Equal(t, uint16(2), v.ManeuverState().ETA, "eta rounds up")
	v.Step(2 * time.Second)
	assert.Equal(t, model.ManeuverDone, v.ManeuverState().State)

	v.Execute("unknown")
	assert.Equal(t, uint16(60), v.ManeuverState().ETA)
	v.Stop()
	assert.Empty(t, v.Maneuver())
}

func TestAckStrategies(t *testing.T) {
	on := events.ActivationEvent{Entity: "ctd", Active: true}
	off := events.ActivationEvent{Entity: "ctd"}

	d, st := AutoAck{Delay: time.Second}.Ack(on)
	assert.Equal(t, time.Second, d)
	assert.Equal(t, model.EntityActive, st.State)
	_, st = AutoAck{}.Ack(off)
	assert.Equal(t, model.EntityInactive, st.State)

	always := NewRandomAck(0, 1, 42)
	_, st = always.Ack(on)
	assert.Equal(t, model.EntityActivationFailed, st.State)
	assert.NotEmpty(t, st.Error)
	_, st = always.Ack(off)
	assert.Equal(t, model.EntityDeactivationFailed, st.State)

	var never RandomAck
	_, st = never.Ack(on)
	assert.Equal(t, model.EntityActive, st.State)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{BatteryProfile: "large", DropRate: 0.2}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Step)
	assert.Equal(t, 4000.0, cfg.CapacityWh)
	assert.Equal(t, 120.0, cfg.DrawW)
	assert.Equal(t, 100.0, cfg.FuelLevel)
	assert.IsType(t, &RandomAck{}, strategyFor(cfg))
	assert.IsType(t, AutoAck{}, strategyFor(Config{}))

	bad := Config{BatteryProfile: "huge", SpeedFactor: -1, FuelLevel: 120}
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"battery profile", "speed_factor", "fuel_level"} {
		assert.Contains(t, err.Error(), want)
	}
}

type fakeClient struct {
	out map[string][]byte
}

func (f *fakeClient) Publish(topic, _ string, _ bool, payload []byte) error {
	f.out[topic] = payload
	return nil
}

func (f *fakeClient) Subscribe(string, string, mqtt.Handler) error { return nil }

func (f *fakeClient) Disconnect() {}

func TestMQTTSinkPublishesTelemetry(t *testing.T) {
	cli := &fakeClient{out: map[string][]byte{}}
	sink := NewMQTTSinkWithClient(cli, "sim")
	topics := mqtt.NewTopics("sim")

	sink.OnVehicleState(model.VehicleState{OpMode: model.OpModeManeuver})
	sink.OnManeuverState(model.ManeuverControlState{State: model.ManeuverExecuting, ETA: 12})
	sink.OnFuelLevel(model.FuelLevel{Value: 87})
	sink.OnEntityState(model.EntityStateReport{Label: "ctd", EntityActivationState: model.EntityActivationState{State: model.EntityActive}})
	sink.Close()

	var mcs model.ManeuverControlState
	require.NoError(t, json.Unmarshal(cli.out[topics.ManeuverState], &mcs))
	assert.Equal(t, uint16(12), mcs.ETA)
	var vs model.VehicleState
	require.NoError(t, json.Unmarshal(cli.out[topics.VehicleState], &vs))
	assert.Equal(t, model.OpModeManeuver, vs.OpMode)
	var fl model.FuelLevel
	require.NoError(t, json.Unmarshal(cli.out[topics.FuelLevel], &fl))
	assert.Equal(t, 87.0, fl.Value)
	var rep model.EntityStateReport
	require.NoError(t, json.Unmarshal(cli.out[topics.EntityState], &rep))
	assert.Equal(t, "ctd", rep.Label)
}
