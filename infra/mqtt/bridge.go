package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kilianp07/auvplan/core/events"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/infra/logger"
	"github.com/kilianp07/auvplan/internal/eventbus"
)

// Telemetry receives the decoded inbound messages.
type Telemetry interface {
	OnEstimatedState(model.EstimatedState)
	OnVehicleState(model.VehicleState)
	OnManeuverState(model.ManeuverControlState)
	OnFuelLevel(model.FuelLevel)
	OnEntityState(model.EntityStateReport)
	OnPlanCommand(model.PlanCommand)
}

// Bridge maps MQTT topics to the plan runtime and runtime events back to
// MQTT.
type Bridge struct {
	cli    Client
	topics Topics
	sink   Telemetry
	log    logger.Logger
}

// NewBridge creates a bridge publishing and subscribing under prefix.
func NewBridge(cli Client, prefix string, sink Telemetry) *Bridge {
	return &Bridge{cli: cli, topics: NewTopics(prefix), sink: sink, log: logger.New("mqtt_bridge")}
}

// Topics returns the topics in use.
func (b *Bridge) Topics() Topics { return b.topics }

// Subscribe registers the inbound telemetry and command topics.
func (b *Bridge) Subscribe() error {
	subs := []struct {
		topic, qos string
		h          Handler
	}{
		{b.topics.EstimatedState, "telemetry", decode(b, b.sink.OnEstimatedState)},
		{b.topics.VehicleState, "telemetry", decode(b, b.sink.OnVehicleState)},
		{b.topics.ManeuverState, "telemetry", decode(b, b.sink.OnManeuverState)},
		{b.topics.FuelLevel, "telemetry", decode(b, b.sink.OnFuelLevel)},
		{b.topics.EntityState, "entity", decode(b, b.sink.OnEntityState)},
		{b.topics.PlanCommand, "command", decode(b, b.sink.OnPlanCommand)},
	}
	for _, s := range subs {
		if err := b.cli.Subscribe(s.topic, s.qos, s.h); err != nil {
			return err
		}
	}
	return nil
}

// decode unmarshals the JSON payload into T; malformed messages are
// dropped.
func decode[T any](b *Bridge, fn func(T)) Handler {
	return func(topic string, payload []byte) {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			b.log.Warnf("drop malformed message on %s: %v", topic, err)
			return
		}
		fn(v)
	}
}

// Run forwards bus events to MQTT until ctx is canceled or the bus closes.
func (b *Bridge) Run(ctx context.Context, bus eventbus.EventBus) {
	sub := bus.Subscribe()
	defer bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if err := b.Forward(ev); err != nil {
				b.log.Errorf("forward %T: %v", ev, err)
			}
		}
	}
}

type progressMessage struct {
	PlanID     string    `json:"plan_id"`
	ManeuverID string    `json:"maneuver_id,omitempty"`
	Progress   float64   `json:"progress"`
	ETA        float64   `json:"eta"`
	Time       time.Time `json:"time"`
}

type activationMessage struct {
	PlanID string    `json:"plan_id"`
	Entity string    `json:"entity"`
	Active bool      `json:"active"`
	Reason string    `json:"reason,omitempty"`
	Time   time.Time `json:"time"`
}

type planStateMessage struct {
	PlanID     string               `json:"plan_id"`
	Action     events.PlanAction    `json:"action"`
	Properties model.PlanProperties `json:"properties"`
	Error      string               `json:"error,omitempty"`
	Time       time.Time            `json:"time"`
}

// Forward publishes one runtime event. Events without an MQTT mapping are
// ignored.
func (b *Bridge) Forward(ev eventbus.Event) error {
	var (
		topic, qos string
		retained   bool
		msg        any
	)
	switch e := ev.(type) {
	case events.ProgressEvent:
		topic, qos = b.topics.Progress, "progress"
		msg = progressMessage{PlanID: e.PlanID, ManeuverID: e.ManeuverID, Progress: e.Progress, ETA: e.ETA, Time: e.Time}
	case events.StatisticsEvent:
		topic, qos, retained = b.topics.Statistics, "statistics", true
		msg = e.Statistics
	case events.ActivationEvent:
		topic, qos = b.topics.Activation(e.Entity), "command"
		msg = activationMessage{PlanID: e.PlanID, Entity: e.Entity, Active: e.Active, Reason: e.Reason, Time: e.Time}
	case events.PlanEvent:
		topic, qos, retained = b.topics.PlanState, "statistics", true
		m := planStateMessage{PlanID: e.PlanID, Action: e.Action, Properties: e.Properties, Time: e.Time}
		if e.Err != nil {
			m.Error = e.Err.Error()
		}
		msg = m
	default:
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %T: %w", ev, err)
	}
	return b.cli.Publish(topic, qos, retained, payload)
}
