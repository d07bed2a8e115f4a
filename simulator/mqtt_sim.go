package simulator

import (
	"encoding/json"

	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/infra/logger"
	"github.com/kilianp07/auvplan/infra/mqtt"
)

// Sink receives the telemetry of the simulated vehicle. mqtt.Telemetry
// implementations satisfy it.
type Sink interface {
	OnVehicleState(model.VehicleState)
	OnManeuverState(model.ManeuverControlState)
	OnFuelLevel(model.FuelLevel)
	OnEntityState(model.EntityStateReport)
}

// MQTTSink publishes the simulated telemetry on the topics a plan service
// subscribes to.
type MQTTSink struct {
	cli    mqtt.Client
	topics mqtt.Topics
	log    logger.Logger
}

// NewMQTTSink connects to the broker described by cfg.
func NewMQTTSink(cfg mqtt.Config) (*MQTTSink, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "auvplan-sim"
	}
	cli, err := mqtt.NewPahoClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewMQTTSinkWithClient(cli, cfg.TopicPrefix), nil
}

// NewMQTTSinkWithClient publishes through an existing client.
func NewMQTTSinkWithClient(cli mqtt.Client, prefix string) *MQTTSink {
	return &MQTTSink{cli: cli, topics: mqtt.NewTopics(prefix), log: logger.New("simulator")}
}

func (s *MQTTSink) OnVehicleState(vs model.VehicleState) {
	s.publish(s.topics.VehicleState, "telemetry", vs)
}

func (s *MQTTSink) OnManeuverState(mcs model.ManeuverControlState) {
	s.publish(s.topics.ManeuverState, "telemetry", mcs)
}

func (s *MQTTSink) OnFuelLevel(fl model.FuelLevel) {
	s.publish(s.topics.FuelLevel, "telemetry", fl)
}

func (s *MQTTSink) OnEntityState(r model.EntityStateReport) {
	s.publish(s.topics.EntityState, "entity", r)
}

func (s *MQTTSink) publish(topic, qos string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Errorf("marshal %s: %v", topic, err)
		return
	}
	if err := s.cli.Publish(topic, qos, false, payload); err != nil {
		s.log.Warnf("publish %s: %v", topic, err)
	}
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() { s.cli.Disconnect() }
