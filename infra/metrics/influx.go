package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/auvplan/core/metrics"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/infra/logger"
)

// InfluxSink writes plan execution points to an InfluxDB instance.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	vehicle  string
}

// InfluxConfig configures an InfluxSink. Vehicle tags every point.
type InfluxConfig struct {
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
	Vehicle string `json:"vehicle"`
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
		vehicle:  cfg.Vehicle,
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) point(measurement, planID string, t time.Time) *write.Point {
	p := write.NewPointWithMeasurement(measurement).AddTag("plan_id", planID)
	if s.vehicle != "" {
		p = p.AddTag("vehicle", s.vehicle)
	}
	return p.SetTime(t)
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

func (s *InfluxSink) RecordProgress(ps coremetrics.ProgressSample) error {
	p := s.point("plan_progress", ps.PlanID, ps.Time).
		AddTag("maneuver_id", ps.ManeuverID).
		AddField("progress", round3(ps.Progress)).
		AddField("eta_s", round3(ps.ETA))
	return s.write(p)
}

func (s *InfluxSink) RecordPlanLifecycle(ev coremetrics.PlanLifecycleEvent) error {
	p := s.point("plan_lifecycle", ev.PlanID, ev.Time).
		AddTag("action", ev.Action).
		AddField("properties", ev.Properties.String())
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	return s.write(p)
}

func (s *InfluxSink) RecordManeuver(ev coremetrics.ManeuverEvent) error {
	p := s.point("plan_maneuver", ev.PlanID, ev.Time).
		AddTag("maneuver_id", ev.ManeuverID).
		AddTag("kind", string(ev.Kind)).
		AddField("done", ev.Done)
	return s.write(p)
}

func (s *InfluxSink) RecordActivation(ev coremetrics.ActivationEvent) error {
	p := s.point("entity_activation", ev.PlanID, ev.Time).
		AddTag("entity", ev.Entity).
		AddTag("active", strconv.FormatBool(ev.Active)).
		AddField("reason", ev.Reason)
	return s.write(p)
}

func (s *InfluxSink) RecordCalibration(ev coremetrics.CalibrationEvent) error {
	p := s.point("plan_calibration", ev.PlanID, ev.Time).
		AddField("started", ev.Started).
		AddField("elapsed_s", round3(ev.Elapsed))
	return s.write(p)
}

// RecordStatistics writes one point per statistics message, with every
// duration, fuel figure and component active time as a field.
func (s *InfluxSink) RecordStatistics(st model.PlanStatistics) error {
	t := st.Timestamp
	if t.IsZero() {
		t = time.Now()
	}
	p := s.point("plan_statistics", st.PlanID, t).
		AddTag("type", st.Type.String()).
		AddField("properties", st.Properties.String())
	for k, v := range st.Durations {
		p = p.AddField("duration_"+k, round3(v))
	}
	for k, v := range st.Fuel {
		p = p.AddField("fuel_"+k, round3(v))
	}
	for k, v := range st.ComponentActiveTime {
		p = p.AddField("active_"+k, round3(v))
	}
	if st.CalibrationSeconds > 0 {
		p = p.AddField("calibration_s", round3(st.CalibrationSeconds))
	}
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
