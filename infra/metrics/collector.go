package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/auvplan/core/events"
	coremetrics "github.com/kilianp07/auvplan/core/metrics"
	"github.com/kilianp07/auvplan/infra/logger"
	"github.com/kilianp07/auvplan/internal/eventbus"
)

// dropCounter is implemented by buses reporting dropped events.
type dropCounter interface {
	Dropped() uint64
}

// StartEventCollector subscribes to the event bus and records every plan
// event on sink. It stops when the context is canceled or the bus closes.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
				if dc, ok := bus.(dropCounter); ok {
					if r, ok := sink.(coremetrics.BusDropRecorder); ok {
						_ = r.RecordBusDrops(dc.Dropped())
					}
				}
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.ProgressEvent:
		return sink.RecordProgress(coremetrics.ProgressSample{
			PlanID: e.PlanID, ManeuverID: e.ManeuverID, Progress: e.Progress, ETA: e.ETA, Time: stamp(e.Time),
		})
	case events.PlanEvent:
		if r, ok := sink.(coremetrics.PlanLifecycleRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			return r.RecordPlanLifecycle(coremetrics.PlanLifecycleEvent{
				PlanID: e.PlanID, Action: string(e.Action), Properties: e.Properties, Error: errStr, Time: stamp(e.Time),
			})
		}
	case events.ManeuverEvent:
		if r, ok := sink.(coremetrics.ManeuverRecorder); ok {
			return r.RecordManeuver(coremetrics.ManeuverEvent{
				PlanID: e.PlanID, ManeuverID: e.ManeuverID, Kind: e.Kind, Done: e.Done, Time: stamp(e.Time),
			})
		}
	case events.ActivationEvent:
		if r, ok := sink.(coremetrics.ActivationRecorder); ok {
			return r.RecordActivation(coremetrics.ActivationEvent{
				PlanID: e.PlanID, Entity: e.Entity, Active: e.Active, Reason: e.Reason, Time: stamp(e.Time),
			})
		}
	case events.CalibrationEvent:
		if r, ok := sink.(coremetrics.CalibrationRecorder); ok {
			return r.RecordCalibration(coremetrics.CalibrationEvent{
				PlanID: e.PlanID, Started: e.Started, Elapsed: e.Elapsed, Time: stamp(e.Time),
			})
		}
	case events.StatisticsEvent:
		if r, ok := sink.(coremetrics.StatisticsRecorder); ok {
			return r.RecordStatistics(e.Statistics)
		}
	}
	return nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
