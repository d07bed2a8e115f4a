package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/auvplan/core/events"
	coremetrics "github.com/kilianp07/auvplan/core/metrics"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/internal/eventbus"
)

type captureSink struct {
	coremetrics.NopSink
	mu          sync.Mutex
	progress    []coremetrics.ProgressSample
	lifecycle   []coremetrics.PlanLifecycleEvent
	activations []coremetrics.ActivationEvent
	stats       []model.PlanStatistics
}

func (c *captureSink) RecordProgress(s coremetrics.ProgressSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = append(c.progress, s)
	return nil
}

func (c *captureSink) RecordPlanLifecycle(ev coremetrics.PlanLifecycleEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lifecycle = append(c.lifecycle, ev)
	return nil
}

func (c *captureSink) RecordActivation(ev coremetrics.ActivationEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activations = append(c.activations, ev)
	return nil
}

func (c *captureSink) RecordStatistics(st model.PlanStatistics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = append(c.stats, st)
	return nil
}

func (c *captureSink) counts() (int, int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.progress), len(c.lifecycle), len(c.activations), len(c.stats)
}

func TestEventCollector(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartEventCollector(ctx, bus, sink)
	// let the collector subscribe
	time.Sleep(10 * time.Millisecond)

	bus.Publish(events.PlanEvent{PlanID: "p", Action: events.PlanRejected, Err: errors.New("too deep")})
	bus.Publish(events.ProgressEvent{PlanID: "p", Progress: 10, ETA: 90})
	bus.Publish(events.ActivationEvent{PlanID: "p", Entity: "camera", Active: true})
	bus.Publish(events.StatisticsEvent{Statistics: model.PlanStatistics{PlanID: "p"}})
	bus.Publish("ignored")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		p, l, a, s := sink.counts()
		if p == 1 && l == 1 && a == 1 && s == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	p, l, a, s := sink.counts()
	if p != 1 || l != 1 || a != 1 || s != 1 {
		t.Fatalf("unexpected counts progress=%d lifecycle=%d activation=%d stats=%d", p, l, a, s)
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.lifecycle[0].Error != "too deep" || sink.lifecycle[0].Action != "rejected" {
		t.Fatalf("unexpected lifecycle %+v", sink.lifecycle[0])
	}
	if sink.progress[0].Time.IsZero() {
		t.Fatalf("progress sample not timestamped")
	}
}
