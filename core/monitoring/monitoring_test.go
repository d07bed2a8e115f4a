package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordMonitor struct {
	err     error
	tags    map[string]string
	panics  []any
	flushed bool
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(v any)  { r.panics = append(r.panics, v) }
func (r *recordMonitor) Flush(time.Duration) { r.flushed = true }

func TestCaptureException(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(NopMonitor{})

	CaptureException(nil, nil)
	if mon.err != nil {
		t.Fatalf("nil error captured")
	}
	CaptureException(errors.New("boom"), map[string]string{"plan_id": "p"})
	if mon.err == nil || mon.tags["plan_id"] != "p" {
		t.Fatalf("error not captured: %+v", mon)
	}
	Init(nil)
	if Current() != mon {
		t.Fatalf("nil monitor replaced current")
	}
}

func TestRecoverRepanics(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	defer Init(NopMonitor{})

	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("expected re-panic, got %v", r)
		}
		if len(mon.panics) != 1 || !mon.flushed {
			t.Fatalf("panic not reported: %+v", mon)
		}
	}()
	func() {
		defer Recover()
		panic("boom")
	}()
}
