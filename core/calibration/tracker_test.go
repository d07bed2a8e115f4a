package calibration

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTracker() (*Tracker, *fakeClock) {
	c := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	return NewTracker(c.Now), c
}

func TestTrackerLifecycle(t *testing.T) {
	tr, clk := newTracker()
	if !tr.NotStarted() {
		t.Fatalf("expected not_started got %s", tr.State())
	}
	tr.SetTime(60)
	if !tr.NotStarted() || tr.Remaining() != 60 {
		t.Fatalf("unexpected state %s remaining %v", tr.State(), tr.Remaining())
	}
	tr.Start()
	clk.Advance(20 * time.Second)
	if !tr.InProgress() || tr.Elapsed() != 20 || tr.Remaining() != 40 {
		t.Fatalf("unexpected in progress values: elapsed %v remaining %v", tr.Elapsed(), tr.Remaining())
	}
	tr.Stop()
	clk.Advance(time.Minute)
	if !tr.Stopped() || tr.Elapsed() != 20 {
		t.Fatalf("elapsed must freeze on stop, got %v", tr.Elapsed())
	}
	tr.Stop()
	if tr.Elapsed() != 20 {
		t.Fatalf("second stop changed elapsed")
	}
	tr.Start()
	if !tr.Stopped() {
		t.Fatalf("start after stop reopened the window")
	}
}

func TestTrackerSetTimeKeepsState(t *testing.T) {
	tr, clk := newTracker()
	tr.Start()
	clk.Advance(4 * time.Second)
	tr.SetTime(10)
	if !tr.InProgress() || tr.Elapsed() != 4 || tr.Remaining() != 6 {
		t.Fatalf("set time changed the window: state %s elapsed %v", tr.State(), tr.Elapsed())
	}
}

func TestTrackerStopBeforeStartIsNoop(t *testing.T) {
	tr, _ := newTracker()
	tr.SetTime(10)
	tr.Stop()
	if !tr.NotStarted() || tr.Elapsed() != 0 {
		t.Fatalf("stop before start changed state to %s", tr.State())
	}
}

func TestTrackerForceRemainingTime(t *testing.T) {
	tr, clk := newTracker()
	tr.ForceRemainingTime(5)
	if tr.Required() != 0 {
		t.Fatalf("force outside progress must be ignored")
	}
	tr.SetTime(100)
	tr.Start()
	clk.Advance(30 * time.Second)
	tr.ForceRemainingTime(5)
	if tr.Remaining() != 5 {
		t.Fatalf("expected 5 remaining got %v", tr.Remaining())
	}
	clk.Advance(10 * time.Second)
	if tr.Remaining() != 0 {
		t.Fatalf("remaining must floor at zero, got %v", tr.Remaining())
	}
}

func TestTrackerClear(t *testing.T) {
	tr, clk := newTracker()
	tr.SetTime(10)
	tr.Start()
	clk.Advance(time.Second)
	tr.Clear()
	if !tr.NotStarted() || tr.Elapsed() != 0 || tr.Remaining() != 0 {
		t.Fatalf("clear left state %s", tr.State())
	}
	tr.Start()
	if !tr.InProgress() {
		t.Fatalf("cleared tracker must start again")
	}
}
