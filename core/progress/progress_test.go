package progress

import (
	"math"
	"testing"

	"github.com/kilianp07/auvplan/core/model"
)

type calib struct {
	notStarted, inProgress bool
	remaining              float64
}

func (c calib) NotStarted() bool   { return c.notStarted }
func (c calib) InProgress() bool   { return c.inProgress }
func (c calib) Remaining() float64 { return c.remaining }

func baseInput() Input {
	return Input{
		Enabled:       true,
		Linear:        true,
		ProfileSize:   3,
		Calibration:   calib{},
		ExecDuration:  30,
		TotalDuration: 30,
		Maneuver:      &model.Goto{},
		Durations:     []float64{10},
		Found:         true,
	}
}

func executing(eta uint16) *model.ManeuverControlState {
	return &model.ManeuverControlState{State: model.ManeuverExecuting, ETA: eta}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestComputeGates(t *testing.T) {
	gates := map[string]func(*Input){
		"disabled":        func(in *Input) { in.Enabled = false },
		"non-linear":      func(in *Input) { in.Linear = false },
		"no profile":      func(in *Input) { in.ProfileSize = 0 },
		"calib not started": func(in *Input) { in.Calibration = calib{notStarted: true} },
	}
	for name, g := range gates {
		in := baseInput()
		g(&in)
		if got := NewEstimator(nil).Compute(in, executing(5)); got != Unknown {
			t.Fatalf("%s: expected unknown got %v", name, got)
		}
	}
}

func TestComputeCalibrating(t *testing.T) {
	in := baseInput()
	in.TotalDuration = 40
	in.Calibration = calib{inProgress: true, remaining: 5}
	got := NewEstimator(nil).Compute(in, nil)
	if !near(got, 12.5) {
		t.Fatalf("expected 12.5 got %v", got)
	}
}

func TestComputeFirstManeuverHalfway(t *testing.T) {
	e := NewEstimator(nil)
	got := e.Compute(baseInput(), executing(5))
	if !near(got, 100.0*5/30) {
		t.Fatalf("expected %v got %v", 100.0*5/30, got)
	}
	if got <= 0 || got >= 100.0/3 {
		t.Fatalf("progress %v outside first maneuver share", got)
	}
}

func TestComputeNotExecutingKeepsCache(t *testing.T) {
	e := NewEstimator(nil)
	first := e.Compute(baseInput(), executing(5))
	if got := e.Compute(baseInput(), &model.ManeuverControlState{State: model.ManeuverDone, ETA: 3}); got != first {
		t.Fatalf("expected cached %v got %v", first, got)
	}
	if got := e.Compute(baseInput(), executing(0)); got != first {
		t.Fatalf("zero eta must keep cache, got %v", got)
	}
	if got := e.Compute(baseInput(), nil); got != first {
		t.Fatalf("nil state must keep cache, got %v", got)
	}
}

func TestComputeMissingEntry(t *testing.T) {
	in := baseInput()
	in.Found = false
	if got := NewEstimator(nil).Compute(in, executing(5)); got != Unknown {
		t.Fatalf("expected unknown got %v", got)
	}
	in.Beyond = true
	if got := NewEstimator(nil).Compute(in, executing(5)); got != 100 {
		t.Fatalf("expected 100 beyond duration got %v", got)
	}
}

func TestComputeEmptyDurationsKeepsCache(t *testing.T) {
	e := NewEstimator(nil)
	first := e.Compute(baseInput(), executing(5))
	in := baseInput()
	in.Durations = nil
	if got := e.Compute(in, executing(5)); got != first {
		t.Fatalf("expected cached %v got %v", first, got)
	}
}

func TestComputeMonotonic(t *testing.T) {
	e := NewEstimator(nil)
	high := e.Compute(baseInput(), executing(2))
	if got := e.Compute(baseInput(), executing(9)); got != high {
		t.Fatalf("progress regressed from %v to %v", high, got)
	}
}

func TestComputeNegative(t *testing.T) {
	neg := func(model.Maneuver, model.ManeuverControlState, []float64, float64) float64 { return -500 }
	e := NewEstimator(neg)
	if got := e.Compute(baseInput(), executing(5)); got != Unknown {
		t.Fatalf("expected unknown without prior value, got %v", got)
	}

	e = NewEstimator(Compute)
	prior := e.Compute(baseInput(), executing(5))
	e.fn = neg
	if got := e.Compute(baseInput(), executing(5)); got != prior {
		t.Fatalf("expected prior %v got %v", prior, got)
	}
	e.Reset()
	if e.Value() != Unknown {
		t.Fatalf("reset kept %v", e.Value())
	}
}

func TestComputeSegmented(t *testing.T) {
	rows := &model.Rows{}
	durations := []float64{110, 220, 320}
	// Second row with 40 s left in it, then the 100 s third row.
	got := Compute(rows, model.ManeuverControlState{State: model.ManeuverExecuting, ETA: 40, Segment: 2}, durations, 400)
	if !near(got, 45) {
		t.Fatalf("expected 45 got %v", got)
	}
	// Segments are ignored for single-segment kinds.
	got = Compute(&model.Goto{}, model.ManeuverControlState{ETA: 40, Segment: 2}, []float64{100}, 200)
	if !near(got, 30) {
		t.Fatalf("expected 30 got %v", got)
	}
}
