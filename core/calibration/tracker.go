// Package calibration tracks the pre-execution calibration window.
package calibration

import (
	"math"
	"time"
)

// State of the calibration window.
type State int

const (
	// NotStarted means the vehicle has not entered calibration mode yet.
	NotStarted State = iota
	InProgress
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Tracker follows one calibration window. It is not safe for concurrent use.
type Tracker struct {
	now      func() time.Time
	state    State
	required float64
	started  time.Time
	elapsed  float64
}

// NewTracker returns a not started tracker reading time from now. A nil now uses
// time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now}
}

// SetTime sets the number of seconds the calibration requires.
func (t *Tracker) SetTime(seconds float64) {
	t.required = math.Max(0, seconds)
}

// Start opens the window. Only a not started calibration can start.
func (t *Tracker) Start() {
	if t.state != NotStarted {
		return
	}
	t.started = t.now()
	t.state = InProgress
}

// Stop closes the window and freezes the elapsed time.
func (t *Tracker) Stop() {
	if t.state != InProgress {
		return
	}
	t.elapsed = t.running()
	t.state = Stopped
}

// ForceRemainingTime overrides the time left while in progress.
func (t *Tracker) ForceRemainingTime(seconds float64) {
	if t.state != InProgress {
		return
	}
	t.required = t.running() + math.Max(0, seconds)
}

// Elapsed returns the seconds spent calibrating.
func (t *Tracker) Elapsed() float64 {
	switch t.state {
	case InProgress:
		return t.running()
	case Stopped:
		return t.elapsed
	default:
		return 0
	}
}

// Remaining returns the seconds left before the required time is reached,
// never negative.
func (t *Tracker) Remaining() float64 {
	return math.Max(0, t.required-t.Elapsed())
}

// Required returns the currently required calibration time.
func (t *Tracker) Required() float64 { return t.required }

func (t *Tracker) State() State { return t.state }

func (t *Tracker) NotStarted() bool { return t.state == NotStarted }

func (t *Tracker) InProgress() bool { return t.state == InProgress }

func (t *Tracker) Stopped() bool { return t.state == Stopped }

// Clear returns the tracker to NotStarted.
func (t *Tracker) Clear() {
	t.state = NotStarted
	t.required = 0
	t.elapsed = 0
	t.started = time.Time{}
}

func (t *Tracker) running() float64 {
	d := t.now().Sub(t.started).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
