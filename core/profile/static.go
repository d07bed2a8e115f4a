package profile

import (
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/plan"
)

// Static is a Profile built from known per-maneuver durations instead of
// a vehicle model. Parse accumulates them along the sequence and stops at
// the first maneuver without a duration.
type Static struct {
	storage
	durations map[string]float64
}

// storage keeps entries in sequence order.
type storage struct {
	order   []string
	entries map[string]Entry
	last    string
	finite  bool
}

// NewStatic returns a profile using the given seconds per maneuver id. A
// negative duration marks the maneuver as never ending.
func NewStatic(durations map[string]float64) *Static {
	return &Static{storage: newStorage(), durations: durations}
}

func newStorage() storage {
	return storage{entries: make(map[string]Entry), finite: true}
}

func (s *storage) reset() {
	s.order = nil
	s.entries = make(map[string]Entry)
	s.last = ""
	s.finite = true
}

func (s *Static) Parse(seq plan.Sequence, _ *model.EstimatedState) {
	s.reset()
	var t float64
	for _, pm := range seq {
		d, ok := s.durations[pm.ID]
		if !ok {
			return
		}
		if d < 0 {
			s.finite = false
			return
		}
		t += d
		s.add(pm.ID, Entry{Durations: []float64{t}})
	}
}

func (s *storage) add(id string, e Entry) {
	s.order = append(s.order, id)
	s.entries[id] = e
	s.last = id
}

func (s *storage) Find(id string) (Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

func (s *storage) Size() int { return len(s.order) }

func (s *storage) LastValid() string { return s.last }

func (s *storage) IsDurationFinite() bool { return s.finite }

func (s *storage) Clear() { s.reset() }

func (s *storage) Range(fn func(id string, e Entry) bool) {
	for _, id := range s.order {
		if !fn(id, s.entries[id]) {
			return
		}
	}
}
