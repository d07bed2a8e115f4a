package schedule

import "sort"

// Summary counts the scheduled actions by trigger.
func (s *ActionScheduler) Summary() map[string]int {
	out := map[string]int{
		OnPlanStart.String():     len(s.planStart),
		OnPlanEnd.String():       len(s.planEnd),
		OnManeuverStart.String(): 0,
		OnManeuverEnd.String():   0,
		Timed.String():           len(s.timed) + len(s.preExec),
	}
	for _, acts := range s.manStart {
		out[OnManeuverStart.String()] += len(acts)
	}
	for _, acts := range s.manEnd {
		out[OnManeuverEnd.String()] += len(acts)
	}
	return out
}

type edge struct {
	eta    float64
	entity string
	on     bool
}

// FillComponentActiveTime adds to cat the seconds each component is
// expected to be active along the timeline. Actions with unknown ETA are
// ignored. It does nothing for plans without timeline.
func (s *ActionScheduler) FillComponentActiveTime(cat ComponentActiveTime) {
	if s.tl == nil || cat == nil {
		return
	}
	var edges []edge
	add := func(eta float64, a *Action) {
		if eta >= 0 {
			edges = append(edges, edge{eta: eta, entity: a.Entity, on: a.Active})
		}
	}
	for _, a := range s.planStart {
		add(s.tl.PlanETA(), a)
	}
	for _, a := range append(append([]*Action{}, s.preExec...), s.timed...) {
		add(a.FireETA, a)
	}
	for id, acts := range s.manStart {
		if w, ok := s.tl.Find(id); ok {
			for _, a := range acts {
				add(w.Start, a)
			}
		}
	}
	for id, acts := range s.manEnd {
		if w, ok := s.tl.Find(id); ok {
			for _, a := range acts {
				add(w.End, a)
			}
		}
	}
	for _, a := range s.planEnd {
		add(0, a)
	}
	// Later ETAs happen first; at equal ETA deactivations come first.
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].eta != edges[j].eta {
			return edges[i].eta > edges[j].eta
		}
		return !edges[i].on && edges[j].on
	})

	since := make(map[string]float64)
	for _, e := range edges {
		start, on := since[e.entity]
		switch {
		case e.on && !on:
			since[e.entity] = e.eta
		case !e.on && on:
			cat[s.component(e.entity)] += start - e.eta
			delete(since, e.entity)
		}
	}
	for label, start := range since {
		cat[s.component(label)] += start
	}
}

func (s *ActionScheduler) component(label string) string {
	if c := s.entities[label].Component; c != "" {
		return c
	}
	return label
}
