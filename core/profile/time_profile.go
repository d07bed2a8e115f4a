package profile

import (
	"math"

	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/plan"
	"github.com/kilianp07/auvplan/core/speed"
)

// TimeProfile estimates maneuver durations from travelled distances and
// commanded speeds. Estimation walks the sequence in order and stops at the
// first maneuver whose duration cannot be derived: every later maneuver is
// then beyond the estimated duration.
type TimeProfile struct {
	storage
	speed *speed.Model
}

// NewTimeProfile returns an estimator using the given speed model. Without
// a model no maneuver can be estimated.
func NewTimeProfile(sm *speed.Model) *TimeProfile {
	return &TimeProfile{storage: newStorage(), speed: sm}
}

// walker carries the position and clock while walking the sequence.
type walker struct {
	lat, lon float64
	t        float64
}

func (p *TimeProfile) Parse(seq plan.Sequence, state *model.EstimatedState) {
	p.reset()
	if p.speed == nil || state == nil {
		return
	}
	w := &walker{lat: state.Lat, lon: state.Lon}
	for _, pm := range seq {
		e, ok := p.estimate(w, pm.Data)
		if !ok {
			return
		}
		p.add(pm.ID, e)
	}
}

func (p *TimeProfile) estimate(w *walker, m model.Maneuver) (Entry, bool) {
	sr, ok := m.(model.SpeedReferenced)
	if !ok {
		return Entry{}, false
	}
	mps, ok := p.speed.ToMPS(sr.SpeedSetting())
	if !ok || mps <= 0 {
		return Entry{}, false
	}
	e := Entry{Speed: mps}

	switch man := m.(type) {
	case *model.Goto, *model.Launch, *model.YoYo, *model.ScheduledGoto:
		lat, lon := man.(model.Positioned).Position()
		e.Distance = w.travel(lat, lon, mps)
		e.Durations = []float64{w.t}
	case *model.PopUp:
		e.Distance = w.travel(man.Lat, man.Lon, mps)
		w.t += float64(man.Duration)
		e.Durations = []float64{w.t}
	case *model.Loiter:
		return p.dwell(w, &e, man.Lat, man.Lon, man.Duration)
	case *model.StationKeeping:
		return p.dwell(w, &e, man.Lat, man.Lon, man.Duration)
	case *model.CompassCalibration:
		return p.dwell(w, &e, man.Lat, man.Lon, man.Duration)
	case *model.Rows:
		if !w.rows(&e, man.Lat, man.Lon, man.Bearing, man.Width, man.Length, man.HStep) {
			return Entry{}, false
		}
	case *model.RowsCoverage:
		if !w.rows(&e, man.Lat, man.Lon, man.Bearing, man.Width, man.Length, man.RowSpacing()) {
			return Entry{}, false
		}
	case *model.FollowPath:
		e.Distance = w.travel(man.Lat, man.Lon, mps)
		oLat, oLon := man.Lat, man.Lon
		var px, py, pz float64
		for _, pt := range man.Points {
			d := math.Sqrt((pt.X-px)*(pt.X-px) + (pt.Y-py)*(pt.Y-py) + (pt.Z-pz)*(pt.Z-pz))
			px, py, pz = pt.X, pt.Y, pt.Z
			e.Distance += d
			w.t += d / mps
			e.Durations = append(e.Durations, w.t)
		}
		if len(man.Points) == 0 {
			e.Durations = []float64{w.t}
		}
		w.lat, w.lon = offset(oLat, oLon, px, py)
	default:
		return Entry{}, false
	}
	return e, true
}

// dwell travels to the centre then stays for the given duration. A zero
// duration never ends.
func (p *TimeProfile) dwell(w *walker, e *Entry, lat, lon float64, dur uint16) (Entry, bool) {
	if dur == 0 {
		p.finite = false
		return Entry{}, false
	}
	e.Distance = w.travel(lat, lon, e.Speed)
	arrival := w.t
	w.t += float64(dur)
	e.Durations = []float64{arrival, w.t}
	return *e, true
}

func (w *walker) travel(lat, lon, mps float64) float64 {
	d := distance(w.lat, w.lon, lat, lon)
	w.lat, w.lon = lat, lon
	w.t += d / mps
	return d
}

// rows sweeps parallel rows starting at the corner, one sample per row.
func (w *walker) rows(e *Entry, lat, lon, bearing, width, length, step float64) bool {
	if step <= 0 || length <= 0 || width < 0 {
		return false
	}
	e.Distance = w.travel(lat, lon, e.Speed)
	n := int(math.Floor(width/step)) + 1
	for i := 0; i < n; i++ {
		e.Distance += length
		w.t += length / e.Speed
		if i < n-1 {
			e.Distance += step
			w.t += step / e.Speed
		}
		e.Durations = append(e.Durations, w.t)
	}
	along := 0.0
	if n%2 == 1 {
		along = length
	}
	across := float64(n-1) * step
	b := bearing * math.Pi / 180
	north := along*math.Cos(b) - across*math.Sin(b)
	east := along*math.Sin(b) + across*math.Cos(b)
	w.lat, w.lon = offset(lat, lon, north, east)
	return true
}
