package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kilianp07/auvplan/core/timeline"
)

func windows() []timeline.ManeuverETA {
	return []timeline.ManeuverETA{
		{ID: "m1", ETA: timeline.ETA{Start: 30, End: 20}},
		{ID: "m2", ETA: timeline.ETA{Start: 20, End: 5}},
		{ID: "m3", ETA: timeline.ETA{Start: 5, End: timeline.Unknown}},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, windows()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 3 || out[1]["id"] != "m2" || out[1]["start"] != 20.0 || out[1]["end"] != 5.0 {
		t.Fatalf("unexpected output %v", out)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, windows()); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "maneuver_id,start_eta_s,end_eta_s,duration_s\nm1,30,20,10\nm2,20,5,15\nm3,5,-1,\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestProgressChartHTML(t *testing.T) {
	html, err := ProgressChartHTML("survey", []ProgressPoint{
		{Elapsed: 0, Progress: -1, ETA: -1},
		{Elapsed: 10, Progress: 25, ETA: 30, Maneuver: "m1"},
		{Elapsed: 20, Progress: 50, ETA: 20, Maneuver: "m2"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, s := range []string{"survey", "Progress", "ETA"} {
		if !strings.Contains(html, s) {
			t.Errorf("chart misses %q", s)
		}
	}
}
