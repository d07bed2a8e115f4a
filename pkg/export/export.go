// Package export writes plan timelines and progress traces in formats
// operators can archive or plot.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/auvplan/core/timeline"
)

// WriteJSON writes the maneuver windows to w in JSON format.
func WriteJSON(w io.Writer, entries []timeline.ManeuverETA) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes the maneuver windows to w in CSV format. ETAs are
// seconds before the end of the plan; an unknown end leaves duration empty.
func WriteCSV(w io.Writer, entries []timeline.ManeuverETA) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"maneuver_id", "start_eta_s", "end_eta_s", "duration_s"}); err != nil {
		return err
	}
	for _, e := range entries {
		dur := ""
		if e.End != timeline.Unknown && e.Start != timeline.Unknown {
			dur = formatFloat(e.Start - e.End)
		}
		rec := []string{e.ID, formatFloat(e.Start), formatFloat(e.End), dur}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
