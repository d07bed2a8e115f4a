package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/auvplan/core/timeline"
	"github.com/kilianp07/auvplan/pkg/export"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func field(label, value string) string {
	return labelStyle.Render(label) + " " + value
}

// seconds formats a duration in seconds, "unknown" when negative.
func seconds(v float64) string {
	if v < 0 {
		return "unknown"
	}
	return time.Duration(v * float64(time.Second)).Round(time.Second).String()
}

// renderTable lays rows out in columns sized to their widest cell.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) && lipgloss.Width(c) > widths[i] {
				widths[i] = lipgloss.Width(c)
			}
		}
	}
	line := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = style.Width(widths[i] + 2).Render(c)
		}
		return strings.TrimRight(strings.Join(out, ""), " ")
	}
	var b strings.Builder
	b.WriteString(line(headers, headerStyle))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(line(r, lipgloss.NewStyle()))
	}
	return b.String()
}

func timelineRows(entries []timeline.ManeuverETA) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		dur := "unknown"
		if e.End != timeline.Unknown && e.Start != timeline.Unknown {
			dur = seconds(e.Start - e.End)
		}
		rows[i] = []string{e.ID, seconds(e.Start), seconds(e.End), dur}
	}
	return rows
}

// writeTimeline exports entries as JSON or CSV depending on the extension
// of path.
func writeTimeline(path string, entries []timeline.ManeuverETA) error {
	write := export.WriteCSV
	if strings.EqualFold(filepath.Ext(path), ".json") {
		write = export.WriteJSON
	}
	err := writeFile(path, func(w io.Writer) error { return write(w, entries) })
	if err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}
	return nil
}
