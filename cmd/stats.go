package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/auvplan/app/plugins"
	"github.com/kilianp07/auvplan/core/fuel"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/stats"
	"github.com/kilianp07/auvplan/infra/statstore"
)

var statsFlags struct {
	plan  string
	kind  string
	since time.Duration
	limit int
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Plan statistics history",
}

var statsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored plan statistics",
	RunE:  runStatsLs,
}

func init() {
	f := statsLsCmd.Flags()
	f.StringVar(&statsFlags.plan, "plan", "", "only this plan id")
	f.StringVar(&statsFlags.kind, "type", "", "only pre or post statistics")
	f.DurationVar(&statsFlags.since, "since", 0, "only records newer than this")
	f.IntVar(&statsFlags.limit, "limit", 20, "maximum number of records, 0 for all")
	statsCmd.AddCommand(statsLsCmd)
	rootCmd.AddCommand(statsCmd)
}

func runStatsLs(cmd *cobra.Command, args []string) error {
	switch statsFlags.kind {
	case "", "pre", "post":
	default:
		return fmt.Errorf("invalid type %q, want pre or post", statsFlags.kind)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := plugins.NewStatStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	q := statstore.Query{PlanID: statsFlags.plan, Type: statsFlags.kind, Limit: statsFlags.limit}
	if statsFlags.since > 0 {
		q.Start = time.Now().Add(-statsFlags.since)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, warnStyle.Render("no statistics"))
		return nil
	}
	fmt.Fprintln(out, renderTable([]string{"TIME", "PLAN", "TYPE", "DURATION", "CALIBRATION", "FUEL USED"}, statsRows(recs)))
	return nil
}

func statsRows(recs []model.PlanStatistics) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		dur, calib := -1.0, -1.0
		switch r.Type {
		case model.StatisticsPre:
			if d, ok := r.Durations[stats.KeyTotal]; ok {
				dur = d
			}
			if c, ok := r.Durations[stats.KeyCalibration]; ok {
				calib = c
			}
		case model.StatisticsPost:
			if !r.StartTime.IsZero() && !r.EndTime.IsZero() {
				dur = r.EndTime.Sub(r.StartTime).Seconds()
			}
			calib = r.CalibrationSeconds
		}
		used := "-"
		if v, ok := r.Fuel[fuel.KeyPredictedUsed]; ok {
			used = fmt.Sprintf("%.1f%%", v)
		}
		if start, ok := r.Fuel[fuel.KeyMeasuredStart]; ok {
			if end, ok := r.Fuel[fuel.KeyMeasuredEnd]; ok {
				used = fmt.Sprintf("%.1f%%", start-end)
			}
		}
		rows[i] = []string{r.Timestamp.Local().Format(time.DateTime), r.PlanID, r.Type.String(), seconds(dur), seconds(calib), used}
	}
	return rows
}
