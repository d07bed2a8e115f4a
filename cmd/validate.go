package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/runtime"
	"github.com/kilianp07/auvplan/infra/logger"
)

var validateFlags struct {
	lat, lon float64
	timeline string
}

var validateCmd = &cobra.Command{
	Use:   "validate <plan>",
	Short: "Validate a plan and print its duration estimates",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.Float64Var(&validateFlags.lat, "lat", 0, "vehicle latitude in degrees")
	f.Float64Var(&validateFlags.lon, "lon", 0, "vehicle longitude in degrees")
	f.StringVar(&validateFlags.timeline, "timeline", "", "write the maneuver timeline to this .csv or .json file")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec, err := model.LoadSpec(args[0])
	if err != nil {
		return err
	}
	supported, err := cfg.Plan.Supported()
	if err != nil {
		return err
	}
	rt := runtime.New(cfg.Plan.Args(), cfg.Speed, cfg.Power, runtime.WithLogger(logger.New("validate")))
	state := &model.EstimatedState{Lat: validateFlags.lat, Lon: validateFlags.lon}
	pre, err := rt.Load(spec, supported, cfg.Entities, cfg.Plan.IMUEnabled, state)
	out := cmd.OutOrStdout()
	if err != nil {
		fmt.Fprintln(out, errStyle.Render("plan rejected: "+err.Error()))
		return err
	}

	fmt.Fprintln(out, titleStyle.Render("Plan "+pre.PlanID))
	fmt.Fprintln(out, field("properties", pre.Properties.String()))
	fmt.Fprintln(out, field("maneuvers", fmt.Sprint(len(spec.Maneuvers))))
	fmt.Fprintln(out, field("execution", seconds(rt.ExecutionDuration())))
	fmt.Fprintln(out, field("calibration", seconds(rt.EstimatedCalibrationTime())))
	fmt.Fprintln(out, field("total", seconds(rt.TotalDuration())))
	if rt.Properties().Has(model.PropInfinite) {
		fmt.Fprintln(out, warnStyle.Render("plan never ends, ETAs are unavailable"))
	}
	tl := rt.Timeline()
	if tl == nil {
		fmt.Fprintln(out, okStyle.Render("plan valid"))
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"MANEUVER", "START ETA", "END ETA", "DURATION"}, timelineRows(tl.Maneuvers())))
	if validateFlags.timeline != "" {
		if err := writeTimeline(validateFlags.timeline, tl.Maneuvers()); err != nil {
			return err
		}
	}
	fmt.Fprintln(out, okStyle.Render("plan valid"))
	return nil
}
