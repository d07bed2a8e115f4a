package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/auvplan/app/plugins"
	"github.com/kilianp07/auvplan/config"
	"github.com/kilianp07/auvplan/core/model"
	"github.com/kilianp07/auvplan/core/stats"
	"github.com/kilianp07/auvplan/infra/logger"
	"github.com/kilianp07/auvplan/pkg/export"
	"github.com/kilianp07/auvplan/simulator"
)

var simFlags struct {
	cfg      simulator.Config
	lat, lon float64
	chart    string
	timeline string
	jsonOut  string
	mirror   bool
	persist  bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <plan>",
	Short: "Execute a plan against a simulated vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	c := &simFlags.cfg
	f.DurationVar(&c.Step, "step", 0, "virtual time advanced per tick")
	f.DurationVar(&c.SampleEvery, "sample-every", 0, "interval between progress samples")
	f.DurationVar(&c.MaxDuration, "max-duration", 0, "stop plans still running after this virtual time")
	f.Float64Var(&c.SpeedFactor, "speed-factor", 1, "actual to estimated speed ratio")
	f.DurationVar(&c.AckLatency, "ack-latency", 0, "entity activation latency")
	f.Float64Var(&c.DropRate, "drop-rate", 0, "entity activation failure probability")
	f.Int64Var(&c.Seed, "seed", 1, "random seed")
	f.StringVar(&c.BatteryProfile, "battery-profile", "", "predefined battery profile (small,medium,large)")
	f.Float64Var(&c.FuelLevel, "fuel", 100, "initial fuel level in percent")
	f.Float64Var(&simFlags.lat, "lat", 0, "vehicle latitude in degrees")
	f.Float64Var(&simFlags.lon, "lon", 0, "vehicle longitude in degrees")
	f.StringVar(&simFlags.chart, "chart", "", "write an HTML progress chart")
	f.StringVar(&simFlags.timeline, "timeline", "", "write the estimated timeline to this .csv or .json file")
	f.StringVar(&simFlags.jsonOut, "json", "", "write the full result as JSON")
	f.BoolVar(&simFlags.mirror, "mirror", false, "publish the vehicle telemetry to the MQTT broker in real time")
	f.BoolVar(&simFlags.persist, "store", false, "append the statistics to the configured store")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	plat := simulator.Platform{
		Args:      cfg.Plan.Args(),
		Speed:     cfg.Speed,
		Power:     cfg.Power,
		Entities:  cfg.Entities,
		Supported: supported,
		IMU:       cfg.Plan.IMUEnabled,
	}

	simCfg := simFlags.cfg
	opts := []simulator.Option{simulator.WithLogger(logger.New("simulator"))}
	if simFlags.mirror {
		sink, err := simulator.NewMQTTSink(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt sink: %w", err)
		}
		defer sink.Close()
		opts = append(opts, simulator.WithSink(sink))
		simCfg.Realtime = true
	}
	sim, err := simulator.New(simCfg, plat, opts...)
	if err != nil {
		return err
	}

	state := &model.EstimatedState{Lat: simFlags.lat, Lon: simFlags.lon}
	res, runErr := sim.Run(ctx, spec, state)
	if res == nil {
		return runErr
	}
	printResult(cmd.OutOrStdout(), res)
	if err := saveResult(ctx, cfg, res); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if res.Failure != "" {
		return errors.New(res.Failure)
	}
	return nil
}

func printResult(out io.Writer, res *simulator.Result) {
	fmt.Fprintln(out, titleStyle.Render("Simulation of "+res.PlanID))
	fmt.Fprintln(out, field("estimated", seconds(res.Pre.Durations[stats.KeyTotal])))
	fmt.Fprintln(out, field("elapsed", seconds(res.Elapsed)))
	fmt.Fprintln(out, field("calibration", seconds(res.Post.CalibrationSeconds)))
	fmt.Fprintln(out, field("fuel left", fmt.Sprintf("%.1f%%", res.FuelLevel)))
	if len(res.Post.Maneuvers) > 0 {
		rows := make([][]string, len(res.Post.Maneuvers))
		for i, m := range res.Post.Maneuvers {
			est := "unknown"
			if d, ok := res.Pre.Durations[m.ID]; ok {
				est = seconds(d)
			}
			rows[i] = []string{m.ID, est, seconds(m.Duration().Seconds())}
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"MANEUVER", "ESTIMATED", "ACTUAL"}, rows))
	}
	switch {
	case res.Failure != "":
		fmt.Fprintln(out, errStyle.Render("failed: "+res.Failure))
	case res.Truncated:
		fmt.Fprintln(out, warnStyle.Render("stopped at the time limit"))
	case res.Completed:
		fmt.Fprintln(out, okStyle.Render("completed"))
	}
}

func saveResult(ctx context.Context, cfg *config.Config, res *simulator.Result) error {
	if simFlags.chart != "" {
		if err := writeFile(simFlags.chart, func(w io.Writer) error {
			return export.WriteProgressChart(w, "Plan "+res.PlanID, res.Points)
		}); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}
	if simFlags.timeline != "" && len(res.Timeline) > 0 {
		if err := writeTimeline(simFlags.timeline, res.Timeline); err != nil {
			return err
		}
	}
	if simFlags.jsonOut != "" {
		if err := writeFile(simFlags.jsonOut, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	if simFlags.persist {
		ctx = context.WithoutCancel(ctx)
		store, err := plugins.NewStatStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		for _, st := range []model.PlanStatistics{res.Pre, res.Post} {
			if err := store.Append(ctx, st); err != nil {
				return fmt.Errorf("store statistics: %w", err)
			}
		}
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = fn(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
