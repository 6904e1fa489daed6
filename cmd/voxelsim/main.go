package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"voxelsim/internal/analysis"
	"voxelsim/internal/config"
	"voxelsim/internal/export"
	"voxelsim/internal/metrics"
	"voxelsim/internal/scene"
	"voxelsim/internal/storage"
	"voxelsim/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	dt         float64
	duration   float64
	seed       int64
	save       bool
	live       bool
	chart      bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "voxelsim",
		Short: "rigid body and voxel simulation sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(buildLogger())
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".voxelsim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "development logging")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene headless and chart its metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runScene,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration override")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed override")
	runCmd.Flags().BoolVar(&save, "save", false, "persist the run to the data directory")
	runCmd.Flags().BoolVar(&live, "live", false, "watch the scene in the terminal viewer instead")
	runCmd.Flags().BoolVar(&chart, "chart", true, "print metric charts after the run")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list available scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, s := range scene.All() {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
			}
			return w.Flush()
		},
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive terminal viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(buildLogger())
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run's metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run metrics as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [out_dir]",
		Short: "export run metrics as SVG charts",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportSVG,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	rootCmd.AddCommand(runCmd, scenesCmd, tuiCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// resolveConfig layers preset, config file, and flag overrides for a scene.
func resolveConfig(cmd *cobra.Command, name string) (*config.Config, error) {
	cfg := config.GetPreset(name)
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Scene = name

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		loaded.Scene = name
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, cfg.Validate()
}

func runScene(cmd *cobra.Command, args []string) error {
	name := args[0]
	s, err := scene.Get(name)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(cmd, name)
	if err != nil {
		return err
	}
	if live {
		return tui.RunScene(name, buildLogger())
	}

	logger := buildLogger()
	inst, err := s.Build(cfg, logger)
	if err != nil {
		return err
	}
	defer inst.World.Close()

	gravity := mgl64.Vec3{cfg.Gravity[0], cfg.Gravity[1], cfg.Gravity[2]}
	observers := []metrics.Observer{
		metrics.NewKineticEnergy(),
		metrics.NewPotentialEnergy(gravity),
		metrics.NewLinearMomentum(),
		metrics.NewAngularMomentum(),
		metrics.NewMaxSpeed(),
	}
	recorder := metrics.NewRecorder(observers...)

	steps := int(cfg.Duration / cfg.Dt)
	fmt.Printf("running %s for %.1fs (%d steps of %.4fs)...\n", name, cfg.Duration, steps, cfg.Dt)
	start := time.Now()

	var times []float64
	ctx := context.Background()
	for i := 0; i < steps; i++ {
		if err := inst.World.Step(ctx, cfg.Dt); err != nil {
			return err
		}
		if inst.Tick != nil {
			inst.Tick(inst.World.Time())
		}
		recorder.Sample(inst.World.Bodies(), inst.World.Time())
		times = append(times, inst.World.Time())
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v (%.0f steps/sec)\n\n", elapsed, float64(steps)/elapsed.Seconds())
	for _, o := range observers {
		fmt.Printf("  %s: %.6f\n", o.Name(), o.Value())
	}
	fmt.Println()
	if chart {
		for _, o := range observers {
			if plot := metrics.Chart(o, 10, 80); plot != "" {
				fmt.Println(plot)
				fmt.Println()
			}
		}
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		rec := &storage.Record{Times: times}
		for _, o := range observers {
			rec.Names = append(rec.Names, o.Name())
			rec.Series = append(rec.Series, append([]float64(nil), o.History()...))
		}
		id, err := st.Save(name, cfg.Dt, cfg.Duration, cfg.Seed, cfg.Substeps, rec)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", id)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tSUBSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Substeps,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rec, err := st.LoadRecord(args[0])
	if err != nil {
		return err
	}
	if len(rec.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(rec.Times))

	for i, name := range rec.Names {
		chart := metrics.ChartSeries(name, rec.Series[i], 10, 80)
		if chart == "" {
			continue
		}
		fmt.Println(chart)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rec, err := st.LoadRecord(args[0])
	if err != nil {
		return err
	}
	outDir := "."
	if len(args) > 1 {
		outDir = args[1]
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	for i, name := range rec.Names {
		svg := export.SeriesToSVG(name, rec.Times, rec.Series[i], 800, 300)
		if svg == "" {
			continue
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s_%s.svg", args[0], slugify(name)))
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

func slugify(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rec, err := st.LoadRecord(args[0])
	if err != nil {
		return err
	}
	if len(rec.Times) < 4 {
		return fmt.Errorf("not enough samples to analyze")
	}

	fmt.Printf("frequency analysis: %s (%s)\n\n", meta.ID, meta.Scene)
	sampleDt := rec.Times[1] - rec.Times[0]

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERIES\tDOMINANT FREQ\tPERIOD")
	for i, name := range rec.Names {
		freq, power := analysis.DominantFrequency(rec.Series[i], sampleDt)
		if power == 0 || freq == 0 {
			fmt.Fprintf(w, "%s\t-\t-\n", name)
			continue
		}
		fmt.Fprintf(w, "%s\t%.3f hz\t%.3f s\n", name, freq, 1/freq)
	}
	return w.Flush()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	rec, err := st.LoadRecord(args[0])
	if err != nil {
		return err
	}
	if len(rec.Times) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write(append([]string{"time"}, rec.Names...)); err != nil {
		return err
	}
	for i := range rec.Times {
		row := []string{strconv.FormatFloat(rec.Times[i], 'f', 6, 64)}
		for _, series := range rec.Series {
			v := 0.0
			if i < len(series) {
				v = series[i]
			}
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
