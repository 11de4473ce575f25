package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/espic/internal/analysis"
	"github.com/san-kum/espic/internal/config"
	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/scenario"
	"github.com/san-kum/espic/internal/sim"
	"github.com/san-kum/espic/internal/storage"
	"github.com/san-kum/espic/internal/viz"
	"github.com/san-kum/espic/internal/vtk"
)

var (
	dataDir       string
	dt            float64
	steps         int
	nodes         int
	seed          int64
	snapshotEvery int
	snapshotDir   string
	policy        string
	configFile    string
	preset        string
	stepsPerTick  int
	sweepRuns     int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "espic",
		Short: "electrostatic particle-in-cell plasma simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".espic", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep in seconds")
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of timesteps")
	runCmd.Flags().IntVar(&nodes, "nodes", 0, "nodes per axis")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	runCmd.Flags().IntVar(&snapshotEvery, "snapshot-every", 0, "mesh snapshot cadence in steps")
	runCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "results", "directory for vti snapshots")
	runCmd.Flags().StringVar(&policy, "on-non-convergence", "", "warn or abort")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's trace",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the traced particle",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trace to csv on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "run a scenario across consecutive seeds and summarize metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepSeeds,
	}
	sweepCmd.Flags().Float64Var(&dt, "dt", 0, "timestep in seconds")
	sweepCmd.Flags().IntVar(&steps, "steps", 0, "number of timesteps")
	sweepCmd.Flags().Int64Var(&seed, "seed", 0, "first random seed")
	sweepCmd.Flags().IntVar(&sweepRuns, "runs", 4, "number of runs")
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the well scenario with a live view",
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", 0, "timestep in seconds")
	liveCmd.Flags().IntVar(&steps, "steps", 0, "number of timesteps")
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().IntVar(&stepsPerTick, "steps-per-tick", 10, "simulation steps per frame")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCmd, exportCSVCmd, presetsCmd, sweepCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// assembleConfig layers preset, config file and changed flags on top of
// the defaults, in that order.
func assembleConfig(cmd *cobra.Command, scenarioName string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(scenarioName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)",
				preset, config.ListPresets(scenarioName))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.Scenario = scenarioName
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("nodes") {
		cfg.Well.Nodes = nodes
		cfg.Box.Nodes = [3]int{nodes, nodes, nodes}
	}
	if cmd.Flags().Changed("snapshot-every") {
		cfg.SnapshotEvery = snapshotEvery
	}
	if cmd.Flags().Changed("on-non-convergence") {
		cfg.OnNonConvergence = policy
	}
	// The stock defaults describe the well; switching scenario on the
	// command line picks up the box's native step settings unless the
	// user pinned them.
	if cfg.Scenario == "box" && preset == "" && configFile == "" {
		if !cmd.Flags().Changed("dt") {
			cfg.Dt = scenario.DefaultBoxConfig().Dt
		}
		if !cmd.Flags().Changed("steps") {
			cfg.Steps = 400
		}
	}
	return cfg, cfg.Validate()
}

// progressObserver prints periodic step summaries and solver failure
// notices while a batch run is in flight.
type progressObserver struct {
	every int
}

func (p *progressObserver) OnStep(d plasma.Diagnostics) {
	if !d.SolveConverged {
		fmt.Fprintf(os.Stderr, "warning: solver did not converge at step %d (%d iterations)\n",
			d.Step, d.SolveIterations)
	}
	if d.Step%p.every == 0 {
		fmt.Printf("step %d  t=%.4g s  kinetic=%.4g eV  potential=%.4g eV  total=%.4g eV\n",
			d.Step, d.Time, d.Kinetic, d.Potential, d.Total())
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := assembleConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	sys, driverCfg, err := cfg.Build()
	if err != nil {
		return err
	}

	driver := sim.New(sys)
	for _, m := range scenario.NewRegistry().DefaultMetrics() {
		driver.AddMetric(m)
	}
	driver.AddObserver(&progressObserver{every: max(1, driverCfg.Steps/10)})
	if driverCfg.SnapshotEvery > 0 {
		writer, err := vtk.NewWriter(snapshotDir)
		if err != nil {
			return err
		}
		driver.AddSnapshotWriter(writer)
	}

	fmt.Printf("running %s scenario...\n", cfg.Scenario)
	start := time.Now()

	result, err := driver.Run(context.Background(), driverCfg)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Scenario, driverCfg.Dt, cfg.Seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if result.SolveFailures > 0 {
		fmt.Printf("solve failures: %d\n", result.SolveFailures)
	}
	for _, ioErr := range result.IOErrors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", ioErr)
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tSTEPS\tDT\tSOLVE_FAILS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3gs\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.SolveFailures,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(trace))

	series := []struct {
		caption string
		extract func(i int) float64
	}{
		{"kinetic energy [eV]", func(i int) float64 { return trace[i].Kinetic }},
		{"potential energy [eV]", func(i int) float64 { return trace[i].Potential }},
		{"total energy [eV]", func(i int) float64 { return trace[i].Total() }},
		{"x position [m]", func(i int) float64 { return trace[i].Position.X }},
	}
	for _, s := range series {
		data := make([]float64, len(trace))
		for i := range trace {
			data[i] = s.extract(i)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n\n", meta.Scenario)

	data := make([]float64, len(trace))
	total := make([]float64, len(trace))
	for i := range trace {
		data[i] = trace[i].Position.X
		total[i] = trace[i].Total()
	}

	meanE, stdE := stat.MeanStdDev(total, nil)
	if len(total) < 2 {
		stdE = 0
	}
	fmt.Printf("total energy: mean %.6g eV, stddev %.3g eV\n\n", meanE, stdE)

	ps := analysis.PowerSpectrum(data)
	plotData := ps[:len(ps)/4]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (x)"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(data, meta.Dt)
	if freq == 0 {
		fmt.Println("no dominant frequency found")
		return nil
	}
	fmt.Printf("dominant frequency: %.4g hz\n", freq)
	fmt.Printf("period: %.4g s\n", 1.0/freq)
	fmt.Printf("angular frequency: %.4g rad/s\n", 2*math.Pi*freq)
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

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"step", "time", "kinetic_ev", "potential_ev", "total_ev", "x", "vx"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, d := range trace {
		row := []string{
			strconv.Itoa(d.Step),
			strconv.FormatFloat(d.Time, 'g', 12, 64),
			strconv.FormatFloat(d.Kinetic, 'g', 12, 64),
			strconv.FormatFloat(d.Potential, 'g', 12, 64),
			strconv.FormatFloat(d.Total(), 'g', 12, 64),
			strconv.FormatFloat(d.Position.X, 'g', 12, 64),
			strconv.FormatFloat(d.Velocity.X, 'g', 12, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func sweepSeeds(cmd *cobra.Command, args []string) error {
	cfg, err := assembleConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if sweepRuns < 1 {
		return fmt.Errorf("runs must be at least 1")
	}

	registry := scenario.NewRegistry()
	build := func(s int64) (sim.System, error) {
		runCfg := *cfg
		runCfg.Seed = s
		sys, _, err := runCfg.Build()
		return sys, err
	}

	_, driverCfg, err := cfg.Build()
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %s over %d seeds starting at %d...\n", cfg.Scenario, sweepRuns, cfg.Seed)
	start := time.Now()

	ens := sim.NewEnsemble(build, sweepRuns, cfg.Seed).WithMetrics(registry.DefaultMetrics)
	results, err := ens.Run(context.Background(), driverCfg)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	byMetric := map[string][]float64{}
	for _, r := range results {
		for name, val := range r.Metrics {
			byMetric[name] = append(byMetric[name], val)
		}
	}
	names := make([]string, 0, len(byMetric))
	for name := range byMetric {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, name := range names {
		vals := byMetric[name]
		mean, std := stat.MeanStdDev(vals, nil)
		if len(vals) < 2 {
			std = 0
		}
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\n",
			name, mean, std, floats.Min(vals), floats.Max(vals))
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := assembleConfig(cmd, "well")
	if err != nil {
		return err
	}

	sys, driverCfg, err := cfg.Build()
	if err != nil {
		return err
	}
	well, ok := sys.(*scenario.Well)
	if !ok {
		return fmt.Errorf("live view supports the well scenario only")
	}

	m := viz.NewModel(well, driverCfg, stepsPerTick)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
