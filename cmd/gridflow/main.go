package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/san-kum/gridflow/internal/casefile"
	"github.com/san-kum/gridflow/internal/config"
	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/metrics"
	"github.com/san-kum/gridflow/internal/powerflow"
	"github.com/san-kum/gridflow/internal/registry"
	"github.com/san-kum/gridflow/internal/storage"
	"github.com/san-kum/gridflow/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbosity  int
	// solver overrides
	tolerance  float64
	maxIters   int
	limiting   bool
	flatStart  bool
	backend    string
	saveSolved string
	// plot
	pngFile string
)

// errProvisional marks a run that hit the iteration limit. It maps to exit
// status 2.
var errProvisional = errors.New("power flow did not converge, result is provisional")

func main() {
	rootCmd := &cobra.Command{
		Use:           "gridflow",
		Short:         "steady-state power flow by equivalent circuit formulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity (repeat for per-iteration logs)")

	solveCmd := newSolveCmd()

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run summary and its bus voltages",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot convergence and the voltage profile",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngFile, "png", "", "also write the convergence chart to this image file")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(args[0], os.Stdout)
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list solver presets and backends",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(solveCmd, listCmd, showCmd, plotCmd, exportJSONCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errProvisional) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve [case.yaml ...]",
		Short: "solve one or more cases and store the runs",
		RunE:  solveCases,
	}
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset solver settings")
	cmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "convergence tolerance on the step")
	cmd.Flags().IntVar(&maxIters, "max-iters", config.DefaultMaxIters, "iteration limit")
	cmd.Flags().BoolVar(&limiting, "limiting", false, "enable step limiting")
	cmd.Flags().BoolVar(&flatStart, "flat", false, "flat start instead of the stored operating point")
	cmd.Flags().StringVar(&backend, "backend", config.DefaultBackend, "linear solver backend")
	cmd.Flags().StringVar(&saveSolved, "save-solved", "", "write the case with its solution as operating point")
	return cmd
}

func newLogger() logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

// resolveConfig layers defaults, config file, preset and explicitly set
// flags, in that order. A preset replaces the file's solver settings.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			names := config.ListPresets()
			sort.Strings(names)
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, names)
		}
		p.Apply(cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("max-iters") {
		cfg.Solver.MaxIters = maxIters
	}
	if flags.Changed("limiting") {
		cfg.Solver.EnableLimiting = limiting
	}
	if flags.Changed("flat") {
		cfg.Solver.FlatStart = flatStart
	}
	if flags.Changed("backend") {
		cfg.Solver.Backend = backend
	}
	if cmd.Root().PersistentFlags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

type caseRun struct {
	path string
	c    *casefile.Case
	net  *grid.Network
	set  metrics.Set
}

func solveCases(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.PowerFlow().Validate(); err != nil {
		return err
	}

	paths := args
	if len(paths) == 0 {
		if cfg.Case == "" {
			return fmt.Errorf("no case given: pass a case file or set case in the config")
		}
		paths = []string{cfg.Case}
	}
	if saveSolved != "" && len(paths) != 1 {
		return fmt.Errorf("--save-solved needs exactly one case")
	}

	runs := make([]*caseRun, len(paths))
	nets := make([]*grid.Network, len(paths))
	byNet := make(map[*grid.Network]*caseRun, len(paths))
	for i, path := range paths {
		c, err := casefile.Load(path)
		if err != nil {
			return err
		}
		if c.BaseMVA == 0 {
			c.BaseMVA = cfg.Base().MVA
		}
		net, err := c.Build()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		runs[i] = &caseRun{path: path, c: c, net: net, set: metrics.Default()}
		nets[i] = net
		byNet[net] = runs[i]
	}

	reg := registry.New()
	log := newLogger()
	newSolver := func(net *grid.Network) (*powerflow.Solver, error) {
		run := byNet[net]
		ls, err := reg.Solver(cfg.Solver.Backend)
		if err != nil {
			return nil, err
		}
		lim, err := reg.Limiter(cfg.Solver.Limiter, net, cfg.LimiterParams())
		if err != nil {
			return nil, err
		}
		return powerflow.New(cfg.PowerFlow(),
			powerflow.WithLinearSolver(ls),
			powerflow.WithLimiter(lim),
			powerflow.WithLogger(log.WithName(caseName(run))),
			powerflow.WithObserver(run.set),
		)
	}

	start := time.Now()
	results, err := powerflow.SolveAll(context.Background(), nets, newSolver)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	provisional := 0
	for i, run := range runs {
		res := results[i]
		info := storage.RunInfo{
			Case:           caseName(run),
			Backend:        cfg.Solver.Backend,
			Tolerance:      cfg.Solver.Tolerance,
			MaxIters:       cfg.Solver.MaxIters,
			EnableLimiting: cfg.Solver.EnableLimiting,
			FlatStart:      cfg.Solver.FlatStart,
		}
		runID, err := st.Save(info, run.net, res, run.set.Values())
		if err != nil {
			return err
		}
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		buses, err := st.LoadBuses(runID)
		if err != nil {
			return err
		}

		fmt.Println(viz.RenderSummary(meta))
		fmt.Println(viz.RenderBuses(buses))
		fmt.Println()
		if res.Provisional() {
			provisional++
		}
	}
	fmt.Printf("solved %d case(s) in %v\n", len(runs), elapsed)

	if saveSolved != "" {
		run, res := runs[0], results[0]
		if res.Provisional() {
			return fmt.Errorf("not writing %s: %w", saveSolved, errProvisional)
		}
		if err := run.c.ApplySolution(run.net, res.V); err != nil {
			return err
		}
		if err := casefile.Save(saveSolved, run.c); err != nil {
			return err
		}
		fmt.Printf("solved case written to %s\n", saveSolved)
	}

	if provisional > 0 {
		return fmt.Errorf("%d of %d case(s): %w", provisional, len(runs), errProvisional)
	}
	return nil
}

func caseName(run *caseRun) string {
	if run.c.Name != "" {
		return run.c.Name
	}
	return strings.TrimSuffix(filepath.Base(run.path), filepath.Ext(run.path))
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
	fmt.Fprintln(w, "ID\tCASE\tTIME\tBACKEND\tITERS\tERROR\tSTATUS")

	for _, run := range runs {
		status := "converged"
		if run.Provisional {
			status = "provisional"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2e\t%s\n",
			run.ID,
			run.Case,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Backend,
			run.Iterations,
			run.FinalError,
			status,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	buses, err := st.LoadBuses(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.RenderSummary(meta))
	fmt.Println(viz.RenderBuses(buses))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	buses, err := st.LoadBuses(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("case: %s\n", meta.Case)
	fmt.Printf("iterations: %d\n\n", len(history))

	graph, err := viz.ErrorPlot(history)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	fmt.Println()

	graph, err = viz.VoltagePlot(buses)
	if err != nil {
		return err
	}
	fmt.Println(graph)

	if pngFile != "" {
		if err := viz.SavePNG(pngFile, meta.Case, history); err != nil {
			return err
		}
		fmt.Printf("\nchart written to %s\n", pngFile)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTOL\tMAX ITERS\tSTART\tLIMITING\tBACKEND")
	for _, name := range names {
		p := config.GetPreset(name)
		start := "warm"
		if p.FlatStart {
			start = "flat"
		}
		lim := "off"
		if p.EnableLimiting {
			lim = fmt.Sprintf("%s (dV %g, dQ %g)", p.Limiter, p.MaxVoltageStep, p.MaxQStep)
		}
		fmt.Fprintf(w, "%s\t%.0e\t%d\t%s\t%s\t%s\n", name, p.Tolerance, p.MaxIters, start, lim, p.Backend)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	reg := registry.New()
	fmt.Printf("\nbackends: %s\n", strings.Join(reg.ListSolvers(), ", "))
	fmt.Printf("limiters: %s\n", strings.Join(reg.ListLimiters(), ", "))
	return nil
}
