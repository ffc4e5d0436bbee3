package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/heatsim/internal/automation"
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/experiment"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/kernels"
	"github.com/san-kum/heatsim/internal/optim"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/san-kum/heatsim/internal/stencil"
	"github.com/san-kum/heatsim/internal/storage"
	"github.com/san-kum/heatsim/internal/viz"
	"github.com/spf13/cobra"
)

// resolveConfig layers preset, config file and explicitly set flags, in that
// order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		group, name, _ := strings.Cut(preset, "/")
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (groups: %v)", preset, config.Groups())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("order") {
		cfg.Order = order
	}
	if f.Changed("nx") {
		cfg.NX = nx
	}
	if f.Changed("ny") {
		cfg.NY = ny
	}
	if f.Changed("xcfl") {
		cfg.XCFL = xcfl
	}
	if f.Changed("ycfl") {
		cfg.YCFL = ycfl
	}
	if f.Changed("iters") {
		cfg.Iters = iters
	}
	if f.Changed("variant") {
		cfg.Variant = variant
	}
	if f.Changed("block-x") {
		cfg.Block.X = blockX
	}
	if f.Changed("block-y") {
		cfg.Block.Y = blockY
	}
	if f.Changed("rows") {
		cfg.RowsPerThread = rowsPerThread
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("boundary") {
		cfg.Boundary = config.BoundaryConfig{Kind: boundaryKind, Value: cfg.Boundary.Value}
	}
	if f.Changed("boundary-value") {
		cfg.Boundary.Value = boundaryValue
	}
	if f.Changed("init") {
		cfg.Init.Kind = initKind
	}
	if f.Changed("init-value") {
		cfg.Init.Value = initValue
	}
	if f.Changed("seed") {
		cfg.Init.Seed = seed
	}

	if err := applyPhysical(cfg, f.Changed, alpha, dt, dx); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sum, limit, ok := cfg.CheckStability(); !ok {
		fmt.Println(viz.Warning.Render(fmt.Sprintf("warning: xcfl+ycfl = %g exceeds the order-%d stability limit %g", sum, cfg.Order, limit)))
	}
	return cfg, nil
}

// applyPhysical derives both Courant numbers from alpha, dt and dx when any of
// them was given. Explicit --xcfl/--ycfl still win.
func applyPhysical(cfg *config.Config, changed func(string) bool, alpha, dt, dx float64) error {
	if !changed("alpha") && !changed("dt") && !changed("dx") {
		return nil
	}
	if !(dt > 0) || !(dx > 0) {
		return fmt.Errorf("--alpha, --dt and --dx need dt > 0 and dx > 0, got dt=%g dx=%g", dt, dx)
	}
	c := config.Courant(stencil.Order(cfg.Order), alpha, dt, dx)
	if !changed("xcfl") {
		cfg.XCFL = c
	}
	if !changed("ycfl") {
		cfg.YCFL = c
	}
	return nil
}

func setupExperiment(cfg *config.Config) (*experiment.Experiment, error) {
	registry := experiment.NewRegistry()
	exp := experiment.New(cfg)
	if err := exp.Setup(registry, registry.DefaultMetrics()); err != nil {
		return nil, err
	}
	return exp, nil
}

func saveRun(cfg *config.Config, exp *experiment.Experiment, result *sim.Result) error {
	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, exp.Device().Workers(), result)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := setupExperiment(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("running %s on %d workers...\n", cfg, exp.Device().Workers())
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(viz.Report(cfg.Variant, result))
	return saveRun(cfg, exp, result)
}

func benchVariants(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	benchOrders := benchOrds
	if len(benchOrders) == 0 {
		benchOrders = []int{cfg.Order}
	}

	sweep := &automation.VariantSweep{Base: cfg, Orders: benchOrders, Variants: variants}
	results, err := automation.RunVariantSweep(cmd.Context(), sweep, experiment.NewRegistry())
	if err != nil {
		return err
	}

	for _, o := range benchOrders {
		var names []string
		var res []*sim.Result
		var diffs []float64
		series := make(map[string][]float64)
		for _, r := range results {
			if r.Order != o {
				continue
			}
			names = append(names, r.Variant)
			res = append(res, r.Result)
			diffs = append(diffs, r.MaxDiff)
			series[r.Variant] = viz.Micros(r.Result.StepTimes)
		}

		fmt.Println(viz.Title.Render(fmt.Sprintf("order %d  %dx%d  %d iterations", o, cfg.NX, cfg.NY, cfg.Iters)))
		fmt.Println(viz.VariantTable(names, res, diffs))
		if showPlot {
			fmt.Println(viz.PlotCompare(series, "step time (µs)", viz.DefaultPlotWidth, viz.DefaultPlotHeight))
		}
		fmt.Println(viz.Separator(viz.DefaultPlotWidth))
	}
	return nil
}

func verifyVariants(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	bc, err := registry.GetBoundary(cfg.Boundary)
	if err != nil {
		return err
	}
	field, err := registry.GetField(cfg.Init, cfg.NX, cfg.NY)
	if err != nil {
		return err
	}
	dev := cfg.Device()

	names := variantNames()
	failed := 0
	for _, o := range verifyOrds {
		oc := cfg.Clone()
		oc.Order = o
		if err := oc.Validate(); err != nil {
			return err
		}
		p := oc.Params()
		g, err := grid.New(p, field(p))
		if err != nil {
			return err
		}

		cmp, err := sim.Compare(cmd.Context(), dev, g, bc, kernels.Variants, oc.KernelOptions())
		if err != nil {
			return err
		}

		status := viz.StatusDone.Render("PASS")
		if !cmp.Agree(tolerance) {
			status = viz.StatusFailed.Render("FAIL")
			failed++
		}
		fmt.Printf("%s order %d %s\n", status, o, p)
		fmt.Println(viz.VariantTable(names, cmp.Results, cmp.MaxDiff))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d orders disagree beyond %g", failed, len(verifyOrds), tolerance)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := setupExperiment(cfg)
	if err != nil {
		return err
	}
	if !slices.Contains(viz.ThemeNames(), theme) {
		return fmt.Errorf("unknown theme: %s (themes: %s)", theme, strings.Join(viz.ThemeNames(), ", "))
	}
	viz.SetTheme(theme)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	feed := viz.NewFeed(64)
	exp.Driver().AddObserver(feed.Observer())
	go func() {
		result, err := exp.Run(ctx)
		feed.Finish(result, err)
	}()

	title := fmt.Sprintf("order %d %s %dx%d", cfg.Order, cfg.Variant, cfg.NX, cfg.NY)
	final, err := tea.NewProgram(viz.NewMonitor(title, cfg.Iters, feed, cancel)).Run()
	if err != nil {
		return err
	}

	result, done, runErr := final.(viz.Monitor).Outcome()
	if !done {
		return context.Canceled
	}
	if runErr != nil {
		return runErr
	}
	return saveRun(cfg, exp, result)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	fmt.Println(viz.RunTable(runs))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	timings, err := st.LoadTimings(runID)
	if err != nil {
		return err
	}
	if len(timings) == 0 {
		return errors.New("no timings to plot")
	}

	fmt.Println(viz.KV("run", meta.ID))
	fmt.Println(viz.KV("variant", fmt.Sprintf("%s order %d", meta.Variant, meta.Order)))
	fmt.Println(viz.KV("grid", fmt.Sprintf("%dx%d", meta.NX, meta.NY)))
	fmt.Println(viz.KV("steps/s", fmt.Sprintf("%.1f", meta.StepsPerSecond)))
	fmt.Println(viz.TimingSummary(timings))
	fmt.Println()
	fmt.Println(viz.PlotTimings(timings, viz.DefaultPlotWidth+20, viz.DefaultPlotHeight))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	timings, err := st.LoadTimings(runID)
	if err != nil {
		return err
	}

	data := storage.NewExportData(*meta, timings)
	if outFile != "" {
		if err := storage.ExportJSON(outFile, data); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", runID, outFile)
		return nil
	}
	return storage.WriteJSON(os.Stdout, data)
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.Groups()
	if len(args) == 1 {
		groups = []string{args[0]}
	}
	for _, group := range groups {
		names := config.ListPresets(group)
		if len(names) == 0 {
			fmt.Printf("no presets in group: %s\n", group)
			continue
		}
		fmt.Println(viz.Title.Render(group))
		for _, name := range names {
			fmt.Printf("  %s/%s  %s\n", group, name, viz.Subtle.Render(config.GetPreset(group, name).String()))
		}
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.GradientText(scenario.Name, "#ff6b35", "#00ffff"))
	if scenario.Description != "" {
		fmt.Println(viz.Subtle.Render(scenario.Description))
	}

	results, err := automation.RunScenario(cmd.Context(), scenario, experiment.NewRegistry())
	for i, r := range results {
		if i > 0 {
			fmt.Println(viz.Separator(viz.DefaultPlotWidth))
		}
		fmt.Println(viz.Report(r.Name, r.Result))
		if !noSave {
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}
			if _, err := st.Save(r.Config, r.Config.Device().Workers(), r.Result); err != nil {
				return err
			}
		}
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
	}
	results, err := automation.RunSweep(cmd.Context(), sweep, experiment.NewRegistry())
	if err != nil {
		return err
	}

	limit := config.StabilityLimit(stencil.Order(cfg.Order))
	fmt.Println(viz.Title.Render(fmt.Sprintf("%s sweep, order %d, advisory limit on xcfl+ycfl: %g", sweepParam, cfg.Order, limit)))
	stability := make([]float64, 0, len(results))
	for _, r := range results {
		status := viz.StatusDone.Render("stable  ")
		if !r.Stable {
			status = viz.StatusFailed.Render("unstable")
		}
		fmt.Printf("  %s=%-10.4g %s peak=%.4g\n", sweepParam, r.ParamValue, status, r.Peak)
		stability = append(stability, r.Stability)
	}
	stable, unstable := automation.SweepStats(results)
	fmt.Printf("\n%d stable, %d unstable\n", stable, unstable)
	if len(stability) > 1 {
		fmt.Println(viz.PlotSeries(stability, "stable fraction of iterations", viz.DefaultPlotWidth, 5))
	}
	return nil
}

func tuneLaunch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	space := optim.LaunchSpace{BlockX: tuneBlocksX, BlockY: tuneBlocksY, Rows: tuneRows}
	fmt.Printf("tuning %s...\n", cfg)
	best, trials, err := optim.TuneLaunch(cmd.Context(), cfg, space, experiment.NewRegistry())
	if err != nil {
		return err
	}

	for _, tr := range trials {
		shape := fmt.Sprintf("%gx%g", tr.Params[optim.ParamBlockX], tr.Params[optim.ParamBlockY])
		if rows, ok := tr.Params[optim.ParamRows]; ok {
			shape += fmt.Sprintf(" rows=%g", rows)
		}
		if tr.Err != nil {
			fmt.Printf("  %-16s %s\n", shape, viz.StatusFailed.Render(tr.Err.Error()))
			continue
		}
		fmt.Printf("  %-16s p50 %s\n", shape, time.Duration(tr.Score))
	}

	fmt.Println()
	fmt.Println(viz.KV("best block", fmt.Sprintf("%dx%d", best.Block.X, best.Block.Y)))
	if v, _ := best.ParsedVariant(); v == kernels.RowBlocked {
		fmt.Println(viz.KV("rows/thread", fmt.Sprintf("%d", best.RowsPerThread)))
	}
	if outFile != "" {
		if err := config.Save(outFile, best); err != nil {
			return err
		}
		fmt.Printf("saved tuned config to %s\n", outFile)
	}
	return nil
}
