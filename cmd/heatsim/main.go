package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/kernels"
	"github.com/san-kum/heatsim/internal/optim"
	"github.com/san-kum/heatsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	order         int
	nx            int
	ny            int
	xcfl          float64
	ycfl          float64
	iters         int
	variant       string
	blockX        int
	blockY        int
	rowsPerThread int
	workers       int
	boundaryKind  string
	boundaryValue float64
	initKind      string
	initValue     float64
	seed          int64

	// physical parameters folded into the Courant numbers
	alpha float64
	dt    float64
	dx    float64

	noSave     bool
	benchOrds  []int
	verifyOrds []int
	variants   []string
	tolerance  float64
	showPlot   bool
	theme      string
	outFile    string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	tuneBlocksX []int
	tuneBlocksY []int
	tuneRows    []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "heatsim",
		Short:        "explicit 2d heat stencil lab",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".heatsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation and store its timings",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time every kernel variant on the same configuration",
		Args:  cobra.NoArgs,
		RunE:  benchVariants,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&benchOrds, "orders", nil, "orders to benchmark (default: configured order)")
	benchCmd.Flags().StringSliceVar(&variants, "variants", variantNames(), "variants to benchmark")
	benchCmd.Flags().BoolVar(&showPlot, "plot", false, "plot step times")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "check that all kernel variants produce the same field",
		Args:  cobra.NoArgs,
		RunE:  verifyVariants,
	}
	addConfigFlags(verifyCmd)
	verifyCmd.Flags().IntSliceVar(&verifyOrds, "orders", []int{2, 4, 8}, "orders to verify")
	verifyCmd.Flags().Float64Var(&tolerance, "tol", 0, "maximum allowed difference")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live progress monitor",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	liveCmd.Flags().StringVar(&theme, "theme", "thermal", "color theme: "+strings.Join(viz.ThemeNames(), ", "))

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the step times of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep a courant number and report stability",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "cfl", "parameter: cfl, xcfl or ycfl")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.05, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.5, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of values")

	space := optim.DefaultLaunchSpace()
	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "search block shapes for the fastest launch configuration",
		Args:  cobra.NoArgs,
		RunE:  tuneLaunch,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().IntSliceVar(&tuneBlocksX, "blocks-x", space.BlockX, "candidate block widths")
	tuneCmd.Flags().IntSliceVar(&tuneBlocksY, "blocks-y", space.BlockY, "candidate block heights")
	tuneCmd.Flags().IntSliceVar(&tuneRows, "rows-list", space.Rows, "candidate rows per thread (rowblocked)")
	tuneCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the tuned config to this file")

	rootCmd.AddCommand(runCmd, benchCmd, verifyCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, scenarioCmd, sweepCmd, tuneCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "preset as group/name")
	f.IntVar(&order, "order", def.Order, "stencil order (2, 4 or 8)")
	f.IntVar(&nx, "nx", def.NX, "interior columns")
	f.IntVar(&ny, "ny", def.NY, "interior rows")
	f.Float64Var(&xcfl, "xcfl", def.XCFL, "courant number along x")
	f.Float64Var(&ycfl, "ycfl", def.YCFL, "courant number along y")
	f.IntVar(&iters, "iters", def.Iters, "iterations")
	f.StringVar(&variant, "variant", def.Variant, "kernel variant: naive, rowblocked, tiled")
	f.IntVar(&blockX, "block-x", def.Block.X, "block width")
	f.IntVar(&blockY, "block-y", def.Block.Y, "block height")
	f.IntVar(&rowsPerThread, "rows", def.RowsPerThread, "rows per thread (rowblocked)")
	f.IntVar(&workers, "workers", def.Workers, "block workers (0 = GOMAXPROCS)")
	f.StringVar(&boundaryKind, "boundary", def.Boundary.Kind, "boundary: dirichlet, neumann, periodic")
	f.Float64Var(&boundaryValue, "boundary-value", def.Boundary.Value, "dirichlet edge value")
	f.StringVar(&initKind, "init", def.Init.Kind, "initial field: constant, impulse, ramp-x, ramp-y, gaussian, random")
	f.Float64Var(&initValue, "init-value", def.Init.Value, "constant/impulse value or ramp offset")
	f.Int64Var(&seed, "seed", def.Init.Seed, "seed for the random field")
	f.Float64Var(&alpha, "alpha", 1, "thermal diffusivity")
	f.Float64Var(&dt, "dt", 0, "timestep; any of --alpha, --dt, --dx derives both courant numbers (dt required)")
	f.Float64Var(&dx, "dx", 1, "grid spacing")
}

func variantNames() []string {
	names := make([]string, 0, len(kernels.Variants))
	for _, v := range kernels.Variants {
		names = append(names, v.String())
	}
	return names
}
