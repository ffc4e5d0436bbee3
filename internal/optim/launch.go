package optim

import (
	"context"

	"github.com/san-kum/heatsim/internal/analysis"
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/experiment"
	"github.com/san-kum/heatsim/internal/kernels"
	"github.com/san-kum/heatsim/internal/sim"
)

const (
	ParamBlockX = "block_x"
	ParamBlockY = "block_y"
	ParamRows   = "rows"
)

// LaunchSpace lists the candidate launch shapes for TuneLaunch.
type LaunchSpace struct {
	BlockX []int
	BlockY []int
	Rows   []int
}

func DefaultLaunchSpace() LaunchSpace {
	return LaunchSpace{
		BlockX: []int{8, 16, 32, 64},
		BlockY: []int{4, 8, 16, 32},
		Rows:   []int{1, 2, 4, 8},
	}
}

// MedianStep scores a run by its median step time in nanoseconds.
func MedianStep(r *sim.Result) float64 {
	return float64(analysis.Summarize(r.StepTimes).P50)
}

// TuneLaunch searches the launch space for the shape with the lowest median
// step time of base's variant. Only the row-blocked variant uses Rows. The
// returned configuration is a copy of base with the best shape applied.
func TuneLaunch(ctx context.Context, base *config.Config, space LaunchSpace, registry *experiment.Registry) (*config.Config, []Trial, error) {
	names := []string{ParamBlockX, ParamBlockY}
	ranges := [][]float64{floats(space.BlockX), floats(space.BlockY)}
	if v, err := base.ParsedVariant(); err == nil && v == kernels.RowBlocked {
		names = append(names, ParamRows)
		ranges = append(ranges, floats(space.Rows))
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		exp := experiment.New(apply(base, params))
		if err := exp.Setup(registry, nil); err != nil {
			return nil, err
		}
		return exp, nil
	}

	best, _, trials, err := NewGridSearch(names, ranges).Search(ctx, build, MedianStep)
	if err != nil {
		return nil, trials, err
	}
	return apply(base, best), trials, nil
}

func apply(base *config.Config, params map[string]float64) *config.Config {
	cfg := base.Clone()
	if v, ok := params[ParamBlockX]; ok {
		cfg.Block.X = int(v)
	}
	if v, ok := params[ParamBlockY]; ok {
		cfg.Block.Y = int(v)
	}
	if v, ok := params[ParamRows]; ok {
		cfg.RowsPerThread = int(v)
	}
	return cfg
}

func floats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
