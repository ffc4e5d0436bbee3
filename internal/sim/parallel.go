package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/heatsim/internal/boundary"
	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/kernels"
	"golang.org/x/sync/errgroup"
)

// Comparison holds the outcome of running several kernel variants from the same
// starting field.
type Comparison struct {
	Variants []kernels.Variant
	Results  []*Result
	Grids    []*grid.Grid
	// MaxDiff[i] is the largest interior difference between variant i and variant 0.
	MaxDiff []float64
}

// Agree reports whether every variant is within tol of the first.
func (c *Comparison) Agree(tol float64) bool {
	for _, d := range c.MaxDiff {
		if !(d <= tol) {
			return false
		}
	}
	return true
}

// Compare runs each variant concurrently on its own clone of g. g itself is not
// modified.
func Compare(ctx context.Context, dev *device.Device, g *grid.Grid, bc boundary.Condition, variants []kernels.Variant, opts kernels.Options) (*Comparison, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variants to compare")
	}

	c := &Comparison{
		Variants: variants,
		Results:  make([]*Result, len(variants)),
		Grids:    make([]*grid.Grid, len(variants)),
		MaxDiff:  make([]float64, len(variants)),
	}

	ks := make([]kernels.Kernel, len(variants))
	for i, v := range variants {
		k, err := kernels.New(v, opts)
		if err != nil {
			return nil, err
		}
		ks[i] = k
	}

	eg, ctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		k := ks[i]
		clone := g.Clone()
		c.Grids[i] = clone

		eg.Go(func() error {
			res, err := New(dev, k, bc).Run(ctx, clone)
			if err != nil {
				return fmt.Errorf("%s: %w", v, err)
			}
			c.Results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	p := g.Params()
	ref := c.Grids[0].Current()
	for i, cg := range c.Grids {
		cur := cg.Current()
		maxDiff := 0.0
		for row := 0; row < p.NY; row++ {
			for col := 0; col < p.NX; col++ {
				idx := p.Index(col, row)
				d := math.Abs(cur[idx] - ref[idx])
				if math.IsNaN(d) {
					d = math.Inf(1)
				}
				maxDiff = math.Max(maxDiff, d)
			}
		}
		c.MaxDiff[i] = maxDiff
	}

	return c, nil
}
