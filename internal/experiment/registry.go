package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/heatsim/internal/boundary"
	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/kernels"
	"github.com/san-kum/heatsim/internal/metrics"
	"github.com/san-kum/heatsim/internal/sim"
)

// DefaultStabilityThreshold is the magnitude above which a cell counts as blown up.
const DefaultStabilityThreshold = 1e6

type Registry struct {
	boundaries map[string]func(config.BoundaryConfig) boundary.Condition
	fields     map[string]func(config.InitConfig, int, int) grid.Field
}

func NewRegistry() *Registry {
	r := &Registry{
		boundaries: make(map[string]func(config.BoundaryConfig) boundary.Condition),
		fields:     make(map[string]func(config.InitConfig, int, int) grid.Field),
	}

	r.boundaries["dirichlet"] = func(c config.BoundaryConfig) boundary.Condition {
		d := boundary.Fixed(c.Value)
		if c.Top != nil {
			d.Top = *c.Top
		}
		if c.Bottom != nil {
			d.Bottom = *c.Bottom
		}
		if c.Left != nil {
			d.Left = *c.Left
		}
		if c.Right != nil {
			d.Right = *c.Right
		}
		return d
	}
	r.boundaries["neumann"] = func(config.BoundaryConfig) boundary.Condition { return boundary.Neumann{} }
	r.boundaries["periodic"] = func(config.BoundaryConfig) boundary.Condition { return boundary.Periodic{} }

	r.fields["constant"] = func(c config.InitConfig, _, _ int) grid.Field {
		return grid.Constant(c.Value)
	}
	r.fields["impulse"] = func(c config.InitConfig, nx, ny int) grid.Field {
		v := c.Value
		if v == 0 {
			v = 1
		}
		return grid.Impulse(int(centre(c.X, nx)), int(centre(c.Y, ny)), v)
	}
	r.fields["ramp-x"] = func(c config.InitConfig, _, _ int) grid.Field {
		return grid.RampX(c.Value, c.Amplitude)
	}
	r.fields["ramp-y"] = func(c config.InitConfig, _, _ int) grid.Field {
		return grid.RampY(c.Value, c.Amplitude)
	}
	r.fields["gaussian"] = func(c config.InitConfig, nx, ny int) grid.Field {
		return grid.Gaussian(centre(c.X, nx), centre(c.Y, ny), c.Sigma, c.Amplitude)
	}
	r.fields["random"] = func(c config.InitConfig, _, _ int) grid.Field {
		return grid.Random(c.Seed, c.Amplitude)
	}

	return r
}

// centre resolves a negative coordinate to the middle cell of an axis of n cells.
func centre(v float64, n int) float64 {
	if v < 0 {
		return float64(n / 2)
	}
	return v
}

func (r *Registry) GetBoundary(c config.BoundaryConfig) (boundary.Condition, error) {
	fn, ok := r.boundaries[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown boundary: %s", c.Kind)
	}
	return fn(c), nil
}

func (r *Registry) GetField(c config.InitConfig, nx, ny int) (grid.Field, error) {
	fn, ok := r.fields[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown initial field: %s", c.Kind)
	}
	return fn(c, nx, ny), nil
}

func (r *Registry) GetKernel(name string, opts kernels.Options) (kernels.Kernel, error) {
	v, err := kernels.ParseVariant(name)
	if err != nil {
		return nil, err
	}
	return kernels.New(v, opts)
}

func (r *Registry) ListBoundaries() []string { return sortedKeys(r.boundaries) }
func (r *Registry) ListFields() []string     { return sortedKeys(r.fields) }

func (r *Registry) ListVariants() []string {
	names := make([]string, 0, len(kernels.Variants))
	for _, v := range kernels.Variants {
		names = append(names, v.String())
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewHeatContent(),
		metrics.NewHeatDrift(),
		metrics.NewPeak(),
		metrics.NewStability(DefaultStabilityThreshold),
	}
}
