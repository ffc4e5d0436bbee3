package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/sim"
)

// Experiment assembles a driver and grid from a configuration.
type Experiment struct {
	cfg    *config.Config
	dev    *device.Device
	driver *sim.Driver
	grid   *grid.Grid
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup validates the configuration and builds the device, kernel, boundary and
// initial grid. Metrics are registered on the driver in order.
func (e *Experiment) Setup(reg *Registry, metrics []sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	kernel, err := reg.GetKernel(e.cfg.Variant, e.cfg.KernelOptions())
	if err != nil {
		return err
	}
	bc, err := reg.GetBoundary(e.cfg.Boundary)
	if err != nil {
		return err
	}
	field, err := reg.GetField(e.cfg.Init, e.cfg.NX, e.cfg.NY)
	if err != nil {
		return err
	}

	p := e.cfg.Params()
	g, err := grid.New(p, field(p))
	if err != nil {
		return err
	}

	e.dev = e.cfg.Device()
	e.grid = g
	e.driver = sim.New(e.dev, kernel, bc)
	for _, m := range metrics {
		e.driver.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.driver.Run(ctx, e.grid)
}

// Driver returns the underlying driver for adding observers.
func (e *Experiment) Driver() *sim.Driver { return e.driver }

// Grid holds the final field after Run.
func (e *Experiment) Grid() *grid.Grid { return e.grid }

func (e *Experiment) Device() *device.Device { return e.dev }

func (e *Experiment) Config() *config.Config { return e.cfg }
