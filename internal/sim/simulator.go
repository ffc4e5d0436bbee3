package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/san-kum/heatsim/internal/boundary"
	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/kernels"
)

// Driver advances a grid through its configured number of iterations. Each
// iteration refreshes the halos from the current field, launches the kernel and
// swaps the buffers. Iterations never overlap.
type Driver struct {
	dev       *device.Device
	kernel    kernels.Kernel
	bc        boundary.Condition
	metrics   []Metric
	observers []Observer
	state     atomic.Int32
}

func New(dev *device.Device, kernel kernels.Kernel, bc boundary.Condition) *Driver {
	return &Driver{
		dev:       dev,
		kernel:    kernel,
		bc:        bc,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

func (d *Driver) Kernel() kernels.Kernel { return d.kernel }

// State is safe to call while Run is in progress.
func (d *Driver) State() State { return State(d.state.Load()) }

// Run executes p.Iters iterations on g. Any boundary or launch failure aborts
// the loop and is returned as a *StepError; no partial result is returned in
// that case. On success g.Current() holds the final field.
func (d *Driver) Run(ctx context.Context, g *grid.Grid) (*Result, error) {
	p := g.Params()
	if p.Iters < 0 {
		return nil, fmt.Errorf("iterations must be non-negative, got %d", p.Iters)
	}

	d.state.Store(int32(Running))
	defer d.state.Store(int32(Done))

	result := &Result{
		StepTimes: make([]time.Duration, 0, p.Iters),
		Metrics:   make(map[string]float64),
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	var total Stopwatch
	total.Start()

	for i := 0; i < p.Iters; i++ {
		select {
		case <-ctx.Done():
			return nil, &StepError{Iteration: i, Err: ctx.Err()}
		default:
		}

		stepStart := time.Now()
		if err := d.step(ctx, g, p); err != nil {
			slog.Debug("run aborted", "iteration", i, "kernel", d.kernel.Name(), "err", err)
			return nil, &StepError{Iteration: i, Err: err}
		}
		stepTime := time.Since(stepStart)

		result.Iterations++
		result.StepTimes = append(result.StepTimes, stepTime)

		for _, m := range d.metrics {
			m.Observe(g.Current(), p, i)
		}
		for _, obs := range d.observers {
			obs.OnStep(i, g, stepTime)
		}
	}

	result.Elapsed = total.Stop()

	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (d *Driver) step(ctx context.Context, g *grid.Grid, p grid.Params) error {
	if err := d.bc.Update(g.Next(), g.Current(), p); err != nil {
		return fmt.Errorf("boundary %s: %w", d.bc.Name(), err)
	}
	if err := d.kernel.Launch(ctx, d.dev, g.Current(), g.Next(), p); err != nil {
		return err
	}
	g.Swap()
	return nil
}
