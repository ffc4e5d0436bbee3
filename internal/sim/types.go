package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/heatsim/internal/grid"
)

// State is the driver's lifecycle position.
type State int32

const (
	Idle State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Metric observes the current field after every completed iteration.
type Metric interface {
	Name() string
	Observe(field []float64, p grid.Params, iter int)
	Value() float64
	Reset()
}

// Observer is notified after every completed iteration, once the buffers have
// been swapped. It must not retain g.
type Observer interface {
	OnStep(iter int, g *grid.Grid, step time.Duration)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(iter int, g *grid.Grid, step time.Duration)

func (f ObserverFunc) OnStep(iter int, g *grid.Grid, step time.Duration) { f(iter, g, step) }

type Result struct {
	Iterations int
	Elapsed    time.Duration
	StepTimes  []time.Duration
	Metrics    map[string]float64
}

// StepsPerSecond is the iteration throughput of the run.
func (r *Result) StepsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Iterations) / r.Elapsed.Seconds()
}

// StepError wraps a failure with the iteration it aborted.
type StepError struct {
	Iteration int
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("iteration %d: %v", e.Iteration, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
