package kernels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
)

const DefaultRowsPerThread = 4

// DefaultBlock is the output extent covered by one block.
var DefaultBlock = device.Dim2{X: 16, Y: 16}

var (
	// ErrBufferSize indicates cur or next does not match the padded extents.
	ErrBufferSize = errors.New("kernels: buffer size mismatch")

	// ErrUnknownVariant indicates a variant name with no kernel behind it.
	ErrUnknownVariant = errors.New("kernels: unknown variant")
)

// Kernel advances cur into next by one timestep over the interior of the grid.
type Kernel interface {
	Name() string
	Config(p grid.Params) device.LaunchConfig
	Launch(ctx context.Context, dev *device.Device, cur, next []float64, p grid.Params) error
}

// Variant selects one of the kernel realizations.
type Variant int

const (
	Naive Variant = iota
	RowBlocked
	Tiled
)

// Variants lists every realization.
var Variants = []Variant{Naive, RowBlocked, Tiled}

func (v Variant) String() string {
	switch v {
	case Naive:
		return "naive"
	case RowBlocked:
		return "rowblocked"
	case Tiled:
		return "tiled"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "naive":
		return Naive, nil
	case "rowblocked", "row-blocked", "rows":
		return RowBlocked, nil
	case "tiled", "shared":
		return Tiled, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Options shapes a kernel. Block is the output extent of one block; the
// row-blocked kernel divides its height among RowsPerThread rows per worker.
type Options struct {
	Block         device.Dim2
	RowsPerThread int
}

func DefaultOptions() Options {
	return Options{Block: DefaultBlock, RowsPerThread: DefaultRowsPerThread}
}

// New builds the kernel for v.
func New(v Variant, opts Options) (Kernel, error) {
	if opts.Block.X <= 0 || opts.Block.Y <= 0 {
		opts.Block = DefaultBlock
	}
	if opts.RowsPerThread <= 0 {
		opts.RowsPerThread = DefaultRowsPerThread
	}

	switch v {
	case Naive:
		return NewNaive(opts.Block), nil
	case RowBlocked:
		threads := device.Dim2{X: opts.Block.X, Y: max(1, opts.Block.Y/opts.RowsPerThread)}
		return NewRowBlocked(threads, opts.RowsPerThread), nil
	case Tiled:
		return NewTiled(opts.Block), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownVariant, v)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func checkBuffers(cur, next []float64, p grid.Params) error {
	if len(cur) != p.Len() || len(next) != p.Len() {
		return fmt.Errorf("%w: cur=%d next=%d want=%d", ErrBufferSize, len(cur), len(next), p.Len())
	}
	return nil
}

// finish reports a launch failure first, then an operator failure. The kernel
// still ran with the NaN operator in the latter case.
func finish(name string, launchErr, opErr error) error {
	if launchErr != nil {
		return fmt.Errorf("kernels: %s launch: %w", name, launchErr)
	}
	if opErr != nil {
		return fmt.Errorf("kernels: %s: %w", name, opErr)
	}
	return nil
}
