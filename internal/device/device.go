package device

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxThreadsPerBlock bounds BlockDim.X*BlockDim.Y.
	DefaultMaxThreadsPerBlock = 1024

	// DefaultMaxSharedWords is 48 KiB of float64 scratch per block.
	DefaultMaxSharedWords = 48 * 1024 / 8
)

var (
	// ErrInvalidLaunch indicates a launch configuration the device cannot schedule.
	ErrInvalidLaunch = errors.New("device: invalid launch configuration")

	// ErrFault indicates a block panicked while executing.
	ErrFault = errors.New("device: kernel fault")
)

// FaultError carries the block that faulted and the recovered value.
type FaultError struct {
	Block Dim2
	Value any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("device: fault in block (%d,%d): %v", e.Block.X, e.Block.Y, e.Value)
}

func (e *FaultError) Unwrap() error { return ErrFault }

// Dim2 is a 2D extent or index.
type Dim2 struct {
	X, Y int
}

func (d Dim2) Size() int { return d.X * d.Y }

// Thread identifies one worker within the launch hierarchy.
type Thread struct {
	BlockIdx  Dim2
	ThreadIdx Dim2
	BlockDim  Dim2
	GridDim   Dim2
}

func (t Thread) GlobalX() int { return t.BlockIdx.X*t.BlockDim.X + t.ThreadIdx.X }
func (t Thread) GlobalY() int { return t.BlockIdx.Y*t.BlockDim.Y + t.ThreadIdx.Y }

// Phase is one barrier-delimited step of a kernel. Every thread of a block
// finishes a phase before any thread of that block starts the next one. shared is
// the block's scratch buffer, LaunchConfig.Shared words long.
type Phase func(t Thread, shared []float64)

// LaunchConfig describes the shape of one launch.
type LaunchConfig struct {
	Grid   Dim2
	Block  Dim2
	Shared int
}

func (c LaunchConfig) String() string {
	return fmt.Sprintf("grid=%dx%d block=%dx%d shared=%d", c.Grid.X, c.Grid.Y, c.Block.X, c.Block.Y, c.Shared)
}

// Device schedules the blocks of a launch across a bounded set of goroutines.
// Blocks are handed out through an atomic counter; threads of a block run on the
// goroutine that owns the block.
type Device struct {
	workers    int
	maxThreads int
	maxShared  int
	scratch    *ScratchPool
	launches   atomic.Int64
}

type Option func(*Device)

func WithMaxThreadsPerBlock(n int) Option {
	return func(d *Device) { d.maxThreads = n }
}

func WithMaxSharedWords(n int) Option {
	return func(d *Device) { d.maxShared = n }
}

// New creates a device with the given number of workers. If workers <= 0,
// GOMAXPROCS is used.
func New(workers int, opts ...Option) *Device {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &Device{
		workers:    workers,
		maxThreads: DefaultMaxThreadsPerBlock,
		maxShared:  DefaultMaxSharedWords,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.scratch = NewScratchPool(d.maxShared)
	return d
}

func (d *Device) Name() string            { return "cpu" }
func (d *Device) Workers() int            { return d.workers }
func (d *Device) MaxSharedWords() int     { return d.maxShared }
func (d *Device) MaxThreadsPerBlock() int { return d.maxThreads }

// Launches is the number of launches that passed validation.
func (d *Device) Launches() int64 { return d.launches.Load() }

// Launch runs phases over every thread of every block in cfg and returns once
// all blocks have finished. The first block fault cancels the remaining blocks.
func (d *Device) Launch(ctx context.Context, cfg LaunchConfig, phases ...Phase) error {
	if err := d.validate(cfg, len(phases)); err != nil {
		return err
	}
	d.launches.Add(1)

	blocks := cfg.Grid.Size()
	workers := min(d.workers, blocks)

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			shared := d.scratch.Get(cfg.Shared)
			defer d.scratch.Put(shared)

			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				b := int(next.Add(1)) - 1
				if b >= blocks {
					return nil
				}
				if err := runBlock(cfg, b, shared, phases); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

func (d *Device) validate(cfg LaunchConfig, phases int) error {
	switch {
	case phases == 0:
		return fmt.Errorf("%w: no phases", ErrInvalidLaunch)
	case cfg.Grid.X <= 0 || cfg.Grid.Y <= 0:
		return fmt.Errorf("%w: %v", ErrInvalidLaunch, cfg)
	case cfg.Block.X <= 0 || cfg.Block.Y <= 0:
		return fmt.Errorf("%w: %v", ErrInvalidLaunch, cfg)
	case cfg.Block.Size() > d.maxThreads:
		return fmt.Errorf("%w: %d threads per block exceeds limit %d", ErrInvalidLaunch, cfg.Block.Size(), d.maxThreads)
	case cfg.Shared < 0 || cfg.Shared > d.maxShared:
		return fmt.Errorf("%w: %d shared words exceeds limit %d", ErrInvalidLaunch, cfg.Shared, d.maxShared)
	}
	return nil
}

func runBlock(cfg LaunchConfig, linear int, shared []float64, phases []Phase) (err error) {
	blockIdx := Dim2{X: linear % cfg.Grid.X, Y: linear / cfg.Grid.X}
	defer func() {
		if r := recover(); r != nil {
			err = &FaultError{Block: blockIdx, Value: r}
		}
	}()

	t := Thread{BlockIdx: blockIdx, BlockDim: cfg.Block, GridDim: cfg.Grid}
	for _, phase := range phases {
		for ty := 0; ty < cfg.Block.Y; ty++ {
			for tx := 0; tx < cfg.Block.X; tx++ {
				t.ThreadIdx = Dim2{X: tx, Y: ty}
				phase(t, shared)
			}
		}
	}
	return nil
}
