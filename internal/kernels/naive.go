package kernels

import (
	"context"

	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
)

// NaiveKernel assigns one thread per interior point and reads the global
// buffer directly.
type NaiveKernel struct {
	Block device.Dim2
}

func NewNaive(block device.Dim2) *NaiveKernel {
	return &NaiveKernel{Block: block}
}

func (k *NaiveKernel) Name() string { return Naive.String() }

func (k *NaiveKernel) Config(p grid.Params) device.LaunchConfig {
	return device.LaunchConfig{
		Grid:  device.Dim2{X: ceilDiv(p.NX, k.Block.X), Y: ceilDiv(p.NY, k.Block.Y)},
		Block: k.Block,
	}
}

func (k *NaiveKernel) Launch(ctx context.Context, dev *device.Device, cur, next []float64, p grid.Params) error {
	if err := checkBuffers(cur, next, p); err != nil {
		return err
	}
	op, opErr := p.Order.Operator()

	err := dev.Launch(ctx, k.Config(p), func(t device.Thread, _ []float64) {
		col, row := t.GlobalX(), t.GlobalY()
		if col < p.NX && row < p.NY {
			idx := p.Index(col, row)
			next[idx] = op(cur, idx, p.GX, p.XCFL, p.YCFL)
		}
	})
	return finish(k.Name(), err, opErr)
}
