package kernels

import (
	"context"

	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
)

// RowBlockedKernel gives each thread RowsPerThread consecutive rows of one
// column. Block is the thread shape; a block covers Block.Y*RowsPerThread rows.
type RowBlockedKernel struct {
	Block         device.Dim2
	RowsPerThread int
}

func NewRowBlocked(block device.Dim2, rowsPerThread int) *RowBlockedKernel {
	if rowsPerThread <= 0 {
		rowsPerThread = DefaultRowsPerThread
	}
	return &RowBlockedKernel{Block: block, RowsPerThread: rowsPerThread}
}

func (k *RowBlockedKernel) Name() string { return RowBlocked.String() }

func (k *RowBlockedKernel) Config(p grid.Params) device.LaunchConfig {
	return device.LaunchConfig{
		Grid: device.Dim2{
			X: ceilDiv(p.NX, k.Block.X),
			Y: ceilDiv(p.NY, k.Block.Y*k.RowsPerThread),
		},
		Block: k.Block,
	}
}

func (k *RowBlockedKernel) Launch(ctx context.Context, dev *device.Device, cur, next []float64, p grid.Params) error {
	if err := checkBuffers(cur, next, p); err != nil {
		return err
	}
	op, opErr := p.Order.Operator()
	rows := k.RowsPerThread

	err := dev.Launch(ctx, k.Config(p), func(t device.Thread, _ []float64) {
		col := t.GlobalX()
		if col >= p.NX {
			return
		}
		base := t.GlobalY() * rows
		for j := 0; j < rows; j++ {
			row := base + j
			if row >= p.NY {
				return
			}
			idx := p.Index(col, row)
			next[idx] = op(cur, idx, p.GX, p.XCFL, p.YCFL)
		}
	})
	return finish(k.Name(), err, opErr)
}
