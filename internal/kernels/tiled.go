package kernels

import (
	"context"

	"github.com/san-kum/heatsim/internal/device"
	"github.com/san-kum/heatsim/internal/grid"
)

// HaloFill is stored in tile cells that fall outside the padded grid. Those cells
// only neighbour outputs that are never written.
const HaloFill = 0.0

// TiledKernel stages a halo-padded tile of the current field into block
// scratch memory and computes every output of the block from that tile alone.
// One thread per output point; the tile is (Block.X+order) x (Block.Y+order).
type TiledKernel struct {
	Block device.Dim2
}

func NewTiled(block device.Dim2) *TiledKernel {
	return &TiledKernel{Block: block}
}

func (k *TiledKernel) Name() string { return Tiled.String() }

// Tile is the scratch extent for order p.Order.
func (k *TiledKernel) Tile(p grid.Params) device.Dim2 {
	return device.Dim2{X: k.Block.X + int(p.Order), Y: k.Block.Y + int(p.Order)}
}

func (k *TiledKernel) Config(p grid.Params) device.LaunchConfig {
	return device.LaunchConfig{
		Grid:   device.Dim2{X: ceilDiv(p.NX, k.Block.X), Y: ceilDiv(p.NY, k.Block.Y)},
		Block:  k.Block,
		Shared: k.Tile(p).Size(),
	}
}

func (k *TiledKernel) Launch(ctx context.Context, dev *device.Device, cur, next []float64, p grid.Params) error {
	if err := checkBuffers(cur, next, p); err != nil {
		return err
	}
	op, opErr := p.Order.Operator()
	tile := k.Tile(p)
	b := p.Border()

	// The tile origin in padded coordinates equals the block's first output
	// point in interior coordinates, since the halo shifts both by b.
	load := func(t device.Thread, shared []float64) {
		ox, oy := t.BlockIdx.X*t.BlockDim.X, t.BlockIdx.Y*t.BlockDim.Y
		for ly := t.ThreadIdx.Y; ly < tile.Y; ly += t.BlockDim.Y {
			gy := oy + ly
			for lx := t.ThreadIdx.X; lx < tile.X; lx += t.BlockDim.X {
				gx := ox + lx
				v := HaloFill
				if gx < p.GX && gy < p.GY {
					v = cur[gy*p.GX+gx]
				}
				shared[ly*tile.X+lx] = v
			}
		}
	}

	compute := func(t device.Thread, shared []float64) {
		col, row := t.GlobalX(), t.GlobalY()
		if col >= p.NX || row >= p.NY {
			return
		}
		local := (t.ThreadIdx.Y+b)*tile.X + t.ThreadIdx.X + b
		next[p.Index(col, row)] = op(shared, local, tile.X, p.XCFL, p.YCFL)
	}

	err := dev.Launch(ctx, k.Config(p), load, compute)
	return finish(k.Name(), err, opErr)
}
