package grid

import (
	"errors"
	"fmt"

	"github.com/san-kum/heatsim/internal/stencil"
)

var (
	// ErrShape indicates a buffer whose length does not match the padded extents.
	ErrShape = errors.New("grid: buffer length does not match padded extents")

	// ErrExtent indicates non-positive interior extents.
	ErrExtent = errors.New("grid: interior extents must be positive")
)

// Params is the immutable configuration of one simulation run.
type Params struct {
	Order  stencil.Order
	NX, NY int
	GX, GY int
	XCFL   float64
	YCFL   float64
	Iters  int
}

// NewParams derives the padded extents from the interior extents and order.
func NewParams(order stencil.Order, nx, ny int, xcfl, ycfl float64, iters int) Params {
	return Params{
		Order: order,
		NX:    nx,
		NY:    ny,
		GX:    nx + int(order),
		GY:    ny + int(order),
		XCFL:  xcfl,
		YCFL:  ycfl,
		Iters: iters,
	}
}

// Border is the halo width on each side.
func (p Params) Border() int { return int(p.Order) / 2 }

// Len is the number of cells in one padded buffer.
func (p Params) Len() int { return p.GX * p.GY }

// Index is the linear offset of interior cell (col, row) in a padded buffer.
func (p Params) Index(col, row int) int {
	b := p.Border()
	return p.GX*(row+b) + col + b
}

// Padded reports whether the padding is consistent with the order.
func (p Params) Padded() bool {
	return p.GX-p.NX == int(p.Order) && p.GY-p.NY == int(p.Order)
}

func (p Params) String() string {
	return fmt.Sprintf("%dx%d %v cfl=(%g,%g) iters=%d", p.NX, p.NY, p.Order, p.XCFL, p.YCFL, p.Iters)
}

// Grid is a double-buffered, halo-padded field. The two buffers live in fixed
// slots and a single bit selects which one is current.
type Grid struct {
	params Params
	slots  [2][]float64
	cur    int
}

// New allocates a grid and copies the initial field into both slots so the halo
// of either buffer is defined before the first boundary update.
func New(p Params, initial []float64) (*Grid, error) {
	if p.NX <= 0 || p.NY <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrExtent, p.NX, p.NY)
	}
	if len(initial) != p.Len() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrShape, len(initial), p.Len())
	}

	g := &Grid{params: p}
	for i := range g.slots {
		g.slots[i] = make([]float64, p.Len())
		copy(g.slots[i], initial)
	}
	return g, nil
}

func (g *Grid) Params() Params { return g.params }

// Current holds the most recently completed timestep.
func (g *Grid) Current() []float64 { return g.slots[g.cur] }

// Next is the buffer the following timestep is written into.
func (g *Grid) Next() []float64 { return g.slots[1-g.cur] }

// Swap exchanges the roles of the two buffers without copying cells.
func (g *Grid) Swap() { g.cur = 1 - g.cur }

// Slot reports which slot is current.
func (g *Grid) Slot() int { return g.cur }

// At returns the current value of interior cell (col, row).
func (g *Grid) At(col, row int) float64 {
	return g.Current()[g.params.Index(col, row)]
}

// Set writes interior cell (col, row) of the current buffer.
func (g *Grid) Set(col, row int, v float64) {
	g.Current()[g.params.Index(col, row)] = v
}

// Interior copies the interior of the current buffer row by row.
func (g *Grid) Interior() [][]float64 {
	out := make([][]float64, g.params.NY)
	cur := g.Current()
	for row := range out {
		start := g.params.Index(0, row)
		out[row] = make([]float64, g.params.NX)
		copy(out[row], cur[start:start+g.params.NX])
	}
	return out
}

// Clone returns an independent copy with the same slot assignment.
func (g *Grid) Clone() *Grid {
	c := &Grid{params: g.params, cur: g.cur}
	for i := range g.slots {
		c.slots[i] = make([]float64, len(g.slots[i]))
		copy(c.slots[i], g.slots[i])
	}
	return c
}

// Release drops both buffers. The grid must not be used afterwards.
func (g *Grid) Release() {
	g.slots[0], g.slots[1] = nil, nil
}
