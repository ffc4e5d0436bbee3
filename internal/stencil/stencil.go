package stencil

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// ErrUnsupportedOrder is returned when a stencil order outside {2, 4, 8} is requested.
var ErrUnsupportedOrder = errors.New("stencil: unsupported order")

// Order is the number of neighbour points used per axis.
type Order int

const (
	Order2 Order = 2
	Order4 Order = 4
	Order8 Order = 8
)

// Orders lists every supported order.
var Orders = []Order{Order2, Order4, Order8}

// Operator computes the next-timestep value of the cell at buf[idx]. stride is the
// row stride of buf, which lets the same operator run on the padded global grid and
// on a tile scratch buffer.
type Operator func(buf []float64, idx, stride int, xcfl, ycfl float64) float64

var (
	weights4 = [5]float64{-1, 16, -30, 16, -1}
	weights8 = [9]float64{-9, 128, -1008, 8064, -14350, 8064, -1008, 128, -9}
)

func (o Order) Valid() bool {
	switch o {
	case Order2, Order4, Order8:
		return true
	}
	return false
}

// Border is the halo width needed on each side.
func (o Order) Border() int { return int(o) / 2 }

func (o Order) String() string { return fmt.Sprintf("order%d", int(o)) }

// Normalization is the divisor folded into the Courant numbers for this order.
func (o Order) Normalization() float64 {
	switch o {
	case Order2:
		return 1
	case Order4:
		return 12
	case Order8:
		return 5040
	}
	return math.NaN()
}

// Weights returns a copy of the per-axis weights, west to east.
func (o Order) Weights() []float64 {
	switch o {
	case Order2:
		return []float64{1, -2, 1}
	case Order4:
		w := weights4
		return w[:]
	case Order8:
		w := weights8
		return w[:]
	}
	return nil
}

// Operator returns the specialised operator for o. Unsupported orders get an
// operator that yields NaN for every cell together with ErrUnsupportedOrder.
func (o Order) Operator() (Operator, error) {
	switch o {
	case Order2:
		return apply2, nil
	case Order4:
		return apply4, nil
	case Order8:
		return apply8, nil
	}
	slog.Error("unsupported stencil order", "order", int(o))
	return applyNaN, fmt.Errorf("%w: %d", ErrUnsupportedOrder, int(o))
}

// Apply evaluates the stencil of the given order at a single point.
func Apply(o Order, buf []float64, idx, stride int, xcfl, ycfl float64) float64 {
	switch o {
	case Order2:
		return apply2(buf, idx, stride, xcfl, ycfl)
	case Order4:
		return apply4(buf, idx, stride, xcfl, ycfl)
	case Order8:
		return apply8(buf, idx, stride, xcfl, ycfl)
	}
	slog.Error("unsupported stencil order", "order", int(o))
	return math.NaN()
}

func apply2(buf []float64, idx, stride int, xcfl, ycfl float64) float64 {
	c := buf[idx]
	return c +
		xcfl*(buf[idx-1]+buf[idx+1]-2*c) +
		ycfl*(buf[idx-stride]+buf[idx+stride]-2*c)
}

func apply4(buf []float64, idx, stride int, xcfl, ycfl float64) float64 {
	c := buf[idx]
	sx := weights4[0]*buf[idx-2] + weights4[1]*buf[idx-1] + weights4[2]*c +
		weights4[3]*buf[idx+1] + weights4[4]*buf[idx+2]
	sy := weights4[0]*buf[idx-2*stride] + weights4[1]*buf[idx-stride] + weights4[2]*c +
		weights4[3]*buf[idx+stride] + weights4[4]*buf[idx+2*stride]
	return c + xcfl*sx + ycfl*sy
}

func apply8(buf []float64, idx, stride int, xcfl, ycfl float64) float64 {
	c := buf[idx]

	// symmetric pairs, outermost first
	sx := weights8[4] * c
	for k := 1; k <= 4; k++ {
		sx += weights8[4-k] * (buf[idx-k] + buf[idx+k])
	}
	sy := weights8[4] * c
	for k := 1; k <= 4; k++ {
		sy += weights8[4-k] * (buf[idx-k*stride] + buf[idx+k*stride])
	}
	return c + xcfl*sx + ycfl*sy
}

func applyNaN(_ []float64, _, _ int, _, _ float64) float64 {
	return math.NaN()
}
