package grid

import (
	"math"
	"math/rand"
)

// Field builds an initial padded buffer for p. Halo cells are included; the
// boundary collaborator overwrites them before the first kernel runs.
type Field func(p Params) []float64

// fill evaluates f at every padded cell. Coordinates are interior coordinates, so
// halo cells see negative or out-of-range col/row values.
func fill(p Params, f func(col, row int) float64) []float64 {
	buf := make([]float64, p.Len())
	b := p.Border()
	for y := 0; y < p.GY; y++ {
		for x := 0; x < p.GX; x++ {
			buf[y*p.GX+x] = f(x-b, y-b)
		}
	}
	return buf
}

func Constant(v float64) Field {
	return func(p Params) []float64 {
		return fill(p, func(int, int) float64 { return v })
	}
}

// Impulse sets a single interior cell to v and everything else to zero.
func Impulse(col, row int, v float64) Field {
	return func(p Params) []float64 {
		buf := make([]float64, p.Len())
		if col >= 0 && col < p.NX && row >= 0 && row < p.NY {
			buf[p.Index(col, row)] = v
		}
		return buf
	}
}

// RampX is linear in the column index and constant along rows.
func RampX(offset, slope float64) Field {
	return func(p Params) []float64 {
		return fill(p, func(col, _ int) float64 { return offset + slope*float64(col) })
	}
}

// RampY is linear in the row index and constant along columns.
func RampY(offset, slope float64) Field {
	return func(p Params) []float64 {
		return fill(p, func(_, row int) float64 { return offset + slope*float64(row) })
	}
}

// Gaussian is a hot spot of the given amplitude centred on (cx, cy).
func Gaussian(cx, cy, sigma, amplitude float64) Field {
	return func(p Params) []float64 {
		s2 := 2 * sigma * sigma
		return fill(p, func(col, row int) float64 {
			dx, dy := float64(col)-cx, float64(row)-cy
			return amplitude * math.Exp(-(dx*dx+dy*dy)/s2)
		})
	}
}

// Random draws every cell uniformly from [0, amplitude) using a seeded source.
func Random(seed int64, amplitude float64) Field {
	return func(p Params) []float64 {
		r := rand.New(rand.NewSource(seed))
		return fill(p, func(int, int) float64 { return amplitude * r.Float64() })
	}
}
