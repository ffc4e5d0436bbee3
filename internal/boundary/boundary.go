package boundary

import (
	"errors"
	"fmt"

	"github.com/san-kum/heatsim/internal/grid"
)

// ErrBufferSize indicates a dst or src buffer that does not match the padded extents.
var ErrBufferSize = errors.New("boundary: buffer size mismatch")

// Condition keeps the halo of both buffers valid.
type Condition interface {
	Name() string
	// Update writes every halo cell of dst and of src from the interior of src.
	// The kernel that runs next reads src, so its halo must already match the
	// field it holds. Interior cells of either buffer are left untouched.
	Update(dst, src []float64, p grid.Params) error
}

func checkSize(dst, src []float64, p grid.Params) error {
	if len(dst) != p.Len() || len(src) != p.Len() {
		return fmt.Errorf("%w: dst=%d src=%d want=%d", ErrBufferSize, len(dst), len(src), p.Len())
	}
	return nil
}

// forEachHalo calls fn with the padded coordinates of every halo cell.
func forEachHalo(p grid.Params, fn func(x, y int)) {
	b := p.Border()
	for y := 0; y < p.GY; y++ {
		if y < b || y >= p.NY+b {
			for x := 0; x < p.GX; x++ {
				fn(x, y)
			}
			continue
		}
		for x := 0; x < b; x++ {
			fn(x, y)
		}
		for x := p.NX + b; x < p.GX; x++ {
			fn(x, y)
		}
	}
}

// fillHalo stores value(x, y) in the halo cell (x, y) of both buffers. value
// must only read interior cells.
func fillHalo(dst, src []float64, p grid.Params, value func(x, y int) float64) {
	forEachHalo(p, func(x, y int) {
		v := value(x, y)
		dst[y*p.GX+x] = v
		src[y*p.GX+x] = v
	})
}

// Dirichlet holds each edge at a fixed value. Corner cells take the top or
// bottom value.
type Dirichlet struct {
	Top, Bottom, Left, Right float64
}

// Fixed holds every edge at v.
func Fixed(v float64) *Dirichlet {
	return &Dirichlet{Top: v, Bottom: v, Left: v, Right: v}
}

func (d *Dirichlet) Name() string { return "dirichlet" }

func (d *Dirichlet) Update(dst, src []float64, p grid.Params) error {
	if err := checkSize(dst, src, p); err != nil {
		return err
	}
	b := p.Border()
	fillHalo(dst, src, p, func(x, y int) float64 {
		switch {
		case y < b:
			return d.Top
		case y >= p.NY+b:
			return d.Bottom
		case x < b:
			return d.Left
		}
		return d.Right
	})
	return nil
}

// Neumann is a zero-flux edge: halo cells mirror the interior across the edge.
type Neumann struct{}

func (Neumann) Name() string { return "neumann" }

func (Neumann) Update(dst, src []float64, p grid.Params) error {
	if err := checkSize(dst, src, p); err != nil {
		return err
	}
	b := p.Border()
	fillHalo(dst, src, p, func(x, y int) float64 {
		mx := mirror(x-b, p.NX) + b
		my := mirror(y-b, p.NY) + b
		return src[my*p.GX+mx]
	})
	return nil
}

// Periodic wraps the field so that opposite edges are neighbours.
type Periodic struct{}

func (Periodic) Name() string { return "periodic" }

func (Periodic) Update(dst, src []float64, p grid.Params) error {
	if err := checkSize(dst, src, p); err != nil {
		return err
	}
	b := p.Border()
	fillHalo(dst, src, p, func(x, y int) float64 {
		wx := wrap(x-b, p.NX) + b
		wy := wrap(y-b, p.NY) + b
		return src[wy*p.GX+wx]
	})
	return nil
}

// mirror reflects interior coordinate k into [0, n). Reflections wider than the
// interior clamp to the far edge.
func mirror(k, n int) int {
	if k < 0 {
		k = -1 - k
	}
	if k >= n {
		k = 2*n - 1 - k
	}
	if k < 0 {
		return 0
	}
	if k >= n {
		return n - 1
	}
	return k
}

func wrap(k, n int) int {
	k %= n
	if k < 0 {
		k += n
	}
	return k
}
