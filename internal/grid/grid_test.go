package grid

import (
	"errors"
	"testing"

	"github.com/san-kum/heatsim/internal/stencil"
)

func TestNewParams(t *testing.T) {
	tests := []struct {
		order  stencil.Order
		nx, ny int
		gx, gy int
	}{
		{stencil.Order2, 64, 64, 66, 66},
		{stencil.Order4, 10, 20, 14, 24},
		{stencil.Order8, 5, 3, 13, 11},
	}

	for _, tt := range tests {
		p := NewParams(tt.order, tt.nx, tt.ny, 0.1, 0.1, 1)
		if p.GX != tt.gx || p.GY != tt.gy {
			t.Errorf("%v %dx%d: got padded %dx%d, want %dx%d", tt.order, tt.nx, tt.ny, p.GX, p.GY, tt.gx, tt.gy)
		}
		if !p.Padded() {
			t.Errorf("%v: padding reported inconsistent", tt.order)
		}
	}
}

func TestIndex(t *testing.T) {
	p := NewParams(stencil.Order4, 8, 6, 0, 0, 0)
	if got := p.Index(0, 0); got != 12*2+2 {
		t.Errorf("Index(0,0) = %d, want %d", got, 26)
	}
	if got := p.Index(7, 5); got != 12*7+9 {
		t.Errorf("Index(7,5) = %d, want %d", got, 12*7+9)
	}
}

func TestNewRejectsBadShape(t *testing.T) {
	p := NewParams(stencil.Order2, 4, 4, 0, 0, 0)

	if _, err := New(p, make([]float64, 10)); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}

	bad := NewParams(stencil.Order2, 0, 4, 0, 0, 0)
	if _, err := New(bad, make([]float64, bad.Len())); !errors.Is(err, ErrExtent) {
		t.Errorf("expected ErrExtent, got %v", err)
	}
}

func TestNewCopiesIntoBothSlots(t *testing.T) {
	p := NewParams(stencil.Order2, 4, 4, 0, 0, 0)
	init := Constant(2)(p)

	g, err := New(p, init)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	init[0] = 99
	for _, buf := range [][]float64{g.Current(), g.Next()} {
		if buf[0] != 2 {
			t.Errorf("slot not independent of initial field: got %v", buf[0])
		}
	}
}

func TestSwapIsItsOwnInverse(t *testing.T) {
	p := NewParams(stencil.Order2, 4, 4, 0, 0, 0)
	g, err := New(p, make([]float64, p.Len()))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	cur, next := &g.Current()[0], &g.Next()[0]

	g.Swap()
	if &g.Current()[0] != next || &g.Next()[0] != cur {
		t.Fatal("swap did not exchange buffer roles")
	}

	g.Swap()
	if &g.Current()[0] != cur || &g.Next()[0] != next {
		t.Error("double swap did not restore buffer identity")
	}
	if g.Slot() != 0 {
		t.Errorf("expected slot 0 after two swaps, got %d", g.Slot())
	}
}

func TestAtSetInterior(t *testing.T) {
	p := NewParams(stencil.Order8, 3, 2, 0, 0, 0)
	g, _ := New(p, make([]float64, p.Len()))

	g.Set(2, 1, 5)
	if g.At(2, 1) != 5 {
		t.Errorf("At(2,1) = %v, want 5", g.At(2, 1))
	}

	in := g.Interior()
	if len(in) != 2 || len(in[0]) != 3 {
		t.Fatalf("interior shape %dx%d, want 2x3", len(in), len(in[0]))
	}
	if in[1][2] != 5 {
		t.Errorf("interior[1][2] = %v, want 5", in[1][2])
	}
}

func TestClone(t *testing.T) {
	p := NewParams(stencil.Order2, 4, 4, 0, 0, 0)
	g, _ := New(p, Constant(1)(p))
	g.Swap()

	c := g.Clone()
	c.Set(0, 0, 7)
	if g.At(0, 0) != 1 {
		t.Error("clone shares storage with original")
	}
	if c.Slot() != g.Slot() {
		t.Error("clone lost slot assignment")
	}
}

func TestFields(t *testing.T) {
	p := NewParams(stencil.Order2, 5, 5, 0, 0, 0)

	imp := Impulse(2, 3, 1)(p)
	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	if sum != 1 || imp[p.Index(2, 3)] != 1 {
		t.Errorf("impulse misplaced: sum=%v", sum)
	}

	ramp := RampX(1, 2)(p)
	if ramp[p.Index(3, 0)] != 7 || ramp[p.Index(3, 4)] != 7 {
		t.Error("RampX not constant along a column")
	}
	// halo continues the ramp
	if ramp[p.Index(0, 0)-1] != -1 {
		t.Errorf("RampX halo: got %v, want -1", ramp[p.Index(0, 0)-1])
	}

	a := Random(7, 1)(p)
	b := Random(7, 1)(p)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("Random is not reproducible for a fixed seed")
		}
	}

	gauss := Gaussian(2, 2, 1, 3)(p)
	if gauss[p.Index(2, 2)] != 3 {
		t.Errorf("gaussian peak: got %v, want 3", gauss[p.Index(2, 2)])
	}
}
