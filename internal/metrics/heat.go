package metrics

import (
	"math"

	"github.com/san-kum/heatsim/internal/grid"
)

// forEachInterior calls fn with every interior value of a padded field.
func forEachInterior(field []float64, p grid.Params, fn func(v float64)) {
	for row := 0; row < p.NY; row++ {
		start := p.Index(0, row)
		for _, v := range field[start : start+p.NX] {
			fn(v)
		}
	}
}

// HeatContent tracks the interior sum of the field.
type HeatContent struct {
	name    string
	current float64
}

func NewHeatContent() *HeatContent {
	return &HeatContent{name: "heat"}
}

func (h *HeatContent) Name() string { return h.name }

func (h *HeatContent) Observe(field []float64, p grid.Params, iter int) {
	sum := 0.0
	forEachInterior(field, p, func(v float64) { sum += v })
	h.current = sum
}

// Value is the interior sum at the last observation.
func (h *HeatContent) Value() float64 { return h.current }

func (h *HeatContent) Reset() { h.current = 0 }

// HeatDrift is the relative change of interior heat since the first observation.
type HeatDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewHeatDrift() *HeatDrift {
	return &HeatDrift{name: "heat_drift"}
}

func (h *HeatDrift) Name() string { return h.name }

func (h *HeatDrift) Observe(field []float64, p grid.Params, iter int) {
	sum := 0.0
	forEachInterior(field, p, func(v float64) { sum += v })

	if h.samples == 0 {
		h.initial = sum
	}
	h.samples++

	if h.initial != 0 {
		drift := math.Abs(sum-h.initial) / math.Abs(h.initial)
		h.maxDrift = math.Max(h.maxDrift, drift)
	}
}

func (h *HeatDrift) Value() float64 { return h.maxDrift }

func (h *HeatDrift) Reset() {
	h.initial = 0
	h.maxDrift = 0
	h.samples = 0
}

// Peak is the largest interior magnitude seen.
type Peak struct {
	name string
	max  float64
}

func NewPeak() *Peak {
	return &Peak{name: "peak"}
}

func (m *Peak) Name() string { return m.name }

func (m *Peak) Observe(field []float64, p grid.Params, iter int) {
	forEachInterior(field, p, func(v float64) {
		if a := math.Abs(v); a > m.max {
			m.max = a
		}
	})
}

func (m *Peak) Value() float64 { return m.max }

func (m *Peak) Reset() { m.max = 0 }
