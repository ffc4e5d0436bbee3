package metrics

import (
	"math"

	"github.com/san-kum/heatsim/internal/grid"
)

// Stability is the fraction of observed iterations whose interior stayed finite
// and within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(field []float64, p grid.Params, iter int) {
	s.samples++
	bad := false
	forEachInterior(field, p, func(v float64) {
		if math.IsNaN(v) || math.Abs(v) > s.threshold {
			bad = true
		}
	})
	if bad {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
