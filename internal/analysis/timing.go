package analysis

import (
	"math"
	"sort"
	"time"
)

// Summary describes the distribution of step times of one run.
type Summary struct {
	Count  int
	Mean   time.Duration
	StdDev time.Duration
	Min    time.Duration
	P50    time.Duration
	P95    time.Duration
	Max    time.Duration
}

func Summarize(steps []time.Duration) Summary {
	if len(steps) == 0 {
		return Summary{}
	}

	sorted := make([]time.Duration, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total float64
	for _, d := range steps {
		total += float64(d)
	}
	mean := total / float64(len(steps))

	var sq float64
	for _, d := range steps {
		diff := float64(d) - mean
		sq += diff * diff
	}

	return Summary{
		Count:  len(steps),
		Mean:   time.Duration(mean),
		StdDev: time.Duration(math.Sqrt(sq / float64(len(steps)))),
		Min:    sorted[0],
		P50:    percentile(sorted, 0.50),
		P95:    percentile(sorted, 0.95),
		Max:    sorted[len(sorted)-1],
	}
}

// percentile uses the nearest-rank method on sorted input.
func percentile(sorted []time.Duration, q float64) time.Duration {
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	rank = max(0, min(len(sorted)-1, rank))
	return sorted[rank]
}

// Jitter is the coefficient of variation of the step times.
func (s Summary) Jitter() float64 {
	if s.Mean == 0 {
		return 0
	}
	return float64(s.StdDev) / float64(s.Mean)
}
