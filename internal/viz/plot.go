package viz

import (
	"fmt"
	"sort"
	"time"

	"github.com/guptarohit/asciigraph"
)

const (
	DefaultPlotWidth  = 60
	DefaultPlotHeight = 10
)

// Micros converts step times to microseconds for plotting.
func Micros(timings []time.Duration) []float64 {
	out := make([]float64, len(timings))
	for i, d := range timings {
		out[i] = float64(d.Nanoseconds()) / 1e3
	}
	return out
}

// PlotTimings charts per-iteration step times in microseconds.
func PlotTimings(timings []time.Duration, width, height int) string {
	if len(timings) == 0 {
		return Subtle.Render("(no timings)")
	}
	return PlotSeries(Micros(timings), "step time (µs) per iteration", width, height)
}

func PlotSeries(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return Subtle.Render("(no data)")
	}
	if len(values) == 1 {
		values = []float64{values[0], values[0]}
	}
	return asciigraph.Plot(values,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
		asciigraph.Precision(1),
	)
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Cyan,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Magenta,
	asciigraph.Blue,
}

// PlotCompare overlays named series on one chart, colored in name order.
func PlotCompare(series map[string][]float64, caption string, width, height int) string {
	names := make([]string, 0, len(series))
	for name, values := range series {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return Subtle.Render("(no data)")
	}
	sort.Strings(names)

	data := make([][]float64, len(names))
	colors := make([]asciigraph.AnsiColor, len(names))
	legend := ""
	for i, name := range names {
		data[i] = series[name]
		colors[i] = seriesColors[i%len(seriesColors)]
		legend += fmt.Sprintf(" %s", name)
	}

	return asciigraph.PlotMany(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption+" ·"+legend),
		asciigraph.Precision(1),
	)
}
