package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/heatsim/internal/analysis"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/san-kum/heatsim/internal/storage"
)

// Report renders a finished run as a titled panel.
func Report(title string, result *sim.Result) string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(title) + "\n")
	s.WriteString(KV("iterations", fmt.Sprintf("%d", result.Iterations)) + "\n")
	s.WriteString(KV("elapsed", result.Elapsed.Round(time.Microsecond).String()) + "\n")
	s.WriteString(KV("steps/s", fmt.Sprintf("%.1f", result.StepsPerSecond())) + "\n")
	if len(result.StepTimes) > 0 {
		sum := analysis.Summarize(result.StepTimes)
		s.WriteString(KV("mean step", sum.Mean.Round(time.Nanosecond).String()) + "\n")
		s.WriteString(KV("p95 step", sum.P95.String()) + "\n")
		s.WriteString(KV("jitter", fmt.Sprintf("%.1f%%", 100*sum.Jitter())) + "\n")
	}

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.WriteString(KV(name, fmt.Sprintf("%.6g", result.Metrics[name])) + "\n")
	}

	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

// TimingSummary renders the step time distribution of a stored run.
func TimingSummary(steps []time.Duration) string {
	sum := analysis.Summarize(steps)
	lines := []string{
		KV("samples", fmt.Sprintf("%d", sum.Count)),
		KV("min / p50", fmt.Sprintf("%s / %s", sum.Min, sum.P50)),
		KV("p95 / max", fmt.Sprintf("%s / %s", sum.P95, sum.Max)),
		KV("jitter", fmt.Sprintf("%.1f%%", 100*sum.Jitter())),
	}
	if period := analysis.DominantPeriod(Micros(steps)); period > 0 {
		lines = append(lines, KV("stall period", fmt.Sprintf("%.1f iterations", period)))
	}
	return strings.Join(lines, "\n")
}

// RunTable lists stored runs, one row each.
func RunTable(runs []storage.RunMetadata) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.Variant,
			fmt.Sprintf("%d", r.Order),
			fmt.Sprintf("%dx%d", r.NX, r.NY),
			fmt.Sprintf("%d", r.Iterations),
			fmt.Sprintf("%.1f", r.StepsPerSecond),
			r.Timestamp.Format("2006-01-02 15:04:05"),
		})
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))).
		Headers("ID", "VARIANT", "ORDER", "GRID", "ITERS", "STEPS/S", "TIME").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	return t.String()
}

// VariantTable summarizes one comparison row per variant.
func VariantTable(names []string, results []*sim.Result, diffs []float64) string {
	rows := make([][]string, 0, len(names))
	for i, name := range names {
		row := []string{name, "-", "-", fmt.Sprintf("%.3g", diffs[i])}
		if results[i] != nil {
			row[1] = fmt.Sprintf("%.1f", results[i].StepsPerSecond())
			if len(results[i].StepTimes) > 0 {
				row[2] = analysis.Summarize(results[i].StepTimes).Mean.Round(time.Nanosecond).String()
			}
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))).
		Headers("VARIANT", "STEPS/S", "MEAN STEP", "MAX DIFF").
		Rows(rows...)
	return t.String()
}
