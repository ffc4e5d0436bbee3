package viz

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/sim"
	"github.com/san-kum/heatsim/internal/stencil"
	"github.com/san-kum/heatsim/internal/storage"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b int
	}{
		{"#00ffff", 0, 255, 255},
		{"#102030", 16, 32, 48},
		{"red", 255, 255, 255},
		{"#zzzzzz", 255, 255, 255},
	}
	for _, tt := range tests {
		r, g, b := parseHex(tt.in)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("parseHex(%q) = %d,%d,%d; want %d,%d,%d", tt.in, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestGradientText(t *testing.T) {
	if GradientText("", "#000000", "#ffffff") != "" {
		t.Error("expected empty output for empty text")
	}
	if out := GradientText("heat", "#ff0000", "#0000ff"); !strings.Contains(out, "h") || !strings.Contains(out, "t") {
		t.Errorf("gradient lost characters: %q", out)
	}
}

func TestProgressBarClamps(t *testing.T) {
	for _, pct := range []float64{-1, 0, 0.5, 1, 3} {
		bar := ProgressBar(pct, 10)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("ProgressBar(%v) has %d cells, want 10", pct, n)
		}
	}
}

func TestSparklineKeepsLatest(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	out := SparklineChart(values, 20)
	if n := len([]rune(stripANSI(out))); n != 20 {
		t.Errorf("sparkline width = %d, want 20", n)
	}
	if SparklineChart(nil, 5) != "─────" {
		t.Error("expected flat line for no data")
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && r == 'm':
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func TestPlots(t *testing.T) {
	timings := []time.Duration{time.Millisecond, 2 * time.Millisecond, 1500 * time.Microsecond}
	if out := PlotTimings(timings, 30, 5); !strings.Contains(out, "step time") {
		t.Errorf("missing caption in %q", out)
	}
	if out := PlotTimings(nil, 30, 5); !strings.Contains(out, "no timings") {
		t.Errorf("unexpected empty plot %q", out)
	}
	if out := PlotSeries([]float64{4}, "single", 30, 5); !strings.Contains(out, "single") {
		t.Errorf("single value plot failed: %q", out)
	}
	out := PlotCompare(map[string][]float64{"naive": {1, 2, 3}, "tiled": {1, 1, 2}}, "steps", 30, 5)
	if !strings.Contains(out, "naive") || !strings.Contains(out, "tiled") {
		t.Errorf("legend missing from %q", out)
	}

	got := Micros(timings)
	if got[0] != 1000 || got[2] != 1500 {
		t.Errorf("Micros = %v", got)
	}
}

func TestRunTable(t *testing.T) {
	runs := []storage.RunMetadata{
		{ID: "naive_o2_1", Variant: "naive", Order: 2, NX: 64, NY: 32, Iterations: 10, StepsPerSecond: 12.5},
	}
	out := RunTable(runs)
	for _, want := range []string{"naive_o2_1", "64x32", "12.5", "VARIANT"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestReport(t *testing.T) {
	res := &sim.Result{
		Iterations: 2,
		Elapsed:    time.Millisecond,
		StepTimes:  []time.Duration{400 * time.Microsecond, 600 * time.Microsecond},
		Metrics:    map[string]float64{"peak": 1, "heat": 3},
	}
	out := Report("run", res)
	for _, want := range []string{"iterations", "steps/s", "heat", "peak", "500µs"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestTimingSummary(t *testing.T) {
	steps := make([]time.Duration, 32)
	for i := range steps {
		us := 500 + 400*math.Sin(2*math.Pi*float64(i)/8)
		steps[i] = time.Duration(us * float64(time.Microsecond))
	}
	out := TimingSummary(steps)
	for _, want := range []string{"samples", "32", "p95", "jitter", "stall period", "8.0 iterations"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestUnbufferedFeedFinishes(t *testing.T) {
	feed := NewFeed(0)
	finished := make(chan struct{})
	go func() {
		feed.Finish(nil, errors.New("boom"))
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Finish blocked on an unbuffered feed")
	}
	msg, ok := (<-feed.ch).(DoneMsg)
	if !ok || msg.Err == nil {
		t.Errorf("expected DoneMsg with error, got %#v", msg)
	}
}

func TestSeparator(t *testing.T) {
	out := Separator(20)
	if !strings.Contains(out, "◆") || strings.Count(out, "─") != 14 {
		t.Errorf("separator = %q", out)
	}
}

func TestFeedDropsAndFinishes(t *testing.T) {
	feed := NewFeed(2)
	p := grid.NewParams(stencil.Order2, 2, 2, 0, 0, 1)
	g, err := grid.New(p, grid.Constant(1)(p))
	if err != nil {
		t.Fatal(err)
	}

	obs := feed.Observer()
	for i := 0; i < 5; i++ {
		obs.OnStep(i, g, time.Microsecond)
	}
	feed.Finish(&sim.Result{Iterations: 5}, nil)

	var msgs []tea.Msg
	for msg := range feed.ch {
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		t.Fatal("expected messages")
	}
	first, ok := msgs[0].(StepMsg)
	if !ok || first.Heat != 4 {
		t.Errorf("first message = %#v, want heat 4", msgs[0])
	}
	if _, ok := msgs[len(msgs)-1].(DoneMsg); !ok {
		t.Errorf("last message = %#v, want DoneMsg", msgs[len(msgs)-1])
	}
}

func TestMonitorUpdate(t *testing.T) {
	canceled := false
	m := NewMonitor("order2 naive", 3, NewFeed(1), func() { canceled = true })

	var model tea.Model = m
	for i := 0; i < 3; i++ {
		model, _ = model.Update(StepMsg{Iter: i, Step: time.Duration(i+1) * time.Microsecond, Heat: 1})
	}
	if !strings.Contains(model.View(), "RUNNING") {
		t.Error("expected running status")
	}

	model, _ = model.Update(DoneMsg{Result: &sim.Result{Iterations: 3, Elapsed: time.Millisecond}})
	view := model.View()
	if !strings.Contains(view, "DONE") || !strings.Contains(view, "3/3") {
		t.Errorf("unexpected view:\n%s", view)
	}
	res, done, err := model.(Monitor).Outcome()
	if !done || err != nil || res.Iterations != 3 {
		t.Errorf("outcome = %v, %v, %v", res, done, err)
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("expected quit command")
	}
	if canceled {
		t.Error("cancel called after the run finished")
	}
}

func TestMonitorCancel(t *testing.T) {
	canceled := false
	var model tea.Model = NewMonitor("run", 10, NewFeed(1), func() { canceled = true })

	model, _ = model.Update(DoneMsg{Err: errors.New("boom")})
	if !strings.Contains(model.View(), "FAILED") {
		t.Error("expected failed status")
	}

	model = NewMonitor("run", 10, NewFeed(1), func() { canceled = true })
	model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !canceled {
		t.Error("expected cancel on ctrl+c")
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme("thermal")

	SetTheme("ocean")
	if CurrentTheme.Name != "ocean" {
		t.Errorf("expected ocean, got %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != "minimal" {
		t.Errorf("expected minimal, got %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != "thermal" {
		t.Errorf("expected wrap to thermal, got %s", CurrentTheme.Name)
	}
	if GetTheme("unknown").Name != "thermal" {
		t.Error("unknown theme should fall back to thermal")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}
