package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/sim"
)

const historyCapacity = 600

// StepMsg reports one completed iteration.
type StepMsg struct {
	Iter int
	Step time.Duration
	Heat float64
}

// DoneMsg ends the feed with the driver's outcome.
type DoneMsg struct {
	Result *sim.Result
	Err    error
}

// Feed carries driver progress to a Monitor. Step messages are dropped when
// the UI falls behind; the final DoneMsg is always delivered.
type Feed struct {
	ch chan tea.Msg
}

// NewFeed buffers up to buffer step messages. Finish needs room for one
// message, so the buffer is at least 1.
func NewFeed(buffer int) *Feed {
	return &Feed{ch: make(chan tea.Msg, max(1, buffer))}
}

// Observer returns a driver observer that publishes to the feed.
func (f *Feed) Observer() sim.Observer {
	return sim.ObserverFunc(func(iter int, g *grid.Grid, step time.Duration) {
		p := g.Params()
		heat := 0.0
		cur := g.Current()
		for row := 0; row < p.NY; row++ {
			start := p.Index(0, row)
			for _, v := range cur[start : start+p.NX] {
				heat += v
			}
		}
		select {
		case f.ch <- StepMsg{Iter: iter, Step: step, Heat: heat}:
		default:
		}
	})
}

// Finish publishes the outcome and closes the feed. Pending step messages are
// discarded if the buffer is full, so Finish never blocks.
func (f *Feed) Finish(result *sim.Result, err error) {
	done := DoneMsg{Result: result, Err: err}
	for {
		select {
		case f.ch <- done:
			close(f.ch)
			return
		default:
			select {
			case <-f.ch:
			default:
			}
		}
	}
}

func (f *Feed) wait() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-f.ch
		if !ok {
			return nil
		}
		return msg
	}
}

// Monitor is a Bubble Tea model showing the progress of one run.
type Monitor struct {
	title    string
	total    int
	feed     *Feed
	cancel   func()
	iter     int
	steps    []float64
	heat     []float64
	result   *sim.Result
	err      error
	done     bool
	showHelp bool
}

// NewMonitor watches a run of total iterations. cancel is called when the user
// quits before the run finishes.
func NewMonitor(title string, total int, feed *Feed, cancel func()) Monitor {
	return Monitor{
		title:  title,
		total:  total,
		feed:   feed,
		cancel: cancel,
		steps:  make([]float64, 0, historyCapacity),
		heat:   make([]float64, 0, historyCapacity),
	}
}

func (m Monitor) Init() tea.Cmd {
	return m.feed.wait()
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case StepMsg:
		m.iter = msg.Iter + 1
		m.steps = appendCapped(m.steps, float64(msg.Step.Nanoseconds())/1e3)
		m.heat = appendCapped(m.heat, msg.Heat)
		return m, m.feed.wait()
	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if msg.Result != nil {
			m.iter = msg.Result.Iterations
		}
	}
	return m, nil
}

func appendCapped(s []float64, v float64) []float64 {
	if len(s) == historyCapacity {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

// Outcome is the driver result once the run has finished.
func (m Monitor) Outcome() (*sim.Result, bool, error) { return m.result, m.done, m.err }

func (m Monitor) View() string {
	th := CurrentTheme
	header := lipgloss.NewStyle().Bold(true).Foreground(th.Primary)
	label := lipgloss.NewStyle().Foreground(th.Muted).Width(12)
	value := lipgloss.NewStyle().Foreground(th.Text)
	help := lipgloss.NewStyle().Foreground(th.Muted).MarginTop(1)

	var s strings.Builder
	s.WriteString(header.Render(strings.ToUpper(m.title)) + "\n")

	var status string
	switch {
	case m.err != nil:
		status = lipgloss.NewStyle().Bold(true).Foreground(th.Error).Render("FAILED")
	case m.done:
		status = lipgloss.NewStyle().Bold(true).Foreground(th.Success).Render("DONE")
	default:
		status = lipgloss.NewStyle().Bold(true).Foreground(th.Accent).Render("RUNNING")
	}
	s.WriteString(status + "\n\n")

	frac := 1.0
	if m.total > 0 {
		frac = float64(m.iter) / float64(m.total)
	}
	s.WriteString(ProgressBar(frac, 40) + fmt.Sprintf(" %d/%d\n\n", m.iter, m.total))

	if len(m.steps) > 1 {
		chart := asciigraph.Plot(m.steps, asciigraph.Height(6), asciigraph.Width(50), asciigraph.Caption("step time (µs)"))
		s.WriteString(lipgloss.NewStyle().Foreground(th.Accent).Render(chart) + "\n\n")
	}
	if len(m.heat) > 0 {
		s.WriteString(label.Render("heat") + value.Render(fmt.Sprintf("%.6g", m.heat[len(m.heat)-1])) + "\n")
		s.WriteString(label.Render("trend") + SparklineChart(m.heat, 40) + "\n")
	}
	if m.result != nil {
		s.WriteString(label.Render("elapsed") + value.Render(m.result.Elapsed.Round(time.Microsecond).String()) + "\n")
		s.WriteString(label.Render("steps/s") + value.Render(fmt.Sprintf("%.1f", m.result.StepsPerSecond())) + "\n")
	}
	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(th.Error).Render(m.err.Error()) + "\n")
	}

	if m.showHelp {
		s.WriteString(help.Render("q/esc: cancel and quit\nt: cycle theme\n?: toggle help"))
	} else {
		s.WriteString(help.Render("q:Quit T:Theme ?:Help"))
	}

	return Panel.Render(s.String())
}
