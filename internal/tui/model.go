package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"stampede/internal/runner"
	"stampede/internal/stats"
	"stampede/internal/tui/components"
	"stampede/internal/tui/styles"
)

const (
	DefaultRefresh = 200 * time.Millisecond
	MinRefresh     = 10 * time.Millisecond
)

type tickMsg time.Time

// Model is the live reporter. Every tick it snapshots the runner's results and
// recomputes the window; any key press cancels the run and quits.
type Model struct {
	Runner  *runner.Runner
	Refresh time.Duration

	Window  stats.Window
	RpsLine components.Sparkline
	Spinner spinner.Model

	Cancelled bool
	Width     int
}

func NewModel(r *runner.Runner, refresh time.Duration) Model {
	if refresh < MinRefresh {
		refresh = MinRefresh
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Subtle

	return Model{
		Runner:  r,
		Refresh: refresh,
		RpsLine: components.NewSparkline(40, "RPS", styles.Active),
		Spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.Spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.Runner.Cancel()
		m.Cancelled = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		w := msg.Width - 4
		if w < 10 {
			w = 10
		}
		m.RpsLine.Width = w
		return m, nil

	case tickMsg:
		if m.Cancelled {
			return m, nil
		}
		m.Window = stats.Compute(m.Runner.Snapshot(), m.Runner.WarmupCutoff())
		if !m.Window.Empty() {
			m.RpsLine.Add(uint64(m.Window.RPS))
		}
		return m, m.tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.Cancelled {
		return "\nTask cancellation requested.\n"
	}

	if m.Window.Empty() {
		return m.Spinner.View() + styles.Subtle.Render(" waiting for results after warm-up...") + "\n"
	}

	s := strings.Builder{}
	lines := m.Window.Lines()

	errStyle := styles.Value
	if m.Window.ErrorRate() > 5.0 {
		errStyle = styles.Error
	} else if m.Window.Errors > 0 {
		errStyle = styles.Warn
	}

	s.WriteString(styles.Value.Render(lines[0]) + "\n")
	s.WriteString(styles.Value.Render(lines[1]) + "\n")
	s.WriteString(styles.Value.Render(lines[2]) + "\n")
	s.WriteString(errStyle.Render(lines[3]) + "\n")
	s.WriteString(styles.Subtle.Render(m.Window.Percentiles()) + "\n")
	s.WriteString(m.RpsLine.View() + "\n")
	s.WriteString(styles.Subtle.Render(fmt.Sprintf("Press any key to cancel (%s elapsed)",
		time.Since(m.Runner.StartTime()).Round(time.Second))))

	return s.String()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
