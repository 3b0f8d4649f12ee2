package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stampede/internal/runner"
)

type okIssuer struct{}

func (okIssuer) Issue(ctx context.Context, url string) runner.Result {
	start := time.Now()
	time.Sleep(time.Millisecond)
	return runner.Result{Start: start, End: time.Now(), Status: 200, Success: true}
}

func startedRunner(t *testing.T, workers int) *runner.Runner {
	t.Helper()
	r := runner.NewRunner(runner.Config{URL: "http://example.test", Workers: workers})
	r.Issuer = okIssuer{}
	r.Start(context.Background())
	t.Cleanup(func() {
		r.Cancel()
		r.Wait()
	})
	return r
}

func TestNewModel_ClampsRefresh(t *testing.T) {
	m := NewModel(nil, time.Millisecond)
	if m.Refresh != MinRefresh {
		t.Errorf("Refresh = %s, want %s", m.Refresh, MinRefresh)
	}
	m = NewModel(nil, time.Second)
	if m.Refresh != time.Second {
		t.Errorf("Refresh = %s, want 1s", m.Refresh)
	}
}

func TestModel_ViewWaitsForResults(t *testing.T) {
	m := NewModel(nil, DefaultRefresh)
	if !strings.Contains(m.View(), "waiting") {
		t.Errorf("empty view: %q", m.View())
	}
}

func TestModel_TickComputesWindow(t *testing.T) {
	r := startedRunner(t, 2)
	time.Sleep(50 * time.Millisecond)

	updated, cmd := NewModel(r, DefaultRefresh).Update(tickMsg(time.Now()))
	m := updated.(Model)

	if m.Window.Empty() {
		t.Fatal("expected a populated window after a tick")
	}
	if m.Window.ActiveWorkers != 2 {
		t.Errorf("ActiveWorkers = %d, want 2", m.Window.ActiveWorkers)
	}
	if cmd == nil {
		t.Error("tick must schedule the next tick")
	}
	if len(m.RpsLine.Data) != 1 {
		t.Errorf("sparkline samples = %d, want 1", len(m.RpsLine.Data))
	}

	view := m.View()
	for _, want := range []string{"Average time:", "Performance:", "Threads: 2", "Errors: 0", "P99:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_AnyKeyCancels(t *testing.T) {
	r := startedRunner(t, 1)

	updated, cmd := NewModel(r, DefaultRefresh).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m := updated.(Model)

	if !r.Cancelled() || !m.Cancelled {
		t.Fatal("key press should cancel the run")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "Task cancellation requested.") {
		t.Errorf("view after cancel: %q", m.View())
	}

	// ticks after cancellation stop the refresh loop
	if _, cmd := m.Update(tickMsg(time.Now())); cmd != nil {
		t.Error("no tick should be scheduled after cancellation")
	}
}

func TestModel_WindowResizeSizesSparkline(t *testing.T) {
	updated, _ := NewModel(nil, DefaultRefresh).Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m := updated.(Model)
	if m.RpsLine.Width != 76 {
		t.Errorf("sparkline width = %d, want 76", m.RpsLine.Width)
	}
}
