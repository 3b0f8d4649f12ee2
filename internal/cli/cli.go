package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"stampede/internal/runner"
	"stampede/internal/stats"
)

const (
	minRefresh = 10 * time.Millisecond

	// cadence of the plain snapshots written when w is not a terminal
	plainInterval = 5 * time.Second
)

// IsTerminal reports whether w can take cursor movement sequences.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Report shows the live window until ctx is done, then cancels the run.
// ctx being done is the operator's cancel input (SIGINT/SIGTERM in headless
// mode). On a terminal the window is redrawn in place every refresh; any other
// writer gets a plain snapshot every plainInterval and the final window.
func Report(ctx context.Context, run *runner.Runner, w io.Writer, refresh time.Duration) {
	if refresh < minRefresh {
		refresh = minRefresh
	}
	tty := IsTerminal(w)
	out := termenv.NewOutput(w)

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	drawn := 0
	var lastPlain time.Time
	for {
		select {
		case <-ctx.Done():
			run.Cancel()
			if !tty {
				win := stats.Compute(run.Snapshot(), run.WarmupCutoff())
				if !win.Empty() {
					writeLines(w, win)
				}
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Task cancellation requested.")
			return

		case now := <-ticker.C:
			if !tty && now.Sub(lastPlain) < plainInterval {
				continue
			}
			win := stats.Compute(run.Snapshot(), run.WarmupCutoff())
			if win.Empty() {
				continue
			}

			if !tty {
				writeLines(w, win)
				fmt.Fprintln(w)
				lastPlain = now
				continue
			}

			lines := displayLines(win)
			if drawn > 0 {
				out.CursorPrevLine(drawn)
			}
			for _, l := range lines {
				out.ClearLine()
				fmt.Fprintln(w, l)
			}
			drawn = len(lines)
		}
	}
}

func displayLines(win stats.Window) []string {
	return append(win.Lines(), win.Percentiles())
}

func writeLines(w io.Writer, win stats.Window) {
	for _, l := range displayLines(win) {
		fmt.Fprintln(w, l)
	}
}

func PrintHeader(w io.Writer, cfg runner.Config, cancelHint string) {
	fmt.Fprintf(w, "Target URL : %s\n", cfg.URL)
	fmt.Fprintf(w, "Warm-up    : %s | Think time: %s\n", cfg.Warmup, cfg.ThinkTime)
	fmt.Fprintf(w, "Starting %d workers\n", cfg.Workers)
	fmt.Fprintln(w, cancelHint)
}

// PrintSummary writes the final report once every worker has stopped.
func PrintSummary(w io.Writer, run *runner.Runner) stats.Window {
	all := run.Snapshot()
	win := stats.Compute(all, run.WarmupCutoff())

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n📊 LOAD TEST RESULTS\n%s\n", rule)
	fmt.Fprintf(w, "Run ID          : %s\n", run.ID)
	fmt.Fprintf(w, "Total Duration  : %s\n", time.Since(run.StartTime()).Round(time.Second))
	fmt.Fprintf(w, "Recorded        : %d (%d after warm-up)\n", len(all), win.Count)
	fmt.Fprintf(w, "Success         : %d\n", win.Successes)
	fmt.Fprintf(w, "Failures        : %d (%.2f%%)\n", win.Errors, win.ErrorRate())
	fmt.Fprintf(w, "Throughput      : %d rps over %d s\n", win.RPS, win.SpanSeconds)
	fmt.Fprintf(w, "Average latency : %d ms\n", win.AvgLatencyMs)
	fmt.Fprintf(w, "   P50 : %.2f\n", win.P50Ms)
	fmt.Fprintf(w, "   P90 : %.2f\n", win.P90Ms)
	fmt.Fprintf(w, "   P99 : %.2f\n", win.P99Ms)
	fmt.Fprintf(w, "   Max : %.2f\n", win.MaxMs)

	if errs := stats.ErrorCounts(all, run.WarmupCutoff()); len(errs) > 0 {
		fmt.Fprintf(w, "\n❌ FAILURE SUMMARY\n")
		for _, e := range errs {
			fmt.Fprintf(w, "   %d x %s\n", e.Count, e.Detail)
		}
	}
	fmt.Fprintln(w, rule)
	return win
}
