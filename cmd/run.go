package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stampede/internal/cli"
	"stampede/internal/export"
	"stampede/internal/logging"
	"stampede/internal/metrics"
	"stampede/internal/runner"
	"stampede/internal/storage"
	"stampede/internal/tui"
)

type runOptions struct {
	Refresh     time.Duration
	Headless    bool
	OutPrefix   string
	HistoryDB   string
	MetricsAddr string
	LogLevel    string
	LogFile     string
}

func optionsFromViper() runOptions {
	return runOptions{
		Refresh:     viper.GetDuration("refresh"),
		Headless:    viper.GetBool("headless"),
		OutPrefix:   viper.GetString("out"),
		HistoryDB:   viper.GetString("history-db"),
		MetricsAddr: viper.GetString("metrics-addr"),
		LogLevel:    viper.GetString("log-level"),
		LogFile:     viper.GetString("log-file"),
	}
}

func runLoadTest(cmd *cobra.Command, cfg runner.Config, opts runOptions) error {
	logCloser, err := logging.Setup(opts.LogLevel, opts.LogFile)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := context.WithCancel(parent)
	defer stop()

	out := cmd.OutOrStdout()
	run := runner.NewRunner(cfg)

	if opts.MetricsAddr != "" {
		m := metrics.New()
		run.Recorder = m.Instrument(run.Sink)
		m.Serve(ctx, opts.MetricsAddr)
	}

	headless := opts.Headless || !cli.IsTerminal(out)
	hint := "Press any key to cancel the test."
	if headless {
		hint = "Press Ctrl+C to cancel the test."
	}
	cli.PrintHeader(out, cfg, hint)

	run.Start(ctx)

	if headless {
		sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		cli.Report(sigCtx, run, out, opts.Refresh)
		stopSignals()
	} else {
		p := tea.NewProgram(tui.NewModel(run, opts.Refresh), tea.WithOutput(out), tea.WithContext(ctx))
		_, err := p.Run()
		run.Cancel()
		if errors.Is(err, tea.ErrInterrupted) {
			fmt.Fprintln(out, "\nTask cancellation requested.")
		}
		if err := liveDisplayErr(err); err != nil {
			run.Wait()
			return err
		}
	}

	if err := run.Wait(); err != nil {
		return err
	}

	win := cli.PrintSummary(out, run)
	item := storage.NewHistoryItem(run, win, run.Sink.Len())

	if opts.OutPrefix != "" {
		if err := export.All(opts.OutPrefix, run.Snapshot(), run.WarmupCutoff(), item); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "export failed: %v\n", err)
		} else {
			fmt.Fprintf(out, "💾 Reports saved to %s.{csv,json,_summary.json}\n", opts.OutPrefix)
		}
	}

	if opts.HistoryDB != "" {
		if err := saveHistory(opts.HistoryDB, item); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "saving history failed: %v\n", err)
		}
	}
	return nil
}

// liveDisplayErr drops the errors a bubbletea program returns when it was
// stopped by SIGINT or by its context, both of which are plain cancellations.
func liveDisplayErr(err error) error {
	if err == nil || errors.Is(err, tea.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("live display: %w", err)
}

func saveHistory(path string, item storage.HistoryItem) error {
	store, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(item)
}
