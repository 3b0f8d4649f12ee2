package storage

import (
	"time"

	"stampede/internal/runner"
	"stampede/internal/stats"
)

type HistoryItem struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Config    RunConfig  `json:"config"`
	Summary   RunSummary `json:"summary"`
}

type RunConfig struct {
	URL       string `json:"url"`
	Workers   int    `json:"workers"`
	WarmupSec int    `json:"warmup_s"`
	ThinkMs   int64  `json:"think_ms"`
}

type RunSummary struct {
	Recorded      int     `json:"recorded"`
	Requests      int     `json:"requests"`
	Success       int     `json:"success"`
	Fail          int     `json:"fail"`
	RPS           int64   `json:"rps"`
	SpanSeconds   int64   `json:"span_s"`
	ActiveWorkers int     `json:"active_workers"`
	AvgLatencyMs  int64   `json:"avg_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
}

// NewHistoryItem captures a finished run. recorded counts every result,
// warm-up included; the summary covers only the window.
func NewHistoryItem(run *runner.Runner, win stats.Window, recorded int) HistoryItem {
	return HistoryItem{
		ID:        run.ID,
		Timestamp: run.StartTime().UTC(),
		Config: RunConfig{
			URL:       run.Cfg.URL,
			Workers:   run.Cfg.Workers,
			WarmupSec: int(run.Cfg.Warmup / time.Second),
			ThinkMs:   run.Cfg.ThinkTime.Milliseconds(),
		},
		Summary: RunSummary{
			Recorded:      recorded,
			Requests:      win.Count,
			Success:       win.Successes,
			Fail:          win.Errors,
			RPS:           win.RPS,
			SpanSeconds:   win.SpanSeconds,
			ActiveWorkers: win.ActiveWorkers,
			AvgLatencyMs:  win.AvgLatencyMs,
			P99LatencyMs:  win.P99Ms,
		},
	}
}
