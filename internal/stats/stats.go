package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"stampede/internal/runner"
)

// Window holds the metrics of one display pass. It is recomputed from scratch
// on every pass and never updated incrementally.
type Window struct {
	Count     int
	Successes int
	Errors    int

	// distinct worker ids in the window
	ActiveWorkers int

	AvgLatencyMs int64
	SpanSeconds  int64 // whole seconds between earliest start and latest end
	RPS          int64 // Count / SpanSeconds, 0 when the span is under a second

	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64
}

func (w Window) Empty() bool {
	return w.Count == 0
}

// ErrorRate returns the failed share of the window as a percentage.
func (w Window) ErrorRate() float64 {
	if w.Count == 0 {
		return 0
	}
	return float64(w.Errors) / float64(w.Count) * 100
}

// Filter keeps results that started at or after cutoff. The input is not modified.
func Filter(results []runner.Result, cutoff time.Time) []runner.Result {
	out := make([]runner.Result, 0, len(results))
	for _, r := range results {
		if !r.Start.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Compute filters out warm-up results and aggregates the rest.
func Compute(results []runner.Result, cutoff time.Time) Window {
	return aggregate(Filter(results, cutoff))
}

func aggregate(results []runner.Result) Window {
	var w Window
	if len(results) == 0 {
		return w
	}

	h := newLatencyHistogram()
	workers := make(map[int]struct{})
	var total time.Duration
	minStart, maxEnd := results[0].Start, results[0].End

	for _, r := range results {
		w.Count++
		if r.Success {
			w.Successes++
		} else {
			w.Errors++
		}
		workers[r.WorkerID] = struct{}{}

		d := r.Elapsed()
		total += d
		recordLatency(h, d)

		if r.Start.Before(minStart) {
			minStart = r.Start
		}
		if r.End.After(maxEnd) {
			maxEnd = r.End
		}
	}

	w.ActiveWorkers = len(workers)
	avg := float64(total) / float64(w.Count) / float64(time.Millisecond)
	// halves go to the even neighbour: 10.5ms -> 10, 11.5ms -> 12
	w.AvgLatencyMs = int64(math.RoundToEven(avg))

	// truncated to whole seconds on purpose: sub-second bursts report 0 rps
	w.SpanSeconds = int64(maxEnd.Sub(minStart) / time.Second)
	if w.SpanSeconds > 0 {
		w.RPS = int64(w.Count) / w.SpanSeconds
	}

	w.P50Ms = quantileMs(h, 50)
	w.P90Ms = quantileMs(h, 90)
	w.P99Ms = quantileMs(h, 99)
	w.MaxMs = float64(h.Max()) / 1000.0
	return w
}

// Lines renders the four live display lines.
func (w Window) Lines() []string {
	return []string{
		fmt.Sprintf("Average time: %d ms", w.AvgLatencyMs),
		fmt.Sprintf("Performance: %d rps (%d reqs in %d s)", w.RPS, w.Count, w.SpanSeconds),
		fmt.Sprintf("Threads: %d", w.ActiveWorkers),
		fmt.Sprintf("Errors: %d", w.Errors),
	}
}

// Percentiles renders the supplementary latency distribution line.
func (w Window) Percentiles() string {
	return fmt.Sprintf("P50: %.2f ms | P90: %.2f ms | P99: %.2f ms | Max: %.2f ms",
		w.P50Ms, w.P90Ms, w.P99Ms, w.MaxMs)
}

type ErrorCount struct {
	Detail string
	Count  int
}

// ErrorCounts groups the failed results of the window by error detail, most
// frequent first.
func ErrorCounts(results []runner.Result, cutoff time.Time) []ErrorCount {
	counts := make(map[string]int)
	for _, r := range Filter(results, cutoff) {
		if !r.Success {
			counts[r.ErrorDetail]++
		}
	}

	out := make([]ErrorCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, ErrorCount{Detail: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Detail < out[j].Detail
	})
	return out
}
