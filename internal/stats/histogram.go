package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const maxTrackable = 10 * time.Minute

// newLatencyHistogram tracks 1us to 10min with 3 significant figures.
func newLatencyHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(1, int64(maxTrackable/time.Microsecond), 3)
}

// recordLatency clamps d into the trackable range before recording it.
func recordLatency(h *hdrhistogram.Histogram, d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if max := h.HighestTrackableValue(); us > max {
		us = max
	}
	_ = h.RecordValue(us)
}

func quantileMs(h *hdrhistogram.Histogram, q float64) float64 {
	return float64(h.ValueAtQuantile(q)) / 1000.0
}
