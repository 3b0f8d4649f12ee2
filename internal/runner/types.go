package runner

import (
	"time"
)

type Config struct {
	URL       string
	Workers   int
	Warmup    time.Duration
	ThinkTime time.Duration // pause between two requests of one worker

	Timeout time.Duration // per-request client timeout, 0 = none
	MaxRPS  int           // global pacing across all workers, 0 = unlimited
}

// Result is one request attempt. It is never modified after being handed to a Sink.
type Result struct {
	WorkerID    int       `json:"worker_id"`
	URL         string    `json:"url"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      int       `json:"status,omitempty"`
	Success     bool      `json:"success"`
	ErrorDetail string    `json:"error,omitempty"` // set only when Success is false
}

func (r Result) Elapsed() time.Duration {
	return r.End.Sub(r.Start)
}
