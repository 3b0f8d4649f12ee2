package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Runner coordinates one load test: it owns the cancellation signal, the
// shared Sink and the worker goroutines.
type Runner struct {
	Cfg    Config
	ID     string
	Sink   *Sink
	Issuer Issuer

	// Recorder is what workers append to. Defaults to Sink; replace it with a
	// wrapper (metrics) that still forwards to Sink.
	Recorder Recorder
	Log      *logrus.Entry

	Workers []*Worker

	start     time.Time
	cancel    context.CancelFunc
	cancelled atomic.Bool
	startOnce sync.Once
	group     errgroup.Group
}

func NewRunner(cfg Config) *Runner {
	id := uuid.New().String()
	sink := NewSink()
	return &Runner{
		Cfg:      cfg,
		ID:       id,
		Sink:     sink,
		Issuer:   NewHTTPIssuer(NewClient(cfg.Workers, cfg.Timeout)),
		Recorder: sink,
		Log:      logrus.WithField("run_id", id),
	}
}

// Start records the run start time and launches Cfg.Workers worker loops.
// It returns immediately; call Cancel then Wait to stop the run.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		ctx, r.cancel = context.WithCancel(ctx)
		r.start = time.Now()

		var limiter *rate.Limiter
		if r.Cfg.MaxRPS > 0 {
			limiter = rate.NewLimiter(rate.Limit(r.Cfg.MaxRPS), 1)
		}

		r.Log.WithFields(logrus.Fields{
			"url":     r.Cfg.URL,
			"workers": r.Cfg.Workers,
			"warmup":  r.Cfg.Warmup,
			"think":   r.Cfg.ThinkTime,
		}).Info("starting run")

		r.Workers = make([]*Worker, r.Cfg.Workers)
		for i := range r.Workers {
			w := &Worker{
				ID:        i,
				URL:       r.Cfg.URL,
				ThinkTime: r.Cfg.ThinkTime,
				Issuer:    r.Issuer,
				Recorder:  r.Recorder,
				Limiter:   limiter,
				Log:       r.Log.WithField("worker", i),
			}
			r.Workers[i] = w
			r.group.Go(func() error {
				return w.Run(ctx)
			})
		}
	})
}

// Cancel signals every worker to stop. Only the first call has an effect.
func (r *Runner) Cancel() {
	if r.cancel == nil || !r.cancelled.CompareAndSwap(false, true) {
		return
	}
	r.cancel()
	r.Log.Info("cancellation requested")
}

func (r *Runner) Cancelled() bool {
	return r.cancelled.Load()
}

// Wait blocks until every worker has exited. Errors caused only by
// cancellation are expected and dropped.
func (r *Runner) Wait() error {
	err := r.group.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	r.Log.WithField("results", r.Sink.Len()).Info("all workers stopped")
	return err
}

func (r *Runner) Snapshot() []Result {
	return r.Sink.Snapshot()
}

func (r *Runner) StartTime() time.Time {
	return r.start
}

// WarmupCutoff is the earliest start time a result needs to count in metrics.
func (r *Runner) WarmupCutoff() time.Time {
	return r.start.Add(r.Cfg.Warmup)
}
