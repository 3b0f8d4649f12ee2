package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Worker is one closed-loop virtual user: request, record, think, repeat.
type Worker struct {
	ID        int
	URL       string
	ThinkTime time.Duration

	Issuer   Issuer
	Recorder Recorder
	Limiter  *rate.Limiter // optional
	Log      *logrus.Entry

	appended atomic.Int64
}

// Run loops until ctx is cancelled and then returns ctx.Err().
// Cancellation is only observed between requests: an in-flight request is
// completed and recorded, and a think-time pause already started runs out.
func (w *Worker) Run(ctx context.Context) error {
	// in-flight requests must not be cut short by the run's cancellation
	reqCtx := context.WithoutCancel(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if w.Limiter != nil {
			if err := w.Limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// the next token lies past the deadline: the run ends before it
				if _, ok := ctx.Deadline(); ok {
					return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
				}
				return err
			}
		}

		res := w.Issuer.Issue(reqCtx, w.URL)
		res.WorkerID = w.ID
		res.URL = w.URL
		w.Recorder.Append(res)
		w.appended.Add(1)

		if !res.Success && w.Log != nil {
			w.Log.WithField("elapsed", res.Elapsed()).Debugf("request failed: %s", res.ErrorDetail)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if w.ThinkTime > 0 {
			time.Sleep(w.ThinkTime)
		}
	}
}

// Appended is the number of results this worker has handed to its Recorder.
func (w *Worker) Appended() int64 {
	return w.appended.Load()
}
