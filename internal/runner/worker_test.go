package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func runWorkerFor(t *testing.T, w *Worker, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(d)
	cancel()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
		return nil
	}
}

func TestWorker_CancelledBeforeFirstRequest(t *testing.T) {
	issuer := &fakeIssuer{}
	sink := NewSink()
	w := &Worker{ID: 1, URL: "http://example.test", Issuer: issuer, Recorder: sink}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if issuer.calls.Load() != 0 || sink.Len() != 0 {
		t.Error("no request should be issued after cancellation")
	}
}

func TestWorker_StampsIdentity(t *testing.T) {
	sink := NewSink()
	w := &Worker{ID: 7, URL: "http://example.test/a", Issuer: &fakeIssuer{latency: time.Millisecond}, Recorder: sink}

	err := runWorkerFor(t, w, 30*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	results := sink.Snapshot()
	if len(results) == 0 {
		t.Fatal("no results recorded")
	}
	if int64(len(results)) != w.Appended() {
		t.Errorf("Appended() = %d, sink holds %d", w.Appended(), len(results))
	}
	for _, r := range results {
		if r.WorkerID != 7 || r.URL != "http://example.test/a" {
			t.Fatalf("result not stamped: %+v", r)
		}
	}
}

func TestWorker_FailuresDoNotStopTheLoop(t *testing.T) {
	sink := NewSink()
	w := &Worker{ID: 0, URL: "http://example.test", Issuer: &fakeIssuer{latency: time.Millisecond, fail: true}, Recorder: sink}

	runWorkerFor(t, w, 30*time.Millisecond)

	results := sink.Snapshot()
	if len(results) < 2 {
		t.Fatalf("expected the loop to keep going, got %d results", len(results))
	}
	for _, r := range results {
		if r.Success || r.ErrorDetail == "" {
			t.Fatalf("expected a failed result with detail, got %+v", r)
		}
	}
}

func TestWorker_ThinkTimePacesRequests(t *testing.T) {
	sink := NewSink()
	w := &Worker{ID: 0, URL: "http://example.test", ThinkTime: 40 * time.Millisecond, Issuer: &fakeIssuer{}, Recorder: sink}

	runWorkerFor(t, w, 200*time.Millisecond)

	// one request per 40ms pause, plus the one started right away
	if n := sink.Len(); n < 2 || n > 7 {
		t.Errorf("expected about 5 requests, got %d", n)
	}
}

func TestWorker_LimiterPacesRequests(t *testing.T) {
	sink := NewSink()
	w := &Worker{
		ID:       0,
		URL:      "http://example.test",
		Issuer:   &fakeIssuer{},
		Recorder: sink,
		Limiter:  rate.NewLimiter(20, 1),
	}

	err := runWorkerFor(t, w, 250*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if n := sink.Len(); n < 2 || n > 8 {
		t.Errorf("expected about 6 requests at 20 rps, got %d", n)
	}
}

func TestWorker_LimiterPastDeadlineIsDeadlineExceeded(t *testing.T) {
	sink := NewSink()
	w := &Worker{
		ID:       0,
		URL:      "http://example.test",
		Issuer:   &fakeIssuer{},
		Recorder: sink,
		Limiter:  rate.NewLimiter(1, 1),
	}

	// the burst token is spent at once, the next one is a second away
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := w.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 90*time.Millisecond {
		t.Errorf("worker waited %s instead of giving up early", time.Since(start))
	}
	if sink.Len() != 1 {
		t.Errorf("expected exactly the burst request, got %d", sink.Len())
	}
}
