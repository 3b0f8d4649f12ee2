package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"stampede/internal/runner"
)

// Metrics exposes the run's results as Prometheus series. Each instance owns
// its registry so several runs (and tests) never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Latency  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stampede_requests_total",
			Help: "Completed requests by outcome",
		}, []string{"outcome"}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stampede_request_duration_seconds",
			Help:    "Latency distribution",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
	}
	m.Registry.MustRegister(m.Requests, m.Latency)
	return m
}

func (m *Metrics) Observe(r runner.Result) {
	outcome := "success"
	if !r.Success {
		outcome = "error"
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.Latency.Observe(r.Elapsed().Seconds())
}

// Instrument wraps next so every appended result is also observed.
func (m *Metrics) Instrument(next runner.Recorder) runner.Recorder {
	return &recorder{next: next, m: m}
}

type recorder struct {
	next runner.Recorder
	m    *Metrics
}

func (r *recorder) Append(res runner.Result) {
	r.next.Append(res)
	r.m.Observe(res)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logrus.Infof("metrics at %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server error: %v", err)
		}
	}()
}
