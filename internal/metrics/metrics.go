// Package metrics exposes operation counters and latencies for the shell's
// background pipeline on a private Prometheus registry.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Outcomes recorded for an operation.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomePanic    = "panic"
	OutcomeCanceled = "canceled"
	OutcomeStale    = "stale"
)

// Recorder is the Prometheus-backed operation recorder.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	eventDrops prometheus.CounterFunc
}

// New registers the logbook collectors on a fresh registry. dropped, when
// non-nil, is exported as the event bus drop counter.
func New(dropped func() int64) *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logbook_operations_total",
				Help: "Background operations by kind and outcome",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logbook_operation_duration_seconds",
				Help:    "Time spent in background operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(r.operations, r.duration)
	if dropped != nil {
		r.eventDrops = prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "logbook_events_dropped_total",
				Help: "Events lost to full subscriber buffers",
			},
			func() float64 { return float64(dropped()) },
		)
		reg.MustRegister(r.eventDrops)
	}
	return r
}

// Observe records one finished operation.
func (r *Recorder) Observe(op, outcome string, elapsed time.Duration) {
	r.operations.WithLabelValues(op, outcome).Inc()
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns a router serving /metrics and /healthz.
func (r *Recorder) Handler() http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	return router
}

// Serve runs the metrics endpoint on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string, log *logrus.Entry) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("metrics endpoint listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}
