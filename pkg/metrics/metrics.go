// Package metrics exposes workflow outcomes for scraping.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "switchdog"

	// OutcomeSuccess labels runs that applied their image.
	OutcomeSuccess = "success"
)

// Metrics records workflow runs.
type Metrics struct {
	registry *prometheus.Registry

	// runs counts runs by outcome: "success" or the fault kind.
	runs *prometheus.CounterVec
	// duration tracks how long a run took, successful or not.
	duration prometheus.Histogram
	// lastSuccess is the unix time of the last applied image.
	lastSuccess prometheus.Gauge
	// commitUpdates counts commit tokens persisted.
	commitUpdates prometheus.Counter
}

// New registers the agent's collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Workflow runs by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Workflow run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that applied its image",
		}),
		commitUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commit_updates_total",
			Help:      "Commit tokens persisted from server responses",
		}),
	}
}

// ObserveRun records one run that finished with err after took.
func (m *Metrics) ObserveRun(err error, took time.Duration) {
	m.duration.Observe(took.Seconds())
	if err != nil {
		m.runs.WithLabelValues(fault.KindOf(err).String()).Inc()
		return
	}
	m.runs.WithLabelValues(OutcomeSuccess).Inc()
	m.lastSuccess.SetToCurrentTime()
}

// ObserveCommit records a persisted commit token.
func (m *Metrics) ObserveCommit() {
	m.commitUpdates.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrapf(err, "metrics listener on %s", addr)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}
