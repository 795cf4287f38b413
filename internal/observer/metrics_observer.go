package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver exports interaction counts and latencies to Prometheus
type MetricsObserver struct {
	started   *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetricsObserver creates the collectors and registers them with reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		started: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notesai_interactions_started_total",
				Help: "Total number of AI interactions started",
			},
			[]string{"operation"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notesai_interactions_completed_total",
				Help: "Total number of AI interactions that stored a result",
			},
			[]string{"operation"},
		),
		failed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notesai_interactions_failed_total",
				Help: "Total number of AI interactions that stored an error",
			},
			[]string{"operation", "error_type"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notesai_interaction_duration_seconds",
				Help:    "Duration of AI interactions from start to settle",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"operation", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{o.started, o.completed, o.failed, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent handles interaction events by updating collectors
func (o *MetricsObserver) OnEvent(ctx context.Context, event InteractionEvent) {
	switch event.EventType {
	case InteractionStarted:
		o.started.WithLabelValues(event.Operation).Inc()
	case InteractionCompleted:
		o.completed.WithLabelValues(event.Operation).Inc()
		o.duration.WithLabelValues(event.Operation, "success").Observe(event.Duration.Seconds())
	case InteractionFailed:
		o.failed.WithLabelValues(event.Operation, event.ErrorType).Inc()
		o.duration.WithLabelValues(event.Operation, "failure").Observe(event.Duration.Seconds())
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
