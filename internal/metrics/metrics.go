package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel_correlate",
			Name:      "events_ingested_total",
			Help:      "Total number of error events ingested, partitioned by severity.",
		},
		[]string{"severity"},
	)

	correlationsDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentinel_correlate",
			Name:      "correlations_detected_total",
			Help:      "Total number of correlations accepted into the registry, partitioned by type.",
		},
		[]string{"type"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sentinel_correlate",
			Name:      "analysis_seconds",
			Help:      "Comprehensive analysis sweep latency in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	alertsDispatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sentinel_correlate",
			Name:      "alerts_dispatched_total",
			Help:      "Total number of high-impact correlation alerts handed to the dispatcher.",
		},
	)

	alertsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sentinel_correlate",
			Name:      "alerts_dropped_total",
			Help:      "Total number of alerts dropped because the dispatch queue was full.",
		},
	)
)

// Register attaches the engine collectors to the supplied Prometheus
// registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		eventsIngestedTotal,
		correlationsDetectedTotal,
		analysisDurationSeconds,
		alertsDispatchedTotal,
		alertsDroppedTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// RecordEvent counts an ingested event by severity.
func RecordEvent(severity string) {
	eventsIngestedTotal.WithLabelValues(severity).Inc()
}

// RecordCorrelation counts an accepted correlation by type.
func RecordCorrelation(corrType string) {
	correlationsDetectedTotal.WithLabelValues(corrType).Inc()
}

// ObserveAnalysis records a comprehensive sweep duration.
func ObserveAnalysis(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// RecordAlertDispatched counts an alert handed to the dispatch queue.
func RecordAlertDispatched() {
	alertsDispatchedTotal.Inc()
}

// RecordAlertDropped counts an alert dropped on queue overflow.
func RecordAlertDropped() {
	alertsDroppedTotal.Inc()
}
