// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cortex_frames_processed_total",
			Help: "Total number of frames run through detection",
		},
	)

	detectionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortex_detection_latency_seconds",
			Help:    "Per-frame detection plus context-building latency",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	contextsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_contexts_total",
			Help: "Scene contexts built, by primary activity",
		},
		[]string{"activity"},
	)

	eventsFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cortex_events_finalized_total",
			Help: "Finalized autonomous events, by urgency",
		},
		[]string{"urgency"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cortex_queue_depth",
			Help: "Current number of events waiting for analysis",
		},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cortex_deep_analysis_duration_seconds",
			Help:    "Deep analysis call duration",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	analysisFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cortex_deep_analysis_failures_total",
			Help: "Deep analysis call failures",
		},
	)

	analysisRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cortex_deep_analysis_retries_total",
			Help: "Events requeued after a failed deep analysis",
		},
	)

	eventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cortex_events_dropped_total",
			Help: "Events dropped after exhausting analysis attempts",
		},
	)
)

// RecordFrame counts one processed frame.
func RecordFrame() { framesProcessed.Inc() }

// ObserveDetectionLatency records one detection-cycle latency.
func ObserveDetectionLatency(d time.Duration) { detectionLatency.Observe(d.Seconds()) }

// RecordContext counts one built scene context.
func RecordContext(activity string) { contextsTotal.WithLabelValues(activity).Inc() }

// RecordEventFinalized counts one finalized event.
func RecordEventFinalized(urgency string) { eventsFinalized.WithLabelValues(urgency).Inc() }

// SetQueueDepth publishes the current queue depth.
func SetQueueDepth(n int) { queueDepth.Set(float64(n)) }

// ObserveAnalysisDuration records one deep-analysis call duration.
func ObserveAnalysisDuration(d time.Duration) { analysisDuration.Observe(d.Seconds()) }

// RecordAnalysisFailure counts one failed deep-analysis call.
func RecordAnalysisFailure() { analysisFailures.Inc() }

// RecordRetry counts one requeue after failure.
func RecordRetry() { analysisRetries.Inc() }

// RecordDrop counts one dropped event.
func RecordDrop() { eventsDropped.Inc() }
