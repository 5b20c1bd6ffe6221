package metrics

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stay-computation metrics are managed by the MetricsManager singleton.
// These variables stay nil when business metrics are disabled.
var (
	losPatientsProcessed *prometheus.CounterVec
	losPatientDuration   *prometheus.HistogramVec
	losSegmentsRejected  *prometheus.CounterVec
	losStaysEmitted      prometheus.Counter
	losStaysFlagged      prometheus.Counter
	losRunDuration       prometheus.Histogram
)

// initializeLOSMetrics initializes stay-computation metrics if they haven't
// been initialized yet
func initializeLOSMetrics() {
	if losPatientsProcessed != nil {
		return // Already initialized
	}

	losPatientsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "los_patients_processed_total",
			Help: "Total number of patients run through the stay pipeline",
		},
		[]string{"status"}, // "success", "empty", "failed"
	)

	losPatientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "los_patient_duration_seconds",
			Help:    "Time spent computing stays for a single patient",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	losSegmentsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "los_segments_rejected_total",
			Help: "Total number of segments excluded before merging",
		},
		[]string{"reason"}, // "invalid_interval", "missing_discharge", "unknown_specialty", "nonacute_specialty"
	)

	losStaysEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "los_stays_emitted_total",
			Help: "Total number of finalized stays emitted",
		},
	)

	losStaysFlagged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "los_stays_flagged_total",
			Help: "Total number of zero-length stays withheld as data defects",
		},
	)

	losRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "los_run_duration_seconds",
			Help:    "Wall-clock duration of a full batch run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// Register with the singleton registry
	mm := GetInstance()
	mm.registry.MustRegister(
		losPatientsProcessed,
		losPatientDuration,
		losSegmentsRejected,
		losStaysEmitted,
		losStaysFlagged,
		losRunDuration,
	)
}

// RecordPatientProcessed records the outcome and duration of one patient's
// stay computation
func RecordPatientProcessed(status string, startTime time.Time) {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}

	initializeLOSMetrics()

	losPatientsProcessed.WithLabelValues(status).Inc()
	losPatientDuration.WithLabelValues(status).Observe(time.Since(startTime).Seconds())
}

// RecordSegmentRejected counts a segment excluded before merging
func RecordSegmentRejected(reason string) {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}

	initializeLOSMetrics()

	losSegmentsRejected.WithLabelValues(reason).Inc()
}

// RecordStaysEmitted counts finalized stays
func RecordStaysEmitted(count int) {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}

	initializeLOSMetrics()

	losStaysEmitted.Add(float64(count))
}

// RecordStayFlagged counts a zero-length stay withheld from output
func RecordStayFlagged() {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}

	initializeLOSMetrics()

	losStaysFlagged.Inc()
}

// RecordRunDuration records the wall-clock duration of a batch run
func RecordRunDuration(startTime time.Time) {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}

	initializeLOSMetrics()

	losRunDuration.Observe(time.Since(startTime).Seconds())
}
