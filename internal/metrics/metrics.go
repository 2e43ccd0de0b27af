package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	PhotosIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lensflow_photos_ingested_total",
			Help: "Total number of photos added to the collection",
		},
	)

	IngestRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lensflow_ingest_rejected_total",
			Help: "Total number of files excluded during ingest (unreadable or not an image)",
		},
	)

	AnalysisFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lensflow_analysis_fallbacks_total",
			Help: "Total number of photos stored with fallback metadata after a failed analysis",
		},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lensflow_analysis_duration_seconds",
			Help:    "Vision analysis duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Animation metrics
var (
	AnimationsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lensflow_animations_in_flight",
			Help: "Number of animation jobs currently outstanding",
		},
	)

	AnimationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lensflow_animations_total",
			Help: "Total number of finished animation jobs by result",
		},
		[]string{"result"}, // "success", "failure", "unauthorized"
	)

	AnimationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lensflow_animation_duration_seconds",
			Help:    "Animation job duration in seconds, submission to download",
			Buckets: []float64{5, 10, 30, 60, 120, 300, 600, 1200},
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lensflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lensflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
