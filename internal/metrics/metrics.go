package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCount counts HTTP requests
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	// BatchCount counts comparison batches by outcome
	BatchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "similarity_batches_total",
			Help: "Total number of similarity comparison batches",
		},
		[]string{"status"},
	)

	// BatchDuration measures end-to-end batch duration
	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "similarity_batch_duration_seconds",
			Help: "Similarity batch duration in seconds",
		},
	)

	PairsCompared = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_pairs_compared_total",
			Help: "Total number of document pairs scored",
		},
	)

	DocumentsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_documents_skipped_total",
			Help: "Documents skipped because their content was unavailable",
		},
	)

	registerOnce sync.Once
)

// InitPrometheus registers all collectors with the default registry
func InitPrometheus() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCount)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(BatchCount)
		prometheus.MustRegister(BatchDuration)
		prometheus.MustRegister(PairsCompared)
		prometheus.MustRegister(DocumentsSkipped)
	})
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
