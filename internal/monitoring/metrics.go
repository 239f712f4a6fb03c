package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Métriques Prometheus
var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ludotheque_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ludotheque_http_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	GameOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ludotheque_game_operations_total",
			Help: "Game store operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	RateLimitHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ludotheque_rate_limit_hits_total",
			Help: "Total number of rate limited requests",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(GameOperations)
	prometheus.MustRegister(RateLimitHits)
}

// RecordOperation compte une opération sur la collection
func RecordOperation(operation, outcome string) {
	GameOperations.WithLabelValues(operation, outcome).Inc()
}

// Handler retourne le handler Prometheus
func Handler() http.Handler {
	return promhttp.Handler()
}
