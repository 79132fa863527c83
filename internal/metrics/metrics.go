package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency by transport and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transport", "route"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Bookings entering a status.",
		},
		[]string{"status"},
	)

	bookingRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operation_errors_total",
			Help:      "Failed booking operations by operation and error kind.",
		},
		[]string{"operation", "kind"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests refused by a rate limiter.",
		},
	)

	limiterBackend = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_backend_primary",
			Help:      "1 when the primary rate-limit backend is serving, 0 on fallback.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			grpcRequests,
			requestDuration,
			bookingTransitions,
			bookingRejections,
			rateLimited,
			limiterBackend,
		)
	})
}

func ObserveHTTP(route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues("http", route).Observe(elapsed.Seconds())
}

func ObserveGRPC(method, code string, elapsed time.Duration) {
	grpcRequests.WithLabelValues(method, code).Inc()
	requestDuration.WithLabelValues("grpc", method).Observe(elapsed.Seconds())
}

func IncBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

func IncBookingError(operation, kind string) {
	bookingRejections.WithLabelValues(operation, kind).Inc()
}

func IncRateLimited() {
	rateLimited.Inc()
}

func SetLimiterPrimary(primary bool) {
	if primary {
		limiterBackend.Set(1)
		return
	}
	limiterBackend.Set(0)
}
