package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the pizzeria collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pizzeria",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzeria",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pizzeria",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzeria",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders created, by sales channel.",
		},
		[]string{"channel"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzeria",
			Subsystem: "orders",
			Name:      "status_transitions_total",
			Help:      "Order status changes, by target status.",
		},
		[]string{"status"},
	)

	notifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pizzeria",
			Subsystem: "notify",
			Name:      "publish_failures_total",
			Help:      "Notification publishes that failed, by sink.",
		},
		[]string{"sink"},
	)

	notifyDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pizzeria",
			Subsystem: "notify",
			Name:      "dropped_messages_total",
			Help:      "Websocket messages dropped because a client queue was full.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersCreated,
		statusTransitions,
		notifyFailures,
		notifyDropped,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RequestStarted() { httpInFlight.Inc() }

// RequestFinished records a completed request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func RequestFinished(method, route string, status int, duration time.Duration) {
	httpInFlight.Dec()
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func OrderCreated(channel string) {
	ordersCreated.WithLabelValues(channel).Inc()
}

func StatusChanged(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

func PublishFailed(sink string) {
	notifyFailures.WithLabelValues(sink).Inc()
}

func MessageDropped() {
	notifyDropped.Inc()
}
