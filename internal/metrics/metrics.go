package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors shared by the HTTP services and the event pipeline.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	EventsPublished *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec
	EventsDropped   *prometheus.CounterVec
	EventsConsumed  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers every collector on reg. Pass a fresh prometheus.NewRegistry() per process.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employee_mgmt_http_requests_total",
			Help: "Total HTTP requests by service, method, route and status code.",
		}, []string{"service", "method", "route", "status"}),
		HTTPDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employee_mgmt_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),
		EventsPublished: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employee_mgmt_events_published_total",
			Help: "Entity events written to the broker.",
		}, []string{"topic", "event_type"}),
		EventsFailed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employee_mgmt_events_failed_total",
			Help: "Entity events the broker rejected or that timed out.",
		}, []string{"topic", "event_type"}),
		EventsDropped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employee_mgmt_events_dropped_total",
			Help: "Entity events discarded because the publish queue was full or closed.",
		}, []string{"topic", "event_type"}),
		EventsConsumed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employee_mgmt_events_consumed_total",
			Help: "Entity events read by the notification worker.",
		}, []string{"topic", "status"}),
		gatherer: reg,
	}

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(service, method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(service, method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(service, method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) EventPublished(topic, eventType string) {
	m.EventsPublished.WithLabelValues(topic, eventType).Inc()
}

func (m *Metrics) EventFailed(topic, eventType string) {
	m.EventsFailed.WithLabelValues(topic, eventType).Inc()
}

func (m *Metrics) EventDropped(topic, eventType string) {
	m.EventsDropped.WithLabelValues(topic, eventType).Inc()
}

func (m *Metrics) EventConsumed(topic, status string) {
	m.EventsConsumed.WithLabelValues(topic, status).Inc()
}
