package observability

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private Prometheus registry so several instances can coexist.
type Metrics struct {
	registry      *prometheus.Registry
	http          *fiberprometheus.FiberPrometheus
	errors        *prometheus.CounterVec
	issueEvents   *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewMetrics initializes collectors for the named service.
func NewMetrics(service string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		http:     fiberprometheus.NewWithRegistry(registry, service, "http", "", nil),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostres_request_errors_total",
			Help: "Failed requests by route and error code",
		}, []string{"method", "path", "code"}),
		issueEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostres_issue_events_total",
			Help: "Issue domain events published",
		}, []string{"event"}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostres_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"resource"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostres_cache_lookups_total",
			Help: "User cache lookups by result",
		}, []string{"result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hostres_notifications_total",
			Help: "Notification deliveries by channel and outcome",
		}, []string{"channel", "outcome"}),
	}
}

// Middleware records HTTP request counts and latencies.
func (m *Metrics) Middleware() fiber.Handler {
	if m == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return m.http.Middleware
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, path, code).Inc()
}

// RecordIssueEvent counts a published issue event.
func (m *Metrics) RecordIssueEvent(event string) {
	if m == nil {
		return
	}
	m.issueEvents.WithLabelValues(event).Inc()
}

// RecordRateLimited counts a rejected request.
func (m *Metrics) RecordRateLimited(resource string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(resource).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordNotification counts a notification attempt.
func (m *Metrics) RecordNotification(channel string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}
