// Package metrics exposes prometheus instrumentation for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's prometheus metrics. Construct one per process
// and share it; a nil *Collector is accepted everywhere and disables
// instrumentation (useful in unit tests).
type Collector struct {
	registry *prometheus.Registry

	eventsIngested         prometheus.Counter
	ingestReplays          prometheus.Counter
	notificationsPublished prometheus.Counter
	notificationsDropped   prometheus.Counter
	sseSubscribers         prometheus.Gauge
}

// NewCollector creates and registers all service metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		eventsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activityd_events_ingested_total",
			Help: "Events created by the ingest endpoint.",
		}),
		ingestReplays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activityd_ingest_replays_total",
			Help: "Ingest calls resolved by idempotency-key replay.",
		}),
		notificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activityd_notifications_published_total",
			Help: "Notifications delivered to subscriber queues.",
		}),
		notificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "activityd_notifications_dropped_total",
			Help: "Notifications dropped because a subscriber queue stayed full.",
		}),
		sseSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "activityd_sse_subscribers",
			Help: "Currently registered notification subscribers.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.eventsIngested,
		c.ingestReplays,
		c.notificationsPublished,
		c.notificationsDropped,
		c.sseSubscribers,
	)
	return c
}

// Handler returns the HTTP handler serving the /metrics scrape endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) EventIngested() {
	if c != nil {
		c.eventsIngested.Inc()
	}
}

func (c *Collector) IngestReplayed() {
	if c != nil {
		c.ingestReplays.Inc()
	}
}

func (c *Collector) NotificationPublished() {
	if c != nil {
		c.notificationsPublished.Inc()
	}
}

func (c *Collector) NotificationDropped() {
	if c != nil {
		c.notificationsDropped.Inc()
	}
}

func (c *Collector) SubscriberAdded() {
	if c != nil {
		c.sseSubscribers.Inc()
	}
}

func (c *Collector) SubscriberRemoved() {
	if c != nil {
		c.sseSubscribers.Dec()
	}
}
