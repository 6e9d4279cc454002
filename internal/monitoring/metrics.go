// Package monitoring exposes pipeline counters on /metrics.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the lot pipeline.
type Metrics struct {
	registry *prometheus.Registry

	LotsReceived   *prometheus.CounterVec
	Sent           prometheus.Counter
	Skipped        *prometheus.CounterVec
	EnrichFailures *prometheus.CounterVec
	DeliveryErrors prometheus.Counter
}

// New creates and registers the pipeline metrics on a private registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.LotsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lotbridge",
		Name:      "lots_received_total",
		Help:      "Inbound webhook events by source",
	}, []string{"source"})
	m.Sent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lotbridge",
		Name:      "notifications_sent_total",
		Help:      "Notifications delivered to the messaging channel",
	})
	m.Skipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lotbridge",
		Name:      "lots_skipped_total",
		Help:      "Lots skipped before delivery by reason",
	}, []string{"reason"})
	m.EnrichFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lotbridge",
		Name:      "enrichment_failures_total",
		Help:      "Failed best-effort enrichment calls by service",
	}, []string{"service"})
	m.DeliveryErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "lotbridge",
		Name:      "delivery_errors_total",
		Help:      "Messaging channel delivery failures",
	})

	m.registry.MustRegister(m.LotsReceived, m.Sent, m.Skipped, m.EnrichFailures, m.DeliveryErrors)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
