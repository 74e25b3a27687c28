// Package metrics defines the Prometheus collectors shared by both services.
//
// A Metrics value is built once per process against an explicit registry and
// handed to handlers and event components. All methods are safe on a nil
// *Metrics so tests can leave it unset.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup outcomes.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheCorrupt = "corrupt"
	CacheError   = "error"
)

// Metrics holds every collector the services record to.
type Metrics struct {
	reg *prometheus.Registry

	cacheLookups       *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	eventsPublished    *prometheus.CounterVec
	eventsReceived     *prometheus.CounterVec
}

// New creates a registry with Go/process collectors plus the service collectors.
// service is attached as a constant label so both services can share a dashboard.
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	constLabels := prometheus.Labels{"service": service}
	m := &Metrics{
		reg: reg,
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "habitual",
			Name:        "cache_lookups_total",
			Help:        "Habits cache lookups by outcome.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		cacheInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "habitual",
			Name:        "cache_invalidations_total",
			Help:        "Habits cache invalidations by trigger and outcome.",
			ConstLabels: constLabels,
		}, []string{"trigger", "result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "habitual",
			Name:        "events_published_total",
			Help:        "Change events published by type and outcome.",
			ConstLabels: constLabels,
		}, []string{"type", "result"}),
		eventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "habitual",
			Name:        "events_received_total",
			Help:        "Change events received by type; undecodable payloads count as type \"invalid\".",
			ConstLabels: constLabels,
		}, []string{"type"}),
	}
	reg.MustRegister(m.cacheLookups, m.cacheInvalidations, m.eventsPublished, m.eventsReceived)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// CacheLookup records one habits cache lookup with the given result.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CacheInvalidation records a cache delete. trigger is "write" or "event".
func (m *Metrics) CacheInvalidation(trigger string, err error) {
	if m == nil {
		return
	}
	m.cacheInvalidations.WithLabelValues(trigger, result(err)).Inc()
}

// EventPublished records a publish attempt for eventType.
func (m *Metrics) EventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType, result(err)).Inc()
}

// EventReceived records a delivered event.
func (m *Metrics) EventReceived(eventType string) {
	if m == nil {
		return
	}
	m.eventsReceived.WithLabelValues(eventType).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
