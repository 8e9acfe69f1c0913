// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handoff outcomes recorded by the calendar authorization endpoint.
const (
	OutcomeIssued        = "issued"
	OutcomeUnauthorized  = "unauthorized"
	OutcomeNotConfigured = "not_configured"
	OutcomeInternalError = "internal_error"
)

// Recorder is the metrics surface used by handlers and the search catalogue.
type Recorder interface {
	RecordHandoff(outcome string)
	RecordHTTPStatus(statusCode int)
	RecordSearchLatency(duration time.Duration)
	RecordCatalogueReload(source string, err error)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	handoffs      *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	searchLatency prometheus.Histogram
	reloads       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubfinder_calendar_handoff_total",
			Help: "Calendar authorization handoff requests by outcome",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubfinder_http_status_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
		searchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clubfinder_search_latency_seconds",
			Help:    "Organization search latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubfinder_catalogue_reload_total",
			Help: "Organization catalogue reloads by source and result",
		}, []string{"source", "result"}),
	}

	reg.MustRegister(
		c.handoffs,
		c.httpStatus,
		c.searchLatency,
		c.reloads,
	)

	return c
}

func (c *Collector) RecordHandoff(outcome string) {
	c.handoffs.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordSearchLatency(duration time.Duration) {
	c.searchLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordCatalogueReload(source string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.reloads.WithLabelValues(source, result).Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordHandoff(string)                {}
func (Nop) RecordHTTPStatus(int)                {}
func (Nop) RecordSearchLatency(time.Duration)   {}
func (Nop) RecordCatalogueReload(string, error) {}

// Handler serves the gathered metrics for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
