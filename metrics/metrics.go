// Package metrics provides Prometheus metrics for template fetching and the HTTP server.
//
// Fetch metrics:
//   - template_fetch_total: Counter with a result label (ok, error)
//   - template_fetch_duration_seconds: Histogram of per-source fetch time
//   - template_elements_written: Gauge with the size of the last saved collection
//   - template_last_save_timestamp_seconds: Gauge with the time of the last save
//
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// All metrics are registered with the Prometheus default registry during package initialization.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	TemplateFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_fetch_total",
			Help: "Template source fetch attempts by result",
		},
		[]string{"result"},
	)

	TemplateFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "template_fetch_duration_seconds",
			Help:    "Time spent fetching and parsing one template source",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	TemplateElementsWritten = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "template_elements_written",
			Help: "Number of templates in the last saved collection",
		},
	)

	LastSaveTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "template_last_save_timestamp_seconds",
			Help: "Unix time of the last successful save",
		},
	)

	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets",
		},
	)
)

func init() {
	prometheus.MustRegister(TemplateFetchTotal)
	prometheus.MustRegister(TemplateFetchDuration)
	prometheus.MustRegister(TemplateElementsWritten)
	prometheus.MustRegister(LastSaveTimestamp)
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
}

// WriteTextfile dumps the default registry in the text exposition format, for
// node_exporter's textfile collector after one-shot runs.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
