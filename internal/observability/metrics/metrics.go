package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Common label names for consistent metrics
const (
	LabelStatus   = "status"
	LabelMethod   = "method"
	LabelRoute    = "route"
	LabelClass    = "class"
	LabelOutcome  = "outcome"
	LabelCause    = "cause"
	LabelProvider = "provider"
	LabelSuccess  = "success"
	LabelSource   = "source"
	LabelResult   = "result"
)

var (
	// RequestsTotal counts all HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelRoute, LabelStatus},
	)

	// RequestDuration tracks the duration of HTTP requests
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelRoute},
	)

	// GateDecisionsTotal counts admin gate outcomes by path class and failure cause
	GateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_gate_decisions_total",
			Help: "Total number of access gate decisions",
		},
		[]string{LabelClass, LabelOutcome, LabelCause},
	)

	// AuthenticationTotal counts credential validations by provider and outcome
	AuthenticationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_authentication_total",
			Help: "Total number of credential validations",
		},
		[]string{LabelProvider, LabelSuccess},
	)

	// ContentFetchTotal counts content store reads by source and result
	ContentFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_content_fetch_total",
			Help: "Total number of content store reads",
		},
		[]string{LabelSource, LabelResult},
	)

	// ContentFetchDuration tracks the duration of content store requests
	ContentFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_content_fetch_duration_seconds",
			Help:    "Duration of content store requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelSource},
	)
)

// Collector provides methods for recording metrics
type Collector struct{}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{}
}

// RecordRequest records metrics for an HTTP request
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, route, http.StatusText(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGateDecision records one evaluation of the admin gate
func (c *Collector) RecordGateDecision(class, outcome, cause string) {
	GateDecisionsTotal.WithLabelValues(class, outcome, cause).Inc()
}

// RecordAuthentication records a credential validation
func (c *Collector) RecordAuthentication(provider string, success bool) {
	AuthenticationTotal.WithLabelValues(provider, boolToString(success)).Inc()
}

// RecordContentFetch records a content read served from source ("cache" or "store")
func (c *Collector) RecordContentFetch(source, result string, duration time.Duration) {
	ContentFetchTotal.WithLabelValues(source, result).Inc()
	ContentFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// Handler returns an HTTP handler for exposing metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// boolToString converts a boolean to a string representation
func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
