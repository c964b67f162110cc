// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the thinkstream gateway and its stream normalizer.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkstream_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thinkstream_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// StreamsActive tracks the number of normalized streams currently being pumped.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "thinkstream_streams_active",
			Help: "Active normalized streams",
		},
	)

	// StreamsTotal counts finished streams by provider and outcome
	// ("completed", "error", "cancelled").
	StreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkstream_streams_total",
			Help: "Finished normalized streams",
		},
		[]string{"provider", "outcome"},
	)

	// StreamRecordsTotal counts decoded records by wire schema and kind
	// ("delta", "terminator", "skip", "malformed").
	StreamRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkstream_stream_records_total",
			Help: "Decoded stream records",
		},
		[]string{"schema", "kind"},
	)

	// ReasoningSpansTotal counts reasoning spans opened in normalized output.
	ReasoningSpansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkstream_reasoning_spans_total",
			Help: "Reasoning spans emitted",
		},
		[]string{"provider"},
	)

	// ProviderRequestsTotal counts requests sent to backend LLM providers.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkstream_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "model", "status"},
	)

	// ProviderLatency records backend provider latency in seconds, measured
	// until response headers arrive.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thinkstream_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// AuthRejectedTotal counts requests rejected by the auth chain.
	AuthRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thinkstream_auth_rejected_total",
			Help: "Authentication rejections",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamsActive,
		StreamsTotal,
		StreamRecordsTotal,
		ReasoningSpansTotal,
		ProviderRequestsTotal,
		ProviderLatency,
		AuthRejectedTotal,
	)
}
