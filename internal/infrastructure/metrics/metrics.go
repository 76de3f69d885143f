package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the case workflow
type Metrics struct {
	Operations       *prometheus.CounterVec
	PushFailures     prometheus.Counter
	PushDeliveries   *prometheus.CounterVec
	EvidenceBytes    prometheus.Histogram
	HTTPRequestTotal *prometheus.CounterVec
	HTTPLatency      *prometheus.HistogramVec
}

// New registers all collectors with reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mediation_operations_total",
			Help: "Workflow operations by name and outcome",
		}, []string{"operation", "outcome"}),
		PushFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "mediation_push_failures_total",
			Help: "Push events that could not be handed to the notifier",
		}),
		PushDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mediation_push_deliveries_total",
			Help: "Push deliveries per sink and result",
		}, []string{"sink", "result"}),
		EvidenceBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mediation_evidence_bytes",
			Help:    "Size of uploaded evidence files",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		HTTPRequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mediation_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediation_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveOperation counts one workflow operation outcome
func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// ObservePushFailure counts a push event the notifier rejected
func (m *Metrics) ObservePushFailure() {
	m.PushFailures.Inc()
}

// ObserveDelivery counts one sink delivery
func (m *Metrics) ObserveDelivery(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PushDeliveries.WithLabelValues(sink, result).Inc()
}

// ObserveEvidence records an uploaded file size
func (m *Metrics) ObserveEvidence(size int) {
	m.EvidenceBytes.Observe(float64(size))
}

// ObserveHTTP records one served request. route is the matched pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	m.HTTPRequestTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
