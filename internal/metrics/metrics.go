package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the security pipeline
type Metrics struct {
	RequestsChecked   prometheus.Counter
	RequestsRejected  *prometheus.CounterVec
	SecurityEvents    *prometheus.CounterVec
	SinkWriteFailures *prometheus.CounterVec
	BlockedClients    prometheus.Gauge
	WebhooksVerified  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all Prometheus metrics on the given registerer
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsChecked: factory.NewCounter(prometheus.CounterOpts{
			Name: "vitrine_security_requests_checked_total",
			Help: "Total number of requests inspected by the security pipeline",
		}),
		RequestsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_security_requests_rejected_total",
			Help: "Total number of requests rejected, labeled by reason",
		}, []string{"reason"}),
		SecurityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_security_events_total",
			Help: "Total number of security events recorded, labeled by type",
		}, []string{"event_type"}),
		SinkWriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_security_sink_write_failures_total",
			Help: "Total number of failed best-effort sink writes, labeled by channel",
		}, []string{"channel"}),
		BlockedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vitrine_security_blocked_clients",
			Help: "Current number of clients in the blocked state",
		}),
		WebhooksVerified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vitrine_webhook_verifications_total",
			Help: "Total number of webhook signature verifications, labeled by outcome",
		}, []string{"outcome"}),
	}
}
