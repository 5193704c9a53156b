package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors. Every method is safe to
// call on a nil *Metrics so components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	ClicksRecorded          prometheus.Counter
	ClicksRejected          prometheus.Counter
	ConversionsCreated      *prometheus.CounterVec
	CommissionCents         prometheus.Counter
	ConversionStatusChanges *prometheus.CounterVec
	PayoutsAcknowledged     prometheus.Counter
	PayoutsRecorded         prometheus.Counter
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ClicksRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affiliate_clicks_recorded_total",
			Help: "Clicks stored for a valid affiliate code",
		}),
		ClicksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affiliate_clicks_rejected_total",
			Help: "Click attempts carrying an unknown affiliate code",
		}),
		ConversionsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "affiliate_conversions_created_total",
				Help: "Conversions created, by source",
			},
			[]string{"source"},
		),
		CommissionCents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affiliate_commission_cents_total",
			Help: "Commission booked at conversion creation, in cents",
		}),
		ConversionStatusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "affiliate_conversion_status_changes_total",
				Help: "Conversion status transitions, by stored status",
			},
			[]string{"status"},
		),
		PayoutsAcknowledged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affiliate_payouts_acknowledged_total",
			Help: "Payouts acknowledged by their referrer",
		}),
		PayoutsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "affiliate_payouts_recorded_total",
			Help: "Payouts recorded by an admin",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ClicksRecorded,
		m.ClicksRejected,
		m.ConversionsCreated,
		m.CommissionCents,
		m.ConversionStatusChanges,
		m.PayoutsAcknowledged,
		m.PayoutsRecorded,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ClickRecorded() {
	if m != nil {
		m.ClicksRecorded.Inc()
	}
}

func (m *Metrics) ClickRejected() {
	if m != nil {
		m.ClicksRejected.Inc()
	}
}

func (m *Metrics) ConversionCreated(source string, commissionCents int64) {
	if m != nil {
		m.ConversionsCreated.WithLabelValues(source).Inc()
		m.CommissionCents.Add(float64(commissionCents))
	}
}

func (m *Metrics) ConversionStatusChanged(status string) {
	if m != nil {
		m.ConversionStatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) PayoutAcknowledged() {
	if m != nil {
		m.PayoutsAcknowledged.Inc()
	}
}

func (m *Metrics) PayoutRecorded() {
	if m != nil {
		m.PayoutsRecorded.Inc()
	}
}
