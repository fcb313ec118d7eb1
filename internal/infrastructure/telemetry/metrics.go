package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const metricsNamespace = "relief"

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the ledger's Prometheus collectors.
// Every collector is registered on the registry passed to NewMetrics.
type Metrics struct {
	registry *prometheus.Registry

	DonationsTotal      prometheus.Counter
	DonatedAmount       prometheus.Counter
	VouchersIssued      *prometheus.CounterVec
	VouchersRedeemed    prometheus.Counter
	VouchersExpired     prometheus.Counter
	AllocationRejected  prometheus.Counter
	TokenRetries        prometheus.Counter
	OperationDuration   *prometheus.HistogramVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg gets a fresh registry
// with the Go runtime and process collectors attached.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DonationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "donations_total",
			Help:      "Total number of committed donations",
		}),
		DonatedAmount: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "donated_amount_total",
			Help:      "Sum of committed donation amounts in USDC",
		}),
		VouchersIssued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vouchers_issued_total",
			Help:      "Total number of vouchers issued, by issuance path",
		}, []string{"path"}),
		VouchersRedeemed: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vouchers_redeemed_total",
			Help:      "Total number of vouchers redeemed",
		}),
		VouchersExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "vouchers_expired_total",
			Help:      "Total number of vouchers expired by the sweep",
		}),
		AllocationRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "allocation_rejections_total",
			Help:      "Voucher reservations refused because the zone allocation was exhausted",
		}),
		TokenRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "voucher_token_retries_total",
			Help:      "Voucher inserts retried after a redemption token collision",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations",
			Buckets:   durationBuckets,
		}, []string{"operation", "outcome"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   durationBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The recorders below are no-ops on a nil *Metrics so callers can leave metrics unset.

// RecordDonation counts a committed donation.
func (m *Metrics) RecordDonation(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.DonationsTotal.Inc()
	m.DonatedAmount.Add(amount.InexactFloat64())
}

// RecordVoucherIssued counts an issued voucher. path is "issue", "claim" or "donation".
func (m *Metrics) RecordVoucherIssued(path string) {
	if m == nil {
		return
	}
	m.VouchersIssued.WithLabelValues(path).Inc()
}

// ObserveOperation records the duration of a ledger operation started at start.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.OperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

// RecordVoucherRedeemed counts a redeemed voucher.
func (m *Metrics) RecordVoucherRedeemed() {
	if m == nil {
		return
	}
	m.VouchersRedeemed.Inc()
}

// RecordVoucherExpired counts a voucher moved to EXPIRED by the sweep.
func (m *Metrics) RecordVoucherExpired() {
	if m == nil {
		return
	}
	m.VouchersExpired.Inc()
}

// RecordAllocationRejected counts a reservation refused by the allocation cap.
func (m *Metrics) RecordAllocationRejected() {
	if m == nil {
		return
	}
	m.AllocationRejected.Inc()
}

// RecordTokenRetry counts a voucher insert retried after a token collision.
func (m *Metrics) RecordTokenRetry() {
	if m == nil {
		return
	}
	m.TokenRetries.Inc()
}
