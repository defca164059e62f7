package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LoyaltyMetrics holds the service's Prometheus collectors.
type LoyaltyMetrics struct {
	pointsAwarded  prometheus.Counter
	pointsRedeemed prometheus.Counter
	transactions   *prometheus.CounterVec
	redemptions    *prometheus.CounterVec
	scans          *prometheus.CounterVec
	ledgerDrift    prometheus.Gauge
	bannersActive  prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

var (
	loyaltyOnce     sync.Once
	loyaltyRegistry *LoyaltyMetrics
)

// Loyalty returns the process-wide metrics, registering them on first use.
func Loyalty() *LoyaltyMetrics {
	loyaltyOnce.Do(func() {
		loyaltyRegistry = &LoyaltyMetrics{
			pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_points_awarded_total",
				Help: "Points credited to members through awards.",
			}),
			pointsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "loyalty_points_redeemed_total",
				Help: "Points debited by processed redemptions.",
			}),
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_transactions_total",
				Help: "Ledger transactions appended by kind.",
			}, []string{"kind"}),
			redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_redemptions_total",
				Help: "Redemption request transitions by resulting status.",
			}, []string{"status"}),
			scans: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_scans_total",
				Help: "Dispatched QR scans by payload type and outcome.",
			}, []string{"type", "outcome"}),
			ledgerDrift: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "loyalty_ledger_drift_members",
				Help: "Members whose cached balance differs from their transaction sum at the last audit.",
			}),
			bannersActive: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "loyalty_banners_active",
				Help: "Unexpired notification banners held in memory.",
			}),
			httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "loyalty_http_requests_total",
				Help: "HTTP requests by method, route and status.",
			}, []string{"method", "route", "status"}),
			httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "loyalty_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route.",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route"}),
		}
		prometheus.MustRegister(
			loyaltyRegistry.pointsAwarded,
			loyaltyRegistry.pointsRedeemed,
			loyaltyRegistry.transactions,
			loyaltyRegistry.redemptions,
			loyaltyRegistry.scans,
			loyaltyRegistry.ledgerDrift,
			loyaltyRegistry.bannersActive,
			loyaltyRegistry.httpRequests,
			loyaltyRegistry.httpDuration,
		)
	})
	return loyaltyRegistry
}

func (m *LoyaltyMetrics) ObserveTransaction(kind string, amount int64) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.transactions.WithLabelValues(kind).Inc()
	switch {
	case kind == "award" && amount > 0:
		m.pointsAwarded.Add(float64(amount))
	case kind == "redemption" && amount < 0:
		m.pointsRedeemed.Add(float64(-amount))
	}
}

func (m *LoyaltyMetrics) ObserveRedemption(status string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(status).Inc()
}

func (m *LoyaltyMetrics) ObserveScan(payloadType, outcome string) {
	if m == nil {
		return
	}
	if payloadType == "" {
		payloadType = "unknown"
	}
	m.scans.WithLabelValues(payloadType, outcome).Inc()
}

func (m *LoyaltyMetrics) SetLedgerDrift(members int) {
	if m == nil {
		return
	}
	m.ledgerDrift.Set(float64(members))
}

func (m *LoyaltyMetrics) SetActiveBanners(n int) {
	if m == nil {
		return
	}
	m.bannersActive.Set(float64(n))
}

func (m *LoyaltyMetrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
