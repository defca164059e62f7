package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLoyaltyIsSingleton(t *testing.T) {
	assert.Same(t, Loyalty(), Loyalty())
}

func TestObserveTransaction(t *testing.T) {
	m := Loyalty()
	before := testutil.ToFloat64(m.pointsAwarded)

	m.ObserveTransaction("award", 20)
	m.ObserveTransaction("redemption", -5)

	assert.Equal(t, before+20, testutil.ToFloat64(m.pointsAwarded))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.pointsRedeemed), 5.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.transactions.WithLabelValues("award")), 1.0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *LoyaltyMetrics
	m.ObserveTransaction("award", 1)
	m.ObserveScan("user", "ok")
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.SetLedgerDrift(2)
}
