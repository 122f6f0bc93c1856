package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks ledger and scoring activity.
type EngineMetrics struct {
	earnings       *prometheus.CounterVec
	earningFailure *prometheus.CounterVec
	trustUpdates   *prometheus.CounterVec
	notifyDropped  *prometheus.CounterVec
	ledgerDrift    prometheus.Gauge
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	earnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_earnings_recorded_total",
		Help: "Referral earning events committed to the ledger.",
	}, []string{"activity_type"})
	earningFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "referral_earnings_failed_total",
		Help: "Referral earning events rolled back.",
	}, []string{"activity_type"})
	trustUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trust_score_updates_total",
		Help: "Trust score update attempts by outcome.",
	}, []string{"outcome"})
	notifyDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_events_dropped_total",
		Help: "Change events dropped because a subscriber buffer was full.",
	}, []string{"channel"})
	ledgerDrift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "referral_ledger_drift_records",
		Help: "Referral rows whose earnings_total disagrees with the ledger at the last reconciliation.",
	})
	reg.MustRegister(earnings, earningFailure, trustUpdates, notifyDropped, ledgerDrift)
	return &EngineMetrics{
		earnings:       earnings,
		earningFailure: earningFailure,
		trustUpdates:   trustUpdates,
		notifyDropped:  notifyDropped,
		ledgerDrift:    ledgerDrift,
	}
}

// IncEarning counts a committed earning event.
func (m *EngineMetrics) IncEarning(activityType string) {
	if m == nil || m.earnings == nil {
		return
	}
	m.earnings.WithLabelValues(normalizeLabel(activityType)).Inc()
}

// IncEarningFailure counts a rolled back earning event.
func (m *EngineMetrics) IncEarningFailure(activityType string) {
	if m == nil || m.earningFailure == nil {
		return
	}
	m.earningFailure.WithLabelValues(normalizeLabel(activityType)).Inc()
}

// IncTrustUpdate counts a trust update by outcome (updated, replayed, failed).
func (m *EngineMetrics) IncTrustUpdate(outcome string) {
	if m == nil || m.trustUpdates == nil {
		return
	}
	m.trustUpdates.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncNotifyDropped counts an event dropped for a slow subscriber.
func (m *EngineMetrics) IncNotifyDropped(channel string) {
	if m == nil || m.notifyDropped == nil {
		return
	}
	m.notifyDropped.WithLabelValues(normalizeLabel(channel)).Inc()
}

// SetLedgerDrift records the number of drifting referral rows.
func (m *EngineMetrics) SetLedgerDrift(count int) {
	if m == nil || m.ledgerDrift == nil {
		return
	}
	m.ledgerDrift.Set(float64(count))
}
