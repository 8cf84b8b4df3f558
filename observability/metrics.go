package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AirdropMetrics records claim protocol activity for the /metrics endpoint.
type AirdropMetrics struct {
	claims  *prometheus.CounterVec
	latency prometheus.Histogram
	admin   *prometheus.CounterVec
}

var (
	airdropMetricsOnce sync.Once
	airdropRegistry    *AirdropMetrics
)

// Airdrop returns the lazily-initialised airdrop metrics registry.
func Airdrop() *AirdropMetrics {
	airdropMetricsOnce.Do(func() {
		airdropRegistry = &AirdropMetrics{
			claims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dropvest",
				Subsystem: "airdrop",
				Name:      "claims_total",
				Help:      "Total claim attempts segmented by outcome.",
			}, []string{"outcome"}),
			latency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "dropvest",
				Subsystem: "airdrop",
				Name:      "claim_duration_seconds",
				Help:      "Latency distribution for claim processing.",
				Buckets:   prometheus.DefBuckets,
			}),
			admin: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "dropvest",
				Subsystem: "airdrop",
				Name:      "admin_ops_total",
				Help:      "Administrative operations segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
		}
		prometheus.MustRegister(
			airdropRegistry.claims,
			airdropRegistry.latency,
			airdropRegistry.admin,
		)
	})
	return airdropRegistry
}

// ObserveClaim records one claim attempt and its processing time.
func (m *AirdropMetrics) ObserveClaim(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(outcome).Inc()
	m.latency.Observe(time.Since(started).Seconds())
}

// ObserveAdmin records one administrative operation.
func (m *AirdropMetrics) ObserveAdmin(op, outcome string) {
	if m == nil {
		return
	}
	m.admin.WithLabelValues(op, outcome).Inc()
}
