package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments of the service layer. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	recommendationRequests *prometheus.CounterVec
	recommendationLatency  prometheus.Histogram
	candidatesScored       prometheus.Histogram
	preferenceUpdates      *prometheus.CounterVec
	feedbackDecisions      *prometheus.CounterVec
	profileCache           *prometheus.CounterVec
	healthCheckStatus      *prometheus.GaugeVec
	lastHealthCheck        *prometheus.GaugeVec
	dbConnectionPool       *prometheus.GaugeVec
}

// NewMetrics registers all instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		recommendationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests by outcome",
		}, []string{"kind", "status"}),

		recommendationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_latency_seconds",
			Help:    "Recommendation request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		}),

		candidatesScored: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_candidates_scored",
			Help:    "Size of the candidate pool scored per request",
			Buckets: prometheus.ExponentialBuckets(10, 2, 8),
		}),

		preferenceUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "preference_updates_total",
			Help: "Preference updates emitted from interactions",
		}, []string{"type", "mode"}),

		feedbackDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_feedback_total",
			Help: "Feedback list decisions taken for interactions",
		}, []string{"list"}),

		profileCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "profile_lookups_total",
			Help: "Profile lookups by result",
		}, []string{"result"}),

		healthCheckStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "health_check_status",
			Help: "Health check status (1 = healthy, 0 = unhealthy)",
		}, []string{"service"}),

		lastHealthCheck: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "health_check_timestamp",
			Help: "Timestamp of last health check",
		}, []string{"service"}),

		dbConnectionPool: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "database_connection_pool",
			Help: "PostgreSQL connection pool statistics",
		}, []string{"state"}),
	}
}

func (m *Metrics) ObserveRecommendation(kind, status string, started time.Time, candidates int) {
	if m == nil {
		return
	}
	m.recommendationRequests.WithLabelValues(kind, status).Inc()
	m.recommendationLatency.Observe(time.Since(started).Seconds())
	if candidates >= 0 {
		m.candidatesScored.Observe(float64(candidates))
	}
}

func (m *Metrics) RecordPreferenceUpdates(updateType, mode string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.preferenceUpdates.WithLabelValues(updateType, mode).Add(float64(n))
}

func (m *Metrics) RecordFeedbackDecision(list string) {
	if m == nil {
		return
	}
	m.feedbackDecisions.WithLabelValues(list).Inc()
}

func (m *Metrics) RecordProfileLookup(result string) {
	if m == nil {
		return
	}
	m.profileCache.WithLabelValues(result).Inc()
}

func (m *Metrics) UpdateHealth(service string, healthy bool) {
	if m == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1
	}
	m.healthCheckStatus.WithLabelValues(service).Set(value)
	m.lastHealthCheck.WithLabelValues(service).Set(float64(time.Now().Unix()))
}

func (m *Metrics) SetConnectionPool(state string, value float64) {
	if m == nil {
		return
	}
	m.dbConnectionPool.WithLabelValues(state).Set(value)
}
