package services

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.ObserveRecommendation("personal", "ok", time.Now(), 40)
	metrics.ObserveRecommendation("personal", "error", time.Now(), -1)
	metrics.RecordPreferenceUpdates("genre", "sync", 3)
	metrics.RecordPreferenceUpdates("keyword", "sync", 0)
	metrics.RecordFeedbackDecision("accepted")
	metrics.RecordProfileLookup("missing")
	metrics.SetConnectionPool("idle_conns", 4)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.recommendationRequests.WithLabelValues("personal", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.preferenceUpdates.WithLabelValues("genre", "sync")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.feedbackDecisions.WithLabelValues("accepted")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.dbConnectionPool.WithLabelValues("idle_conns")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.candidatesScored))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "recommendation_requests_total")
	assert.NotContains(t, names, "health_check_status")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var metrics *Metrics

	assert.NotPanics(t, func() {
		metrics.ObserveRecommendation("similar", "ok", time.Now(), 10)
		metrics.RecordPreferenceUpdates("genre", "async", 1)
		metrics.RecordFeedbackDecision("none")
		metrics.RecordProfileLookup("found")
		metrics.UpdateHealth("postgresql", true)
		metrics.SetConnectionPool("total_conns", 1)
	})
}
