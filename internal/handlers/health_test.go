package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/reelmatch/internal/services"
)

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		status   string
		expected int
	}{
		{"healthy", http.StatusOK},
		{"degraded", http.StatusOK},
		{"unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			checker := new(MockHealthChecker)
			checker.On("CheckHealth", mock.Anything).Return(&services.HealthStatus{
				Status:   tt.status,
				Services: map[string]string{"postgresql": "healthy"},
			})
			router := newTestRouter("")
			router.GET("/health", NewHealthHandler(testLogger(), checker).Check)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expected, w.Code)
			assert.Contains(t, w.Body.String(), `"status":"`+tt.status+`"`)
		})
	}
}

func TestHealthHandler_CheckUnknownStatus(t *testing.T) {
	checker := new(MockHealthChecker)
	checker.On("CheckHealth", mock.Anything).Return(&services.HealthStatus{Status: "starting"})
	router := newTestRouter("")
	router.GET("/health", NewHealthHandler(testLogger(), checker).Check)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthHandler_CheckBoundsContext(t *testing.T) {
	checker := new(MockHealthChecker)
	checker.On("CheckHealth", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})).Return(&services.HealthStatus{Status: "healthy"})
	router := newTestRouter("")
	router.GET("/health", NewHealthHandler(testLogger(), checker).Check)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	checker.AssertExpectations(t)
}

func TestHealthHandler_Live(t *testing.T) {
	checker := new(MockHealthChecker)
	router := newTestRouter("")
	router.GET("/health/live", NewHealthHandler(testLogger(), checker).Live)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"alive"`)
	checker.AssertNotCalled(t, "CheckHealth", mock.Anything)
}

func TestMetricsHandler_Serve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := services.NewMetrics(reg)
	metrics.RecordFeedbackDecision("accepted")

	router := newTestRouter("")
	router.GET("/metrics", NewMetricsHandler(reg).Serve)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `recommendation_feedback_total{list="accepted"} 1`)
}
