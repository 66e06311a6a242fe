package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/services"
)

const readinessTimeout = 10 * time.Second

// Degraded still serves recommendations; only critical failures take the
// instance out of rotation.
var readinessStatus = map[string]int{
	"healthy":   http.StatusOK,
	"degraded":  http.StatusOK,
	"unhealthy": http.StatusServiceUnavailable,
}

type HealthHandler struct {
	logger  *logrus.Logger
	checker services.HealthChecker
	started time.Time
}

func NewHealthHandler(logger *logrus.Logger, checker services.HealthChecker) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		checker: checker,
		started: time.Now(),
	}
}

// Live reports process liveness without touching any backing store.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Check pings every dependency and maps the aggregate to a readiness code.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	report := h.checker.CheckHealth(ctx)

	code, known := readinessStatus[report.Status]
	if !known {
		code = http.StatusInternalServerError
	}
	if code != http.StatusOK || report.Status == "degraded" {
		h.logger.WithFields(logrus.Fields{
			"status":                report.Status,
			"critical_failures":     report.Critical,
			"non_critical_failures": report.NonCritical,
		}).Warn("Readiness check reported failures")
	}

	c.JSON(code, report)
}
