package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/middleware"
	"github.com/temcen/reelmatch/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Interaction    *InteractionHandler
	Media          *MediaHandler
	User           *UserHandler
	Auth           *AuthHandler
	Metrics        *MetricsHandler
}

func New(logger *logrus.Logger, svc *services.Services, gatherer prometheus.Gatherer) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, svc.Health),
		Recommendation: NewRecommendationHandler(svc.Recommendation, logger),
		Interaction:    NewInteractionHandler(logger, svc.Feedback),
		Media:          NewMediaHandler(logger, svc.Catalog),
		User:           NewUserHandler(logger, svc.Profiles),
		Auth:           NewAuthHandler(logger, svc.Auth),
		Metrics:        NewMetricsHandler(gatherer),
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// authorizeUser allows callers to act on their own user id. API-key callers
// without X-User-ID act as a service account and may address any user.
func authorizeUser(c *gin.Context, userID string) bool {
	caller, _, _ := middleware.GetUserFromContext(c)
	if caller == "" || caller == userID || strings.HasPrefix(caller, "apikey:") {
		return true
	}
	respondError(c, http.StatusForbidden, "FORBIDDEN", "Cannot access another user's data")
	return false
}
