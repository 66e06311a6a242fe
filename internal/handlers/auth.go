package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/services"
	"github.com/temcen/reelmatch/pkg/models"
)

type AuthHandler struct {
	logger *logrus.Logger
	auth   services.Authenticator
}

func NewAuthHandler(logger *logrus.Logger, auth services.Authenticator) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		auth:   auth,
	}
}

// Token handles POST /auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.APIKey == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "api_key is required")
		return
	}

	resp, err := h.auth.Authenticate(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			respondError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
			return
		}
		h.logger.WithError(err).Error("Failed to issue token")
		respondError(c, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED", "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, resp)
}
