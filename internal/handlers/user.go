package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/services"
	"github.com/temcen/reelmatch/pkg/models"
)

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

type UserHandler struct {
	logger   *logrus.Logger
	profiles ProfileReader
}

func NewUserHandler(logger *logrus.Logger, profiles ProfileReader) *UserHandler {
	return &UserHandler{
		logger:   logger,
		profiles: profiles,
	}
}

// GetProfile handles GET /users/:userId/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.Param("userId")
	if !authorizeUser(c, userID) {
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondError(c, http.StatusNotFound, "PROFILE_NOT_FOUND", "User profile not found")
			return
		}
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load profile")
		respondError(c, http.StatusInternalServerError, "PROFILE_LOOKUP_FAILED", "Failed to load user profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}
