package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/services"
	"github.com/temcen/reelmatch/pkg/models"
)

type InteractionHandler struct {
	logger      *logrus.Logger
	feedbackSvc services.FeedbackServiceInterface
	validator   *validator.Validate
}

func NewInteractionHandler(logger *logrus.Logger, feedbackSvc services.FeedbackServiceInterface) *InteractionHandler {
	return &InteractionHandler{
		logger:      logger,
		feedbackSvc: feedbackSvc,
		validator:   validator.New(),
	}
}

// Record handles POST /interactions. Asynchronous application answers 202.
func (h *InteractionHandler) Record(c *gin.Context) {
	var req models.InteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Debug("Failed to bind interaction request")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Invalid request format",
				"details": err.Error(),
			},
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Request validation failed",
				"details": err.Error(),
			},
		})
		return
	}

	if !authorizeUser(c, req.UserID) {
		return
	}

	resp, err := h.feedbackSvc.RecordInteraction(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrMediaNotFound) {
			respondError(c, http.StatusNotFound, "MEDIA_NOT_FOUND", "Media not found")
			return
		}
		h.logger.WithError(err).WithField("user_id", req.UserID).Error("Failed to record interaction")
		respondError(c, http.StatusInternalServerError, "INTERACTION_FAILED", "Failed to record interaction")
		return
	}

	status := http.StatusCreated
	if resp.Async {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{
		"data":    resp,
		"message": "Interaction recorded successfully",
	})
}
