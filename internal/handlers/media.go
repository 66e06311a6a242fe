package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/services"
	"github.com/temcen/reelmatch/pkg/models"
)

type MediaHandler struct {
	logger    *logrus.Logger
	catalog   services.MediaCatalog
	validator *validator.Validate
}

func NewMediaHandler(logger *logrus.Logger, catalog services.MediaCatalog) *MediaHandler {
	return &MediaHandler{
		logger:    logger,
		catalog:   catalog,
		validator: validator.New(),
	}
}

// Upsert handles POST /media with a JSON array of catalog items.
func (h *MediaHandler) Upsert(c *gin.Context) {
	var items []models.Media
	if err := c.ShouldBindJSON(&items); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be a JSON array of media items")
		return
	}
	if len(items) == 0 {
		respondError(c, http.StatusBadRequest, "EMPTY_BATCH_REQUEST", "At least one media item is required")
		return
	}
	for i := range items {
		if err := h.validator.Struct(&items[i]); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}
	}

	if err := h.catalog.UpsertMedia(c.Request.Context(), items); err != nil {
		h.logger.WithError(err).WithField("count", len(items)).Error("Failed to upsert media")
		respondError(c, http.StatusInternalServerError, "MEDIA_UPSERT_FAILED", "Failed to store media items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upserted": len(items),
	})
}

// Get handles GET /media/:mediaId
func (h *MediaHandler) Get(c *gin.Context) {
	mediaID, err := strconv.Atoi(c.Param("mediaId"))
	if err != nil || mediaID <= 0 {
		respondError(c, http.StatusBadRequest, "INVALID_MEDIA_ID", "Media ID must be a positive integer")
		return
	}

	media, err := h.catalog.GetMedia(c.Request.Context(), mediaID)
	if err != nil {
		if errors.Is(err, services.ErrMediaNotFound) {
			respondError(c, http.StatusNotFound, "MEDIA_NOT_FOUND", "Media not found")
			return
		}
		h.logger.WithError(err).WithField("media_id", mediaID).Error("Failed to load media")
		respondError(c, http.StatusInternalServerError, "MEDIA_LOOKUP_FAILED", "Failed to load media")
		return
	}

	c.JSON(http.StatusOK, media)
}
