package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/middleware"
	"github.com/temcen/reelmatch/internal/services"
	"github.com/temcen/reelmatch/pkg/models"
)

const (
	defaultCount = 10
	maxCount     = 100
)

type RecommendationHandler struct {
	service services.RecommendationServiceInterface
	logger  *logrus.Logger
}

func NewRecommendationHandler(service services.RecommendationServiceInterface, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		logger:  logger,
	}
}

// Get handles GET /recommendations/:userId?count=&genres=
func (h *RecommendationHandler) Get(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "User ID is required")
		return
	}
	if !authorizeUser(c, userID) {
		return
	}

	count, ok := parseCount(c)
	if !ok {
		return
	}

	genreIDs, err := middleware.ParseIntList(c.Query("genres"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_GENRES", "Genres must be a comma-separated list of integers")
		return
	}

	result, err := h.service.Recommend(c.Request.Context(), userID, count, genreIDs)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to generate recommendations")
		respondError(c, http.StatusInternalServerError, "RECOMMENDATION_GENERATION_FAILED", "Failed to generate recommendations")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSimilar handles GET /media/:mediaId/similar?count=
func (h *RecommendationHandler) GetSimilar(c *gin.Context) {
	mediaID, err := strconv.Atoi(c.Param("mediaId"))
	if err != nil || mediaID <= 0 {
		respondError(c, http.StatusBadRequest, "INVALID_MEDIA_ID", "Media ID must be a positive integer")
		return
	}

	count, ok := parseCount(c)
	if !ok {
		return
	}

	result, err := h.service.SimilarTo(c.Request.Context(), mediaID, count)
	if err != nil {
		if errors.Is(err, services.ErrMediaNotFound) {
			respondError(c, http.StatusNotFound, "MEDIA_NOT_FOUND", "Media not found")
			return
		}
		h.logger.WithError(err).WithField("media_id", mediaID).Error("Failed to find similar content")
		respondError(c, http.StatusInternalServerError, "SIMILAR_CONTENT_FAILED", "Failed to find similar content")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSimilarity handles GET /media/similarity?a=&b=
func (h *RecommendationHandler) GetSimilarity(c *gin.Context) {
	a, errA := strconv.Atoi(c.Query("a"))
	b, errB := strconv.Atoi(c.Query("b"))
	if errA != nil || errB != nil || a <= 0 || b <= 0 {
		respondError(c, http.StatusBadRequest, "INVALID_MEDIA_ID", "Query parameters a and b must be positive integers")
		return
	}

	similarity, err := h.service.Similarity(c.Request.Context(), a, b)
	if err != nil {
		if errors.Is(err, services.ErrMediaNotFound) {
			respondError(c, http.StatusNotFound, "MEDIA_NOT_FOUND", "Media not found")
			return
		}
		h.logger.WithError(err).Error("Failed to calculate similarity")
		respondError(c, http.StatusInternalServerError, "SIMILARITY_FAILED", "Failed to calculate similarity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"a":          a,
		"b":          b,
		"similarity": similarity,
	})
}

// Analyze handles POST /analyze
func (h *RecommendationHandler) Analyze(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
		return
	}

	c.JSON(http.StatusOK, h.service.Analyze(req.Text))
}

func parseCount(c *gin.Context) (int, bool) {
	raw := c.Query("count")
	if raw == "" {
		return defaultCount, true
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 1 || count > maxCount {
		respondError(c, http.StatusBadRequest, "INVALID_COUNT", "Count must be an integer between 1 and 100")
		return 0, false
	}
	return count, true
}
