package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/pkg/models"
)

const (
	ContextUserID   = "user_id"
	ContextUserTier = "user_tier"
	ContextAPIKey   = "api_key"

	maxUserIDLength = 128
)

// TokenValidator is the part of services.AuthService the middleware needs.
type TokenValidator interface {
	ValidateAPIKey(apiKey string) (string, error)
	ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error)
}

// Auth accepts "Bearer <jwt>" or "Bearer <api key>". API-key callers act as
// the user named in X-User-ID, or as "apikey:<key>" when the header is absent.
func Auth(validator TokenValidator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "MISSING_AUTHORIZATION", "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || tokenParts[1] == "" {
			abortWithError(c, http.StatusUnauthorized, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}
		tokenString := tokenParts[1]

		// API keys carry no dots, JWTs always do
		if !strings.Contains(tokenString, ".") {
			userTier, err := validator.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				abortWithError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
				return
			}

			userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
			if len(userID) > maxUserIDLength {
				abortWithError(c, http.StatusBadRequest, "INVALID_USER_ID", "X-User-ID must be at most 128 characters")
				return
			}
			if userID == "" {
				userID = "apikey:" + tokenString
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextUserTier, userTier)
			c.Set(ContextAPIKey, tokenString)
			c.Next()
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserTier, claims.UserTier)
		c.Set(ContextAPIKey, claims.APIKey)
		c.Next()
	}
}

// GetUserFromContext returns the caller set by Auth; empty strings when absent.
func GetUserFromContext(c *gin.Context) (userID, userTier, apiKey string) {
	return c.GetString(ContextUserID), c.GetString(ContextUserTier), c.GetString(ContextAPIKey)
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
