package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/reelmatch/internal/validation"
)

func newValidationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	validator, err := validation.NewEmbeddedValidator()
	require.NoError(t, err)
	vm := NewValidationMiddleware(validator)

	router := gin.New()
	router.Use(RequestID())
	router.POST("/interactions", vm.ValidateHeaders(), vm.ValidateInteraction(), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	router.GET("/media/:mediaId/similar", vm.ValidateQueryParams(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/recommendations/:userId", vm.ValidateQueryParams(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestValidateInteraction_Body(t *testing.T) {
	router := newValidationRouter(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"valid body reaches handler", "application/json", `{"user_id":"u1","media_id":550,"rating":4}`, http.StatusOK, ""},
		{"missing content type", "", `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"wrong content type", "text/plain", `{}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"empty body", "application/json", ``, http.StatusBadRequest, "EMPTY_BODY"},
		{"malformed json", "application/json", `{"user_id":`, http.StatusBadRequest, "INVALID_JSON"},
		{"schema violation", "application/json", `{"user_id":"u1","media_id":550,"rating":9}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
				assert.Contains(t, w.Body.String(), `"path":"/interactions"`)
			} else {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestValidateQueryParams(t *testing.T) {
	router := newValidationRouter(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/media/550/similar?count=10", http.StatusOK},
		{"/media/550/similar", http.StatusOK},
		{"/media/abc/similar", http.StatusBadRequest},
		{"/media/0/similar", http.StatusBadRequest},
		{"/media/550/similar?count=0", http.StatusBadRequest},
		{"/media/550/similar?count=101", http.StatusBadRequest},
		{"/recommendations/u1?genres=28,35", http.StatusOK},
		{"/recommendations/u1?genres=28,action", http.StatusBadRequest},
		{"/recommendations/" + strings.Repeat("x", 129), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestParseIntList(t *testing.T) {
	values, err := ParseIntList("28, 35,18")
	require.NoError(t, err)
	assert.Equal(t, []int{28, 35, 18}, values)

	values, err = ParseIntList("  ")
	require.NoError(t, err)
	assert.Nil(t, values)

	_, err = ParseIntList("1,,2")
	assert.Error(t, err)
}
