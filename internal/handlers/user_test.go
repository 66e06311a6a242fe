package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/reelmatch/internal/services"
	"github.com/temcen/reelmatch/pkg/models"
)

func TestUserHandler_GetProfile(t *testing.T) {
	profiles := new(MockProfileReader)
	router := newTestRouter("user-1")
	router.GET("/users/:userId/profile", NewUserHandler(testLogger(), profiles).GetProfile)

	profile := models.NewUserProfile("user-1")
	profile.Preferences.Genres["18"] = 1.5
	profiles.On("GetProfile", mock.Anything, "user-1").Return(profile, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/user-1/profile", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"18":1.5`)
}

func TestUserHandler_GetProfile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		caller string
		err    error
		status int
	}{
		{"not found", "user-1", services.ErrProfileNotFound, http.StatusNotFound},
		{"store failure", "user-1", errors.New("db down"), http.StatusInternalServerError},
		{"other user", "user-2", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := new(MockProfileReader)
			if tt.err != nil {
				profiles.On("GetProfile", mock.Anything, "user-1").Return(nil, tt.err)
			}
			router := newTestRouter(tt.caller)
			router.GET("/users/:userId/profile", NewUserHandler(testLogger(), profiles).GetProfile)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/user-1/profile", nil))

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuthHandler_Token(t *testing.T) {
	auth := new(MockAuthenticator)
	router := newTestRouter("")
	router.POST("/auth/token", NewAuthHandler(testLogger(), auth).Token)

	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	auth.On("Authenticate", mock.Anything, &models.AuthRequest{APIKey: "good", UserID: "user-1"}).
		Return(&models.AuthResponse{Token: "a.b.c", ExpiresAt: expires, UserTier: "free"}, nil)
	auth.On("Authenticate", mock.Anything, &models.AuthRequest{APIKey: "bad"}).
		Return(nil, services.ErrInvalidAPIKey)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"api_key":"good","user_id":"user-1"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"a.b.c","expires_at":"2030-01-01T00:00:00Z","user_tier":"free"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"api_key":"bad"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
