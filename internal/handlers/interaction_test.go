package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/reelmatch/internal/services"
	"github.com/temcen/reelmatch/pkg/models"
)

func postInteraction(handler *InteractionHandler, caller, body string) *httptest.ResponseRecorder {
	router := newTestRouter(caller)
	router.POST("/interactions", handler.Record)

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInteractionHandler_Record(t *testing.T) {
	matchesRequest := mock.MatchedBy(func(req *models.InteractionRequest) bool {
		return req.UserID == "user-1" && req.MediaID == 550 && req.Rating == 4.5 && req.Completed
	})

	t.Run("applied synchronously", func(t *testing.T) {
		svc := new(MockFeedbackService)
		svc.On("RecordInteraction", mock.Anything, matchesRequest).Return(&models.InteractionResponse{
			UserID:       "user-1",
			FeedbackList: models.FeedbackAccepted,
		}, nil)

		w := postInteraction(NewInteractionHandler(testLogger(), svc), "user-1",
			`{"user_id":"user-1","media_id":550,"rating":4.5,"watch_duration":139,"completed":true}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"feedback_list":"accepted"`)
		svc.AssertExpectations(t)
	})

	t.Run("queued", func(t *testing.T) {
		svc := new(MockFeedbackService)
		svc.On("RecordInteraction", mock.Anything, matchesRequest).Return(&models.InteractionResponse{UserID: "user-1", Async: true}, nil)

		w := postInteraction(NewInteractionHandler(testLogger(), svc), "user-1",
			`{"user_id":"user-1","media_id":550,"rating":4.5,"completed":true}`)

		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestInteractionHandler_Record_Errors(t *testing.T) {
	tests := []struct {
		name   string
		caller string
		body   string
		err    error
		status int
		code   string
	}{
		{"malformed json", "user-1", `{"user_id":`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"rating too high", "user-1", `{"user_id":"user-1","media_id":1,"rating":7}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing media", "user-1", `{"user_id":"user-1","rating":3}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"other user", "user-2", `{"user_id":"user-1","media_id":1,"rating":3}`, nil, http.StatusForbidden, "FORBIDDEN"},
		{"unknown media", "user-1", `{"user_id":"user-1","media_id":1,"rating":3}`, services.ErrMediaNotFound, http.StatusNotFound, "MEDIA_NOT_FOUND"},
		{"store failure", "user-1", `{"user_id":"user-1","media_id":1,"rating":3}`, errors.New("deadlock"), http.StatusInternalServerError, "INTERACTION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockFeedbackService)
			if tt.err != nil {
				svc.On("RecordInteraction", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			w := postInteraction(NewInteractionHandler(testLogger(), svc), tt.caller, tt.body)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
			if tt.err == nil {
				svc.AssertNotCalled(t, "RecordInteraction", mock.Anything, mock.Anything)
			}
		})
	}
}
