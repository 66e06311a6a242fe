package models

import (
	"time"

	"github.com/google/uuid"
)

// PreferenceUpdateEvent carries one processed interaction from the API to the
// profile store. The same event is applied synchronously or consumed from Kafka.
type PreferenceUpdateEvent struct {
	EventID      uuid.UUID          `json:"event_id"`
	UserID       string             `json:"user_id"`
	Interaction  UserInteraction    `json:"interaction"`
	Media        Media              `json:"media"`
	Updates      []PreferenceUpdate `json:"updates"`
	FeedbackList string             `json:"feedback_list"`
	CreatedAt    time.Time          `json:"created_at"`
}

// NewPreferenceUpdateEvent stamps a new event id and creation time.
func NewPreferenceUpdateEvent(userID string, interaction UserInteraction, media Media, updates []PreferenceUpdate, feedbackList string) *PreferenceUpdateEvent {
	return &PreferenceUpdateEvent{
		EventID:      uuid.New(),
		UserID:       userID,
		Interaction:  interaction,
		Media:        media,
		Updates:      updates,
		FeedbackList: feedbackList,
		CreatedAt:    time.Now(),
	}
}
