package models

import "time"

// EntityExtraction is the heuristic parse of a free-text message.
type EntityExtraction struct {
	Genres         []string `json:"genres"`
	Actors         []string `json:"actors"`
	Directors      []string `json:"directors"`
	Keywords       []string `json:"keywords"`
	TimeReferences []string `json:"time_references"`
	Sentiment      float64  `json:"sentiment"`
}

// PreferenceUpdate is an instruction to add Weight to one preference entry.
type PreferenceUpdate struct {
	Type   string  `json:"type" validate:"required,oneof=genre actor director keyword year"`
	Value  string  `json:"value" validate:"required"`
	Weight float64 `json:"weight"`
}

type ScoreFactors struct {
	ContentBased       float64 `json:"content_based"`
	Collaborative      float64 `json:"collaborative"`
	PersonalPreference float64 `json:"personal_preference"`
	Recency            float64 `json:"recency"`
}

// RecommendationScore is computed per request and never persisted.
type RecommendationScore struct {
	MediaID int          `json:"media_id"`
	Score   float64      `json:"score"`
	Factors ScoreFactors `json:"factors"`
}

// ScoredMedia pairs a ranked item with its score breakdown.
type ScoredMedia struct {
	Media    Media               `json:"media"`
	Score    RecommendationScore `json:"score"`
	Position int                 `json:"position"`
}

type RecommendationResponse struct {
	UserID          string        `json:"user_id"`
	Recommendations []ScoredMedia `json:"recommendations"`
	PoolSize        int           `json:"pool_size"`
	GeneratedAt     time.Time     `json:"generated_at"`
}

type SimilarContentResponse struct {
	ReferenceID int       `json:"reference_id"`
	Items       []Media   `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
}

type AnalyzeRequest struct {
	Text string `json:"text" validate:"max=10000"`
}

// InteractionRequest records one rating/watch event, optionally with a comment
// that is run through the extractor for sentiment.
type InteractionRequest struct {
	UserID        string  `json:"user_id" validate:"required,max=128"`
	MediaID       int     `json:"media_id" validate:"required,gt=0"`
	Rating        float64 `json:"rating" validate:"required,min=1,max=5"`
	WatchDuration float64 `json:"watch_duration" validate:"min=0"`
	Completed     bool    `json:"completed"`
	Comment       string  `json:"comment,omitempty" validate:"max=5000"`
}

// Feedback list decisions for the append-only recommendation feedback log.
const (
	FeedbackAccepted = "accepted"
	FeedbackRejected = "rejected"
	FeedbackNone     = "none"
)

type InteractionResponse struct {
	UserID       string             `json:"user_id"`
	Interaction  UserInteraction    `json:"interaction"`
	Updates      []PreferenceUpdate `json:"updates"`
	FeedbackList string             `json:"feedback_list"`
	Async        bool               `json:"async"`
}
