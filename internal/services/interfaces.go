package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/temcen/reelmatch/pkg/models"
)

var (
	ErrMediaNotFound   = errors.New("media not found")
	ErrProfileNotFound = errors.New("user profile not found")
)

// DatabaseQuerier is the subset of pgxpool.Pool used by the Postgres adapters.
type DatabaseQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// MediaCatalog is the read side of the media catalog plus bulk ingestion.
type MediaCatalog interface {
	GetMedia(ctx context.Context, id int) (*models.Media, error)
	ListMedia(ctx context.Context, filter models.MediaFilter) ([]models.Media, error)
	UpsertMedia(ctx context.Context, items []models.Media) error
}

// ProfileStore loads profiles and durably applies processed interactions.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	ApplyPreferenceEvent(ctx context.Context, event *models.PreferenceUpdateEvent) error
}

// PreferencePublisher ships preference events to asynchronous appliers.
type PreferencePublisher interface {
	PublishPreferenceUpdate(ctx context.Context, event *models.PreferenceUpdateEvent) error
}

// InteractionIndexer mirrors ratings into a store optimized for item lookups.
type InteractionIndexer interface {
	IndexInteraction(ctx context.Context, userID string, interaction models.UserInteraction) error
}

// RecommendationServiceInterface is consumed by the HTTP handlers.
type RecommendationServiceInterface interface {
	Recommend(ctx context.Context, userID string, count int, genreIDs []int) (*models.RecommendationResponse, error)
	SimilarTo(ctx context.Context, mediaID, count int) (*models.SimilarContentResponse, error)
	Similarity(ctx context.Context, a, b int) (float64, error)
	Analyze(text string) models.EntityExtraction
}

// FeedbackServiceInterface is consumed by the HTTP handlers.
type FeedbackServiceInterface interface {
	RecordInteraction(ctx context.Context, req *models.InteractionRequest) (*models.InteractionResponse, error)
}

// Authenticator exchanges API keys for tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, req *models.AuthRequest) (*models.AuthResponse, error)
}

type HealthChecker interface {
	CheckHealth(ctx context.Context) *HealthStatus
}
