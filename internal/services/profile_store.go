package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/recommender"
	"github.com/temcen/reelmatch/pkg/models"
)

// PostgresProfileStore keeps profiles in PostgreSQL with an optional Redis
// cache-aside layer. A nil cache client disables caching.
type PostgresProfileStore struct {
	db       DatabaseQuerier
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *logrus.Logger
}

func NewPostgresProfileStore(db DatabaseQuerier, cache *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *PostgresProfileStore {
	return &PostgresProfileStore{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func profileCacheKey(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}

// GetProfile returns the full profile snapshot or ErrProfileNotFound.
func (s *PostgresProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if cached := s.getCachedProfile(ctx, userID); cached != nil {
		return cached, nil
	}

	profile := &models.UserProfile{ID: userID}
	var preferences, feedback []byte
	err := s.db.QueryRow(ctx, `
		SELECT preferences, recommendation_feedback, updated_at
		FROM user_profiles
		WHERE user_id = $1`, userID).Scan(&preferences, &feedback, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	if err := decodeProfileState(profile, preferences, feedback); err != nil {
		return nil, err
	}

	if profile.Interactions, err = s.loadInteractions(ctx, userID); err != nil {
		return nil, err
	}
	if profile.WatchHistory, err = s.loadWatchHistory(ctx, userID); err != nil {
		return nil, err
	}

	s.cacheProfile(ctx, profile)
	return profile, nil
}

func (s *PostgresProfileStore) loadInteractions(ctx context.Context, userID string) ([]models.UserInteraction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT media_id, rating, watch_duration, completed, sentiment, created_at
		FROM user_interactions
		WHERE user_id = $1
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}
	defer rows.Close()

	interactions := make([]models.UserInteraction, 0)
	for rows.Next() {
		var interaction models.UserInteraction
		var sentiment []byte
		if err := rows.Scan(&interaction.MediaID, &interaction.Rating, &interaction.WatchDuration,
			&interaction.Completed, &sentiment, &interaction.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		if len(sentiment) > 0 {
			if err := json.Unmarshal(sentiment, &interaction.Sentiment); err != nil {
				s.logger.WithError(err).WithField("user_id", userID).Warn("Ignoring malformed interaction sentiment")
			}
		}
		interactions = append(interactions, interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}
	return interactions, nil
}

func (s *PostgresProfileStore) loadWatchHistory(ctx context.Context, userID string) ([]models.Media, error) {
	rows, err := s.db.Query(ctx, `
		SELECT m.id, m.title, m.name, m.genre_ids, m.release_date, m.first_air_date, m.overview, m.vote_average
		FROM watch_history w
		JOIN media m ON m.id = w.media_id
		WHERE w.user_id = $1
		ORDER BY w.watched_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load watch history: %w", err)
	}
	defer rows.Close()

	history := make([]models.Media, 0)
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch history: %w", err)
		}
		history = append(history, *media)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watch history: %w", err)
	}
	return history, nil
}

// ApplyPreferenceEvent records the interaction and folds its updates into the
// stored profile in one transaction. Replayed events are detected by event id
// and skipped.
func (s *PostgresProfileStore) ApplyPreferenceEvent(ctx context.Context, event *models.PreferenceUpdateEvent) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO user_profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, event.UserID); err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}

	interaction := event.Interaction
	sentiment, err := json.Marshal(interaction.Sentiment)
	if err != nil {
		return fmt.Errorf("failed to encode sentiment: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO user_interactions (event_id, user_id, media_id, rating, watch_duration, completed, sentiment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING`,
		event.EventID, event.UserID, interaction.MediaID, interaction.Rating,
		interaction.WatchDuration, interaction.Completed, sentiment, interaction.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.WithField("event_id", event.EventID).Info("Skipping already applied preference event")
		return nil
	}

	profile := &models.UserProfile{ID: event.UserID}
	var preferences, feedback []byte
	if err := tx.QueryRow(ctx, `
		SELECT preferences, recommendation_feedback
		FROM user_profiles
		WHERE user_id = $1
		FOR UPDATE`, event.UserID).Scan(&preferences, &feedback); err != nil {
		return fmt.Errorf("failed to lock profile: %w", err)
	}
	if err := decodeProfileState(profile, preferences, feedback); err != nil {
		return err
	}

	recommender.ApplyInteraction(profile, interaction, event.Media, event.Updates)

	// ApplyInteraction decides whether the media counts as watched.
	if len(profile.WatchHistory) > 0 {
		if _, err := tx.Exec(ctx, `
			INSERT INTO watch_history (user_id, media_id, watched_at) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`, event.UserID, event.Media.ID, interaction.Timestamp); err != nil {
			return fmt.Errorf("failed to record watch history: %w", err)
		}
	}

	preferences, err = json.Marshal(profile.Preferences)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	feedback, err = json.Marshal(profile.RecommendationFeedback)
	if err != nil {
		return fmt.Errorf("failed to encode feedback: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE user_profiles
		SET preferences = $2, recommendation_feedback = $3, updated_at = NOW()
		WHERE user_id = $1`, event.UserID, preferences, feedback); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit profile update: %w", err)
	}

	s.invalidate(ctx, event.UserID)

	s.logger.WithFields(logrus.Fields{
		"user_id":  event.UserID,
		"media_id": interaction.MediaID,
		"updates":  len(event.Updates),
		"event_id": event.EventID,
	}).Info("Applied preference event")

	return nil
}

// ListProfilesInteractingWith returns, for every user who interacted with
// mediaID, a profile holding that user's interactions.
func (s *PostgresProfileStore) ListProfilesInteractingWith(ctx context.Context, mediaID int) ([]*models.UserProfile, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, media_id, rating
		FROM user_interactions
		WHERE user_id IN (SELECT DISTINCT user_id FROM user_interactions WHERE media_id = $1)
		ORDER BY user_id, created_at, id`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles for media %d: %w", mediaID, err)
	}
	defer rows.Close()

	profiles := make([]*models.UserProfile, 0)
	var current *models.UserProfile
	for rows.Next() {
		var userID string
		var interaction models.UserInteraction
		if err := rows.Scan(&userID, &interaction.MediaID, &interaction.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		if current == nil || current.ID != userID {
			current = &models.UserProfile{ID: userID}
			profiles = append(profiles, current)
		}
		current.Interactions = append(current.Interactions, interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interactions: %w", err)
	}

	return profiles, nil
}

func decodeProfileState(profile *models.UserProfile, preferences, feedback []byte) error {
	if len(preferences) > 0 {
		if err := json.Unmarshal(preferences, &profile.Preferences); err != nil {
			return fmt.Errorf("failed to decode preferences: %w", err)
		}
	}
	if len(feedback) > 0 {
		if err := json.Unmarshal(feedback, &profile.RecommendationFeedback); err != nil {
			return fmt.Errorf("failed to decode recommendation feedback: %w", err)
		}
	}
	profile.EnsureMaps()
	return nil
}

func (s *PostgresProfileStore) getCachedProfile(ctx context.Context, userID string) *models.UserProfile {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, profileCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).Warn("Failed to read cached profile")
		}
		return nil
	}

	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		s.logger.WithError(err).Warn("Failed to decode cached profile")
		return nil
	}
	profile.EnsureMaps()
	return &profile
}

func (s *PostgresProfileStore) cacheProfile(ctx context.Context, profile *models.UserProfile) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(profile)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode profile for cache")
		return
	}
	if err := s.cache.Set(ctx, profileCacheKey(profile.ID), data, s.cacheTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to cache profile")
	}
}

func (s *PostgresProfileStore) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, profileCacheKey(userID)).Err(); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached profile")
	}
}
