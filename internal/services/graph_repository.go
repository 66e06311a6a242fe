package services

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/pkg/models"
)

// GraphProfileRepository indexes ratings as (:User)-[:RATED]->(:Media) edges
// so the collaborative pass can fetch only users who touched a candidate.
type GraphProfileRepository struct {
	driver neo4j.DriverWithContext
	logger *logrus.Logger
}

func NewGraphProfileRepository(driver neo4j.DriverWithContext, logger *logrus.Logger) *GraphProfileRepository {
	return &GraphProfileRepository{
		driver: driver,
		logger: logger,
	}
}

// IndexInteraction upserts the rating edge. Re-rating overwrites the edge,
// matching the last-rating-wins view used for user similarity.
func (r *GraphProfileRepository) IndexInteraction(ctx context.Context, userID string, interaction models.UserInteraction) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	cypher := `
		MERGE (u:User {id: $user_id})
		MERGE (m:Media {id: $media_id})
		MERGE (u)-[r:RATED]->(m)
		SET r.rating = $rating, r.updated_at = datetime()`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{
			"user_id":  userID,
			"media_id": int64(interaction.MediaID),
			"rating":   interaction.Rating,
		})
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to index interaction: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"media_id": interaction.MediaID,
	}).Debug("Indexed interaction in graph")
	return nil
}

// ListProfilesInteractingWith returns every rater of mediaID together with
// all of that user's ratings.
func (r *GraphProfileRepository) ListProfilesInteractingWith(ctx context.Context, mediaID int) ([]*models.UserProfile, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := `
		MATCH (u:User)-[:RATED]->(:Media {id: $media_id})
		WITH DISTINCT u
		MATCH (u)-[r:RATED]->(m:Media)
		RETURN u.id AS user_id, m.id AS media_id, r.rating AS rating
		ORDER BY user_id`

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, cypher, map[string]interface{}{
			"media_id": int64(mediaID),
		})
		if err != nil {
			return nil, err
		}

		byUser := make(map[string]*models.UserProfile)
		profiles := make([]*models.UserProfile, 0)
		for result.Next(ctx) {
			record := result.Record()
			userID, _, err := neo4j.GetRecordValue[string](record, "user_id")
			if err != nil {
				return nil, err
			}
			itemID, _, err := neo4j.GetRecordValue[int64](record, "media_id")
			if err != nil {
				return nil, err
			}
			rating, _, err := neo4j.GetRecordValue[float64](record, "rating")
			if err != nil {
				return nil, err
			}

			profile, ok := byUser[userID]
			if !ok {
				profile = &models.UserProfile{ID: userID}
				byUser[userID] = profile
				profiles = append(profiles, profile)
			}
			profile.Interactions = append(profile.Interactions, models.UserInteraction{
				MediaID: int(itemID),
				Rating:  rating,
			})
		}

		return profiles, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles for media %d: %w", mediaID, err)
	}

	return result.([]*models.UserProfile), nil
}
