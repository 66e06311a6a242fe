package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/recommender"
	"github.com/temcen/reelmatch/pkg/models"
)

// RecommendationService assembles candidate pools from the catalog and
// hands them to the engine together with the user's profile snapshot.
type RecommendationService struct {
	engine   *recommender.Engine
	catalog  MediaCatalog
	profiles ProfileStore
	metrics  *Metrics
	poolSize int
	logger   *logrus.Logger
}

func NewRecommendationService(
	engine *recommender.Engine,
	catalog MediaCatalog,
	profiles ProfileStore,
	metrics *Metrics,
	poolSize int,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		engine:   engine,
		catalog:  catalog,
		profiles: profiles,
		metrics:  metrics,
		poolSize: poolSize,
		logger:   logger,
	}
}

// Recommend ranks up to poolSize catalog items the user has not watched.
// Unknown users get a cold-start ranking from an empty profile.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, count int, genreIDs []int) (*models.RecommendationResponse, error) {
	started := time.Now()

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		s.metrics.ObserveRecommendation("personal", "error", started, -1)
		return nil, err
	}

	pool, err := s.catalog.ListMedia(ctx, models.MediaFilter{
		GenreIDs:   genreIDs,
		ExcludeIDs: watchedIDs(profile),
		Limit:      s.poolSize,
	})
	if err != nil {
		s.metrics.ObserveRecommendation("personal", "error", started, -1)
		return nil, fmt.Errorf("failed to build candidate pool: %w", err)
	}

	ranked, err := s.engine.RankRecommendations(ctx, profile, count, pool)
	if err != nil {
		s.metrics.ObserveRecommendation("personal", "error", started, len(pool))
		return nil, fmt.Errorf("failed to rank recommendations: %w", err)
	}
	s.metrics.ObserveRecommendation("personal", "ok", started, len(pool))

	s.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"pool_size": len(pool),
		"returned":  len(ranked),
		"duration":  time.Since(started),
	}).Info("Generated recommendations")

	return &models.RecommendationResponse{
		UserID:          userID,
		Recommendations: ranked,
		PoolSize:        len(pool),
		GeneratedAt:     time.Now(),
	}, nil
}

func (s *RecommendationService) loadProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err == nil {
		s.metrics.RecordProfileLookup("found")
		return profile, nil
	}
	if errors.Is(err, ErrProfileNotFound) {
		s.metrics.RecordProfileLookup("missing")
		s.logger.WithField("user_id", userID).Debug("No profile yet, using cold-start profile")
		return models.NewUserProfile(userID), nil
	}
	return nil, fmt.Errorf("failed to load profile: %w", err)
}

// SimilarTo returns the catalog items closest to mediaID.
func (s *RecommendationService) SimilarTo(ctx context.Context, mediaID, count int) (*models.SimilarContentResponse, error) {
	started := time.Now()

	reference, err := s.catalog.GetMedia(ctx, mediaID)
	if err != nil {
		s.metrics.ObserveRecommendation("similar", "error", started, -1)
		return nil, err
	}

	pool, err := s.catalog.ListMedia(ctx, models.MediaFilter{
		ExcludeIDs: []int{mediaID},
		Limit:      s.poolSize,
	})
	if err != nil {
		s.metrics.ObserveRecommendation("similar", "error", started, -1)
		return nil, fmt.Errorf("failed to build candidate pool: %w", err)
	}

	items := s.engine.GetSimilarContent(*reference, count, pool)
	s.metrics.ObserveRecommendation("similar", "ok", started, len(pool))

	return &models.SimilarContentResponse{
		ReferenceID: mediaID,
		Items:       items,
		GeneratedAt: time.Now(),
	}, nil
}

func (s *RecommendationService) Similarity(ctx context.Context, a, b int) (float64, error) {
	first, err := s.catalog.GetMedia(ctx, a)
	if err != nil {
		return 0, err
	}
	second, err := s.catalog.GetMedia(ctx, b)
	if err != nil {
		return 0, err
	}
	return s.engine.CalculateSimilarity(*first, *second), nil
}

func (s *RecommendationService) Analyze(text string) models.EntityExtraction {
	return s.engine.AnalyzeInput(text)
}

func watchedIDs(profile *models.UserProfile) []int {
	watched := profile.WatchedIDs()
	ids := make([]int, 0, len(watched))
	for id := range watched {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
