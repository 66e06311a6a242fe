package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/recommender"
	"github.com/temcen/reelmatch/pkg/models"
)

// FeedbackService turns interactions into preference events. Events are
// published for asynchronous application when a publisher is configured and
// applied inline otherwise, or when publishing fails.
type FeedbackService struct {
	engine    *recommender.Engine
	catalog   MediaCatalog
	store     ProfileStore
	publisher PreferencePublisher
	indexer   InteractionIndexer
	metrics   *Metrics
	logger    *logrus.Logger
	now       func() time.Time
}

func NewFeedbackService(
	engine *recommender.Engine,
	catalog MediaCatalog,
	store ProfileStore,
	publisher PreferencePublisher,
	indexer InteractionIndexer,
	metrics *Metrics,
	logger *logrus.Logger,
) *FeedbackService {
	return &FeedbackService{
		engine:    engine,
		catalog:   catalog,
		store:     store,
		publisher: publisher,
		indexer:   indexer,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *FeedbackService) RecordInteraction(ctx context.Context, req *models.InteractionRequest) (*models.InteractionResponse, error) {
	media, err := s.catalog.GetMedia(ctx, req.MediaID)
	if err != nil {
		return nil, err
	}

	interaction := models.UserInteraction{
		MediaID:       req.MediaID,
		Rating:        req.Rating,
		WatchDuration: req.WatchDuration,
		Completed:     req.Completed,
		Timestamp:     s.now(),
		Sentiment:     models.Sentiment{Keywords: []string{}},
	}
	if req.Comment != "" {
		extraction := s.engine.AnalyzeInput(req.Comment)
		interaction.Sentiment = models.Sentiment{
			Score:    extraction.Sentiment,
			Keywords: extraction.Keywords,
		}
	}

	updates := s.engine.ProcessUserFeedback(interaction, *media)
	list := recommender.FeedbackListFor(interaction.Rating)
	event := models.NewPreferenceUpdateEvent(req.UserID, interaction, *media, updates, list)

	async := false
	if s.publisher != nil {
		if err := s.publisher.PublishPreferenceUpdate(ctx, event); err != nil {
			s.logger.WithError(err).WithField("event_id", event.EventID).Warn("Publishing failed, applying preference event inline")
		} else {
			async = true
		}
	}
	if !async {
		if err := s.HandlePreferenceEvent(ctx, event); err != nil {
			return nil, err
		}
	}

	mode := "sync"
	if async {
		mode = "async"
	}
	s.recordUpdateMetrics(updates, mode)
	s.metrics.RecordFeedbackDecision(list)

	s.logger.WithFields(logrus.Fields{
		"user_id":       req.UserID,
		"media_id":      req.MediaID,
		"rating":        req.Rating,
		"feedback_list": list,
		"updates":       len(updates),
		"async":         async,
	}).Info("Recorded interaction")

	return &models.InteractionResponse{
		UserID:       req.UserID,
		Interaction:  interaction,
		Updates:      updates,
		FeedbackList: list,
		Async:        async,
	}, nil
}

// HandlePreferenceEvent applies one event to the profile store and mirrors
// the rating into the interaction index. It is the Kafka consumer handler.
func (s *FeedbackService) HandlePreferenceEvent(ctx context.Context, event *models.PreferenceUpdateEvent) error {
	if err := s.store.ApplyPreferenceEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to apply preference event %s: %w", event.EventID, err)
	}

	if s.indexer != nil {
		if err := s.indexer.IndexInteraction(ctx, event.UserID, event.Interaction); err != nil {
			// The graph is a derived index; PostgreSQL stays authoritative.
			s.logger.WithError(err).WithField("event_id", event.EventID).Warn("Failed to index interaction")
		}
	}
	return nil
}

func (s *FeedbackService) recordUpdateMetrics(updates []models.PreferenceUpdate, mode string) {
	counts := make(map[string]int)
	for _, u := range updates {
		counts[u.Type]++
	}
	for updateType, n := range counts {
		s.metrics.RecordPreferenceUpdates(updateType, mode, n)
	}
}
