package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/config"
	"github.com/temcen/reelmatch/internal/database"
	"github.com/temcen/reelmatch/internal/messaging"
	"github.com/temcen/reelmatch/internal/recommender"
)

type Services struct {
	Auth           *AuthService
	Health         *HealthService
	RateLimit      *RateLimitService
	Metrics        *Metrics
	MessageBus     *messaging.MessageBus
	Catalog        *PostgresCatalog
	Profiles       *PostgresProfileStore
	Graph          *GraphProfileRepository
	Engine         *recommender.Engine
	Recommendation *RecommendationService
	Feedback       *FeedbackService
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database, reg prometheus.Registerer) (*Services, error) {
	metrics := NewMetrics(reg)

	catalog := NewPostgresCatalog(db.PG, logger)
	profiles := NewPostgresProfileStore(db.PG, db.Redis.Warm, cfg.Engine.Caching.ProfileTTL, logger)

	// Neo4j answers the item->raters lookup when available; PostgreSQL
	// serves it otherwise.
	var repository recommender.ProfileRepository = profiles
	var indexer InteractionIndexer
	var graph *GraphProfileRepository
	if db.Neo4j != nil {
		graph = NewGraphProfileRepository(db.Neo4j, logger)
		repository = graph
		indexer = graph
	}

	engine := recommender.New(cfg.Engine, repository, logger)

	var publisher PreferencePublisher
	var messageBus *messaging.MessageBus
	if cfg.Kafka.Enabled {
		bus, err := messaging.NewMessageBus(cfg, logger)
		if err != nil {
			return nil, err
		}
		messageBus = bus
		publisher = bus
	}

	return &Services{
		Auth:           NewAuthService(cfg, logger, db.Redis.Hot),
		Health:         NewHealthService(db, metrics, logger),
		RateLimit:      NewRateLimitService(cfg, logger, db.Redis.Hot),
		Metrics:        metrics,
		MessageBus:     messageBus,
		Catalog:        catalog,
		Profiles:       profiles,
		Graph:          graph,
		Engine:         engine,
		Recommendation: NewRecommendationService(engine, catalog, profiles, metrics, cfg.Engine.PoolSize, logger),
		Feedback:       NewFeedbackService(engine, catalog, profiles, publisher, indexer, metrics, logger),
	}, nil
}

func (s *Services) Close() error {
	if s.MessageBus != nil {
		return s.MessageBus.Close()
	}
	return nil
}
