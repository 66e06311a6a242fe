// Package recommender implements the scoring, ranking and similarity engine.
//
// Every operation is a pure function of its arguments plus the engine clock.
// The engine holds no per-user state: profiles are read as snapshots and
// preference changes are returned as PreferenceUpdate instructions that the
// caller applies (see ApplyInteraction) and persists.
package recommender

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/internal/config"
	"github.com/temcen/reelmatch/pkg/models"
)

// ProfileRepository supplies the other users' profiles needed by the
// collaborative pass. Implementations should return only profiles holding at
// least one interaction on mediaID; extra profiles are tolerated.
type ProfileRepository interface {
	ListProfilesInteractingWith(ctx context.Context, mediaID int) ([]*models.UserProfile, error)
}

// Engine is the recommendation core. It is safe for concurrent use.
type Engine struct {
	config   config.RecommendationConfig
	profiles ProfileRepository
	logger   *logrus.Logger
	now      func() time.Time
}

// New creates an engine. profiles may be nil, in which case the collaborative
// sub-score is always 0.
func New(cfg config.RecommendationConfig, profiles ProfileRepository, logger *logrus.Logger) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Diversity.GenreCapDivisor <= 0 {
		cfg.Diversity.GenreCapDivisor = 3
	}
	// Scales divide elapsed time or distance; zero would yield NaN weights.
	if cfg.Feedback.DecayDays <= 0 {
		cfg.Feedback.DecayDays = 30
	}
	if cfg.RecencyMonths <= 0 {
		cfg.RecencyMonths = 24
	}
	if cfg.Similarity.YearScale <= 0 {
		cfg.Similarity.YearScale = 10
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Engine{
		config:   cfg,
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for recency and decay.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// AnalyzeInput runs the entity/sentiment extractor.
func (e *Engine) AnalyzeInput(text string) models.EntityExtraction {
	return AnalyzeInput(text)
}

// StaticProfileRepository serves profiles from a fixed in-memory slice.
type StaticProfileRepository []*models.UserProfile

func (r StaticProfileRepository) ListProfilesInteractingWith(_ context.Context, mediaID int) ([]*models.UserProfile, error) {
	var out []*models.UserProfile
	for _, p := range r {
		for _, interaction := range p.Interactions {
			if interaction.MediaID == mediaID {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}
