package recommender

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/reelmatch/internal/config"
	"github.com/temcen/reelmatch/pkg/models"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(profiles ProfileRepository) *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return New(config.DefaultRecommendationConfig(), profiles, logger).
		WithClock(func() time.Time { return testNow })
}

func media(id int, genres []int, date, overview string) models.Media {
	return models.Media{
		ID:          id,
		Title:       "Title",
		GenreIDs:    genres,
		ReleaseDate: date,
		Overview:    overview,
	}
}

func interaction(mediaID int, rating float64) models.UserInteraction {
	return models.UserInteraction{MediaID: mediaID, Rating: rating, Timestamp: testNow}
}

type failingRepository struct{}

func (failingRepository) ListProfilesInteractingWith(context.Context, int) ([]*models.UserProfile, error) {
	return nil, errors.New("store unavailable")
}

func TestNew_NonPositiveScalesFallBackToDefaults(t *testing.T) {
	cfg := config.DefaultRecommendationConfig()
	cfg.Feedback.DecayDays = 0
	cfg.RecencyMonths = -1
	cfg.Similarity.YearScale = 0

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	engine := New(cfg, nil, logger).WithClock(func() time.Time { return testNow })

	assert.Equal(t, 30.0, engine.config.Feedback.DecayDays)
	assert.Equal(t, 24.0, engine.config.RecencyMonths)
	assert.Equal(t, 10.0, engine.config.Similarity.YearScale)

	item := media(10, []int{28}, "2024-06-01", "")
	updates := engine.ProcessUserFeedback(interaction(10, 3), item)
	require.Len(t, updates, 1)
	for _, u := range updates {
		assert.False(t, math.IsNaN(u.Weight), "update %s/%s", u.Type, u.Value)
	}
	assert.InDelta(t, 0.6, updates[0].Weight, 1e-9)

	similarity := engine.CalculateSimilarity(item, media(11, []int{28}, "2024-01-01", ""))
	assert.False(t, math.IsNaN(similarity))
	assert.InDelta(t, 1.0, similarity, 1e-9)
}
