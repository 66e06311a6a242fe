package recommender

import (
	"math"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/temcen/reelmatch/pkg/models"
)

const (
	positiveKeywordBoost = 1.5
	negativeKeywordDamp  = 0.5
)

// ProcessUserFeedback turns one interaction on media into preference updates:
// one genre update per genre of media and one keyword update per keyword
// already flagged on the interaction sentiment.
//
// The feedback-list append (see FeedbackListFor) is the caller's job.
func (e *Engine) ProcessUserFeedback(interaction models.UserInteraction, media models.Media) []models.PreferenceUpdate {
	weight := e.interactionWeight(interaction)

	updates := make([]models.PreferenceUpdate, 0, len(media.GenreIDs)+len(interaction.Sentiment.Keywords))
	for _, genreID := range media.GenreIDs {
		updates = append(updates, models.PreferenceUpdate{
			Type:   models.PreferenceGenre,
			Value:  strconv.Itoa(genreID),
			Weight: weight,
		})
	}

	keywordFactor := negativeKeywordDamp
	if interaction.Sentiment.Score > 0 {
		keywordFactor = positiveKeywordBoost
	}
	for _, keyword := range interaction.Sentiment.Keywords {
		updates = append(updates, models.PreferenceUpdate{
			Type:   models.PreferenceKeyword,
			Value:  keyword,
			Weight: weight * keywordFactor,
		})
	}

	e.logger.WithFields(logrus.Fields{
		"media_id": media.ID,
		"rating":   interaction.Rating,
		"weight":   weight,
		"updates":  len(updates),
	}).Debug("Processed user feedback")

	return updates
}

// interactionWeight is rating/5, boosted for completed watches, decayed by
// interaction age and clamped to 1. A zero timestamp counts as now.
func (e *Engine) interactionWeight(interaction models.UserInteraction) float64 {
	cfg := e.config.Feedback

	weight := interaction.Rating / 5
	if interaction.WatchDuration > 0 && interaction.Completed {
		weight *= cfg.CompletionBoost
	}

	days := 0.0
	if !interaction.Timestamp.IsZero() {
		days = math.Max(0, e.now().Sub(interaction.Timestamp).Hours()/24)
	}
	weight *= math.Exp(-days / cfg.DecayDays)

	return math.Min(weight, 1.0)
}

// FeedbackListFor returns which feedback list a rating appends to.
func FeedbackListFor(rating float64) string {
	switch {
	case rating >= 4:
		return models.FeedbackAccepted
	case rating <= 2:
		return models.FeedbackRejected
	default:
		return models.FeedbackNone
	}
}

// ApplyPreferenceUpdates adds each update's weight to the matching entry.
// Weights only accumulate; nothing is reset or normalized.
func ApplyPreferenceUpdates(profile *models.UserProfile, updates []models.PreferenceUpdate) {
	profile.EnsureMaps()
	prefs := &profile.Preferences

	for _, u := range updates {
		switch u.Type {
		case models.PreferenceGenre:
			prefs.Genres[u.Value] += u.Weight
		case models.PreferenceActor:
			prefs.Actors[u.Value] += u.Weight
		case models.PreferenceDirector:
			prefs.Directors[u.Value] += u.Weight
		case models.PreferenceKeyword:
			prefs.Keywords[u.Value] += u.Weight
		case models.PreferenceYear:
			applyYearUpdate(&prefs.YearRange, u)
		}
	}
}

// applyYearUpdate widens the range to include the year and accumulates weight.
func applyYearUpdate(r *models.YearRange, u models.PreferenceUpdate) {
	r.Weight += u.Weight

	year, err := strconv.Atoi(u.Value)
	if err != nil {
		return
	}
	if r.Start == 0 && r.End == 0 {
		r.Start, r.End = year, year
		return
	}
	if year < r.Start {
		r.Start = year
	}
	if year > r.End {
		r.End = year
	}
}

// ApplyInteraction mutates profile in memory: it appends the interaction,
// the feedback-list entry for its rating and, for watched items, the media to
// the watch history, then applies updates. It returns the feedback list used.
func ApplyInteraction(profile *models.UserProfile, interaction models.UserInteraction, media models.Media, updates []models.PreferenceUpdate) string {
	profile.Interactions = append(profile.Interactions, interaction)

	list := FeedbackListFor(interaction.Rating)
	switch list {
	case models.FeedbackAccepted:
		profile.RecommendationFeedback.Accepted = append(profile.RecommendationFeedback.Accepted, interaction.MediaID)
	case models.FeedbackRejected:
		profile.RecommendationFeedback.Rejected = append(profile.RecommendationFeedback.Rejected, interaction.MediaID)
	}

	if interaction.WatchDuration > 0 || interaction.Completed {
		profile.WatchHistory = append(profile.WatchHistory, media)
	}

	ApplyPreferenceUpdates(profile, updates)
	return list
}
