package recommender

import (
	"math"
	"strconv"
	"strings"

	"github.com/temcen/reelmatch/pkg/models"
)

const (
	genrePartWeight   = 0.4
	keywordPartWeight = 0.3
	yearPartWeight    = 0.3

	acceptedPreference = 0.8
	rejectedPreference = 0.1
	likedGenreMatch    = 0.7
	neutralPreference  = 0.5

	unknownRecency = 0.5
	daysPerMonth   = 30.0
)

// Score computes the blended recommendation score of candidate for profile.
// others are the profiles consulted for the collaborative signal.
func (e *Engine) Score(candidate models.Media, profile *models.UserProfile, others []*models.UserProfile) models.RecommendationScore {
	factors := models.ScoreFactors{
		ContentBased:       contentBasedScore(candidate, profile),
		Collaborative:      collaborativeScore(candidate, profile, others),
		PersonalPreference: personalPreferenceScore(candidate, profile),
		Recency:            e.recencyScore(candidate),
	}

	w := e.config.Weights
	overall := w.ContentBased*factors.ContentBased +
		w.Collaborative*factors.Collaborative +
		w.PersonalPreference*factors.PersonalPreference +
		w.Recency*factors.Recency

	return models.RecommendationScore{
		MediaID: candidate.ID,
		Score:   overall,
		Factors: factors,
	}
}

// contentBasedScore compares the candidate with the profile's accumulated
// genre, keyword and year weights.
func contentBasedScore(candidate models.Media, profile *models.UserProfile) float64 {
	parts := make([]component, 0, 3)
	prefs := profile.Preferences

	if len(candidate.GenreIDs) > 0 {
		total := 0.0
		for _, genreID := range candidate.GenreIDs {
			total += prefs.Genres[strconv.Itoa(genreID)]
		}
		parts = append(parts, component{value: total / float64(len(candidate.GenreIDs)), weight: genrePartWeight})
	}

	if candidate.Overview != "" && len(prefs.Keywords) > 0 {
		overview := strings.ToLower(candidate.Overview)
		total := 0.0
		for keyword, weight := range prefs.Keywords {
			if strings.Contains(overview, keyword) {
				total += weight
			}
		}
		parts = append(parts, component{value: total, weight: keywordPartWeight})
	}

	if year, ok := candidate.Year(); ok && hasYearRange(prefs.YearRange) {
		value := 0.0
		if prefs.YearRange.Contains(year) {
			value = prefs.YearRange.Weight
		}
		parts = append(parts, component{value: value, weight: yearPartWeight})
	}

	return blend(parts)
}

func hasYearRange(r models.YearRange) bool {
	return r.Start != 0 || r.End != 0
}

func personalPreferenceScore(candidate models.Media, profile *models.UserProfile) float64 {
	if profile.HasAccepted(candidate.ID) {
		return acceptedPreference
	}
	if profile.HasRejected(candidate.ID) {
		return rejectedPreference
	}

	ratings := profile.RatingsByMedia()
	for _, watched := range profile.WatchHistory {
		if ratings[watched.ID] < positiveRatingFloor {
			continue
		}
		for _, genreID := range candidate.GenreIDs {
			if watched.HasGenre(genreID) {
				return likedGenreMatch
			}
		}
	}
	return neutralPreference
}

// recencyScore decays with months since release. Future dates count as new.
func (e *Engine) recencyScore(candidate models.Media) float64 {
	released, ok := candidate.ParsedDate()
	if !ok {
		return unknownRecency
	}

	months := math.Max(0, e.now().Sub(released).Hours()/24/daysPerMonth)
	return math.Exp(-months / e.config.RecencyMonths)
}
