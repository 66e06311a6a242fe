package recommender

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/temcen/reelmatch/pkg/models"
)

const (
	neutralRating       = 3.0
	maxRatingDeviation  = 4.0 // (5-3)*(5-3)
	positiveRatingFloor = 4.0
)

// collaborativeScore is the similarity-weighted mean of rating/5 given to the
// candidate by other users who rated it 4 or higher. Users are weighted by
// how much their ratings agree with the profile's on commonly rated items.
func collaborativeScore(candidate models.Media, profile *models.UserProfile, others []*models.UserProfile) float64 {
	if len(others) == 0 {
		return 0
	}

	own := profile.RatingsByMedia()
	var ratios, similarities []float64

	for _, other := range others {
		if other == nil || other.ID == profile.ID {
			continue
		}

		rating, ok := positiveRatingOn(other, candidate.ID)
		if !ok {
			continue
		}

		ratios = append(ratios, rating/5)
		similarities = append(similarities, userSimilarity(own, other.RatingsByMedia()))
	}

	if len(ratios) == 0 {
		return 0
	}
	total := floats.Sum(similarities)
	if total == 0 {
		return 0
	}
	return floats.Dot(ratios, similarities) / total
}

// positiveRatingOn returns the first rating >= 4 the user gave mediaID.
func positiveRatingOn(profile *models.UserProfile, mediaID int) (float64, bool) {
	for _, interaction := range profile.Interactions {
		if interaction.MediaID == mediaID && interaction.Rating >= positiveRatingFloor {
			return interaction.Rating, true
		}
	}
	return 0, false
}

// userSimilarity averages the product of centered ratings over shared items,
// floors it at 0 and scales it into [0, 1].
func userSimilarity(a, b map[int]float64) float64 {
	products := make([]float64, 0)
	for mediaID, ratingA := range a {
		ratingB, ok := b[mediaID]
		if !ok {
			continue
		}
		products = append(products, (ratingA-neutralRating)*(ratingB-neutralRating))
	}
	if len(products) == 0 {
		return 0
	}

	mean := stat.Mean(products, nil)
	if mean < 0 {
		return 0
	}
	return mean / maxRatingDeviation
}
