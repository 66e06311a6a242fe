package models

import (
	"strconv"
	"time"
)

// Preference dimensions used in PreferenceUpdate.Type.
const (
	PreferenceGenre    = "genre"
	PreferenceActor    = "actor"
	PreferenceDirector = "director"
	PreferenceKeyword  = "keyword"
	PreferenceYear     = "year"
)

// UserProfile is the accumulated preference state and history for one user.
type UserProfile struct {
	ID                     string                 `json:"id" db:"id"`
	Preferences            Preferences            `json:"preferences" db:"preferences"`
	Interactions           []UserInteraction      `json:"interactions" db:"interactions"`
	WatchHistory           []Media                `json:"watch_history" db:"watch_history"`
	RecommendationFeedback RecommendationFeedback `json:"recommendation_feedback" db:"recommendation_feedback"`
	UpdatedAt              time.Time              `json:"updated_at" db:"updated_at"`
}

// Preferences holds unbounded, accumulating weights per dimension. Genre
// weights are keyed by the genre id rendered as a string.
type Preferences struct {
	Genres    map[string]float64 `json:"genres"`
	Actors    map[string]float64 `json:"actors"`
	Directors map[string]float64 `json:"directors"`
	Keywords  map[string]float64 `json:"keywords"`
	YearRange YearRange          `json:"year_range"`
}

type YearRange struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Weight float64 `json:"weight"`
}

// Contains reports whether year lies in [Start, End].
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// RecommendationFeedback is an append-only log; ids may repeat.
type RecommendationFeedback struct {
	Accepted []int `json:"accepted"`
	Rejected []int `json:"rejected"`
}

type Sentiment struct {
	Score    float64  `json:"score"`
	Keywords []string `json:"keywords"`
}

type UserInteraction struct {
	MediaID       int       `json:"media_id" db:"media_id" validate:"required"`
	Rating        float64   `json:"rating" db:"rating" validate:"min=1,max=5"`
	WatchDuration float64   `json:"watch_duration,omitempty" db:"watch_duration" validate:"min=0"`
	Completed     bool      `json:"completed" db:"completed"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	Sentiment     Sentiment `json:"sentiment" db:"sentiment"`
}

// NewUserProfile returns an empty profile with initialized weight maps.
func NewUserProfile(id string) *UserProfile {
	p := &UserProfile{ID: id}
	p.EnsureMaps()
	return p
}

// EnsureMaps initializes nil weight maps, e.g. after decoding a sparse document.
func (p *UserProfile) EnsureMaps() {
	if p.Preferences.Genres == nil {
		p.Preferences.Genres = make(map[string]float64)
	}
	if p.Preferences.Actors == nil {
		p.Preferences.Actors = make(map[string]float64)
	}
	if p.Preferences.Directors == nil {
		p.Preferences.Directors = make(map[string]float64)
	}
	if p.Preferences.Keywords == nil {
		p.Preferences.Keywords = make(map[string]float64)
	}
}

// GenreWeight returns the stored weight for genreID, 0 when absent.
func (p *UserProfile) GenreWeight(genreID int) float64 {
	return p.Preferences.Genres[strconv.Itoa(genreID)]
}

// RatingsByMedia maps media id to rating. Later interactions on the same
// media override earlier ones.
func (p *UserProfile) RatingsByMedia() map[int]float64 {
	ratings := make(map[int]float64, len(p.Interactions))
	for _, interaction := range p.Interactions {
		ratings[interaction.MediaID] = interaction.Rating
	}
	return ratings
}

func (p *UserProfile) HasAccepted(mediaID int) bool {
	return containsID(p.RecommendationFeedback.Accepted, mediaID)
}

func (p *UserProfile) HasRejected(mediaID int) bool {
	return containsID(p.RecommendationFeedback.Rejected, mediaID)
}

// WatchedIDs returns the set of media ids present in the watch history.
func (p *UserProfile) WatchedIDs() map[int]struct{} {
	ids := make(map[int]struct{}, len(p.WatchHistory))
	for _, m := range p.WatchHistory {
		ids[m.ID] = struct{}{}
	}
	return ids
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
