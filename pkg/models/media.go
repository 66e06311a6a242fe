package models

import (
	"strconv"
	"strings"
	"time"
)

// Media is a catalog item (movie or TV show) as supplied by the media catalog.
type Media struct {
	ID           int     `json:"id" db:"id" validate:"required"`
	Title        string  `json:"title,omitempty" db:"title"`
	Name         string  `json:"name,omitempty" db:"name"`
	GenreIDs     []int   `json:"genre_ids,omitempty" db:"genre_ids"`
	ReleaseDate  string  `json:"release_date,omitempty" db:"release_date"`
	FirstAirDate string  `json:"first_air_date,omitempty" db:"first_air_date"`
	Overview     string  `json:"overview,omitempty" db:"overview"`
	VoteAverage  float64 `json:"vote_average" db:"vote_average"`
}

// DisplayTitle returns the movie title, falling back to the TV name.
func (m *Media) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// Date returns the release date, or the first air date for TV.
func (m *Media) Date() string {
	if m.ReleaseDate != "" {
		return m.ReleaseDate
	}
	return m.FirstAirDate
}

// ParsedDate parses Date as YYYY-MM-DD. ok is false when the date is missing or malformed.
func (m *Media) ParsedDate() (time.Time, bool) {
	raw := strings.TrimSpace(m.Date())
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Year resolves the release year. Dates that fail full parsing still resolve
// when they start with four digits.
func (m *Media) Year() (int, bool) {
	if t, ok := m.ParsedDate(); ok {
		return t.Year(), true
	}
	raw := strings.TrimSpace(m.Date())
	if len(raw) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

// HasGenre reports whether the item is tagged with genreID.
func (m *Media) HasGenre(genreID int) bool {
	for _, g := range m.GenreIDs {
		if g == genreID {
			return true
		}
	}
	return false
}

// MediaFilter narrows catalog listings used to build candidate pools.
type MediaFilter struct {
	GenreIDs   []int `json:"genre_ids,omitempty"`
	ExcludeIDs []int `json:"exclude_ids,omitempty"`
	Limit      int   `json:"limit" validate:"min=0,max=1000"`
}
