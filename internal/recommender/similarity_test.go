package recommender

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/temcen/reelmatch/pkg/models"
)

func TestCalculateSimilarity_CloseItems(t *testing.T) {
	engine := newTestEngine(nil)
	a := media(1, []int{28, 12}, "2020-03-01", "a hero saves the city")
	b := media(2, []int{28, 12}, "2021-03-01", "a hero saves the town")

	similarity := engine.CalculateSimilarity(a, b)

	// genre 1.0, year exp(-0.1), theme 4/6
	expected := 0.4*1.0 + 0.2*math.Exp(-0.1) + 0.4*(4.0/6.0)
	assert.InDelta(t, expected, similarity, 1e-9)
	assert.Greater(t, similarity, 0.7)
}

func TestCalculateSimilarity_Reflexive(t *testing.T) {
	engine := newTestEngine(nil)

	items := []models.Media{
		media(1, []int{28}, "2010-01-01", "a heist in space"),
		media(2, []int{18, 10749}, "", "two strangers meet"),
		media(3, []int{99}, "not-a-date", "the ocean at night"),
	}
	for _, item := range items {
		assert.InDelta(t, 1.0, engine.CalculateSimilarity(item, item), 1e-9)
	}
}

func TestCalculateSimilarity_Symmetric(t *testing.T) {
	engine := newTestEngine(nil)

	items := []models.Media{
		media(1, []int{28, 12}, "2020-01-01", "a hero saves the city"),
		media(2, []int{28}, "1995-06-15", "a detective hunts a killer in the city"),
		media(3, nil, "2001-01-01", ""),
		media(4, []int{16, 10751}, "", "a family of toys"),
		{ID: 5, Name: "Show", FirstAirDate: "2015-09-01", Overview: "a family drama"},
	}

	for _, a := range items {
		for _, b := range items {
			assert.InDelta(t, engine.CalculateSimilarity(a, b), engine.CalculateSimilarity(b, a), 1e-12)
		}
	}
}

func TestCalculateSimilarity_RenormalizesMissingComponents(t *testing.T) {
	engine := newTestEngine(nil)

	tests := []struct {
		name     string
		a, b     models.Media
		expected float64
	}{
		{
			name:     "genres only",
			a:        media(1, []int{1, 2}, "", ""),
			b:        media(2, []int{2, 3}, "", ""),
			expected: 1.0 / 3.0,
		},
		{
			name:     "year only",
			a:        media(1, nil, "2000-01-01", ""),
			b:        media(2, nil, "2010-05-05", ""),
			expected: math.Exp(-1),
		},
		{
			name:     "year from first air date",
			a:        models.Media{ID: 1, FirstAirDate: "2005-01-01"},
			b:        media(2, nil, "2005-12-31", ""),
			expected: 1.0,
		},
		{
			name:     "nothing comparable",
			a:        media(1, nil, "", ""),
			b:        media(2, []int{1}, "2000-01-01", "overview"),
			expected: 0,
		},
		{
			name:     "genre and theme",
			a:        media(1, []int{1}, "", "Dark Night"),
			b:        media(2, []int{2}, "", "dark day"),
			expected: (0.4*0 + 0.4*(1.0/3.0)) / 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, engine.CalculateSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCalculateSimilarity_Bounded(t *testing.T) {
	engine := newTestEngine(nil)
	a := media(1, []int{1, 2, 3}, "1950-01-01", "old black and white film")
	b := media(2, []int{4}, "2024-01-01", "new colorful animation")

	similarity := engine.CalculateSimilarity(a, b)

	assert.GreaterOrEqual(t, similarity, 0.0)
	assert.LessOrEqual(t, similarity, 1.0)
}
