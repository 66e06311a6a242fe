package recommender

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/temcen/reelmatch/pkg/models"
)

// component is one term of a weighted blend. Components that could not be
// computed are left out so the blend renormalizes over what remains.
type component struct {
	value  float64
	weight float64
}

// blend returns sum(value*weight)/sum(weight), or 0 when nothing applies.
func blend(parts []component) float64 {
	if len(parts) == 0 {
		return 0
	}
	values := make([]float64, len(parts))
	weights := make([]float64, len(parts))
	for i, p := range parts {
		values[i] = p.value
		weights[i] = p.weight
	}

	total := floats.Sum(weights)
	if total == 0 {
		return 0
	}
	return floats.Dot(values, weights) / total
}

// CalculateSimilarity scores two media items in [0, 1] from genre overlap,
// release-year distance and overview word overlap.
func (e *Engine) CalculateSimilarity(a, b models.Media) float64 {
	cfg := e.config.Similarity
	parts := make([]component, 0, 3)

	if len(a.GenreIDs) > 0 && len(b.GenreIDs) > 0 {
		parts = append(parts, component{value: jaccardInts(a.GenreIDs, b.GenreIDs), weight: cfg.GenreWeight})
	}

	yearA, okA := a.Year()
	yearB, okB := b.Year()
	if okA && okB {
		distance := math.Abs(float64(yearA - yearB))
		parts = append(parts, component{value: math.Exp(-distance / cfg.YearScale), weight: cfg.YearWeight})
	}

	wordsA := overviewTokens(a.Overview)
	wordsB := overviewTokens(b.Overview)
	if len(wordsA) > 0 && len(wordsB) > 0 {
		parts = append(parts, component{value: jaccardStrings(wordsA, wordsB), weight: cfg.ThemeWeight})
	}

	return blend(parts)
}

func overviewTokens(overview string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(overview)) {
		tokens[word] = struct{}{}
	}
	return tokens
}

func jaccardInts(a, b []int) float64 {
	setA := make(map[int]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[int]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func jaccardStrings(a, b map[string]struct{}) float64 {
	intersection := 0
	for v := range a {
		if _, ok := b[v]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
