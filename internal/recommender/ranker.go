package recommender

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/reelmatch/pkg/models"
)

// GetRecommendations ranks pool for profile and returns at most count items.
// No genre appears in more than ceil(count/divisor) of the returned items.
// Items rejected by that cap are not backfilled, so the result may be short.
func (e *Engine) GetRecommendations(ctx context.Context, profile *models.UserProfile, count int, pool []models.Media) ([]models.Media, error) {
	ranked, err := e.RankRecommendations(ctx, profile, count, pool)
	if err != nil {
		return nil, err
	}

	items := make([]models.Media, len(ranked))
	for i, r := range ranked {
		items[i] = r.Media
	}
	return items, nil
}

// RankRecommendations is GetRecommendations with the score breakdown attached.
func (e *Engine) RankRecommendations(ctx context.Context, profile *models.UserProfile, count int, pool []models.Media) ([]models.ScoredMedia, error) {
	if count <= 0 || len(pool) == 0 {
		return []models.ScoredMedia{}, nil
	}
	if profile == nil {
		profile = models.NewUserProfile("")
	}

	candidates := uniqueByID(pool)
	scores, err := e.scoreAll(ctx, profile, candidates)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]].Score > scores[order[j]].Score
	})

	limit := (count + e.config.Diversity.GenreCapDivisor - 1) / e.config.Diversity.GenreCapDivisor
	genreCounts := make(map[int]int)
	selected := make([]models.ScoredMedia, 0, count)

	for _, idx := range order {
		if len(selected) == count {
			break
		}
		candidate := candidates[idx]
		if !withinGenreCap(candidate, genreCounts, limit) {
			continue
		}
		for _, genreID := range uniqueInts(candidate.GenreIDs) {
			genreCounts[genreID]++
		}
		selected = append(selected, models.ScoredMedia{
			Media:    candidate,
			Score:    scores[idx],
			Position: len(selected) + 1,
		})
	}

	e.logger.WithFields(logrus.Fields{
		"user_id":   profile.ID,
		"pool_size": len(candidates),
		"requested": count,
		"returned":  len(selected),
		"genre_cap": limit,
	}).Debug("Ranked recommendations")

	return selected, nil
}

// scoreAll scores every candidate in parallel. Results are indexed by
// candidate position, so the outcome does not depend on completion order.
func (e *Engine) scoreAll(ctx context.Context, profile *models.UserProfile, candidates []models.Media) ([]models.RecommendationScore, error) {
	scores := make([]models.RecommendationScore, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)

	for i := range candidates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			others := e.othersFor(gctx, candidates[i].ID)
			scores[i] = e.Score(candidates[i], profile, others)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// othersFor loads the profiles that interacted with mediaID. A failing
// repository only removes the collaborative signal for that candidate.
func (e *Engine) othersFor(ctx context.Context, mediaID int) []*models.UserProfile {
	if e.profiles == nil {
		return nil
	}

	others, err := e.profiles.ListProfilesInteractingWith(ctx, mediaID)
	if err != nil {
		e.logger.WithError(err).WithField("media_id", mediaID).Warn("Failed to load profiles for collaborative scoring")
		return nil
	}
	return others
}

func withinGenreCap(candidate models.Media, counts map[int]int, limit int) bool {
	for _, genreID := range uniqueInts(candidate.GenreIDs) {
		if counts[genreID]+1 > limit {
			return false
		}
	}
	return true
}

// GetSimilarContent returns the count items of pool most similar to
// reference. The reference itself is never returned.
func (e *Engine) GetSimilarContent(reference models.Media, count int, pool []models.Media) []models.Media {
	if count <= 0 || len(pool) == 0 {
		return []models.Media{}
	}

	type scored struct {
		media      models.Media
		similarity float64
	}

	candidates := make([]scored, 0, len(pool))
	for _, m := range uniqueByID(pool) {
		if m.ID == reference.ID {
			continue
		}
		candidates = append(candidates, scored{media: m, similarity: e.CalculateSimilarity(reference, m)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].similarity > candidates[j].similarity
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	items := make([]models.Media, len(candidates))
	for i, c := range candidates {
		items[i] = c.media
	}
	return items
}

// uniqueByID drops repeated ids, keeping the first occurrence.
func uniqueByID(pool []models.Media) []models.Media {
	seen := make(map[int]struct{}, len(pool))
	out := make([]models.Media, 0, len(pool))
	for _, m := range pool {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func uniqueInts(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
