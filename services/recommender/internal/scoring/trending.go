package scoring

import (
	"context"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// TrendingScorer ranks by catalog popularity alone. It is the fallback for
// anonymous and no-profile users and never fails on missing signals.
type TrendingScorer struct{}

func NewTrendingScorer() *TrendingScorer { return &TrendingScorer{} }

func (s *TrendingScorer) Name() domain.Algorithm { return domain.AlgorithmTrending }

func (s *TrendingScorer) Score(_ context.Context, profile domain.UserProfile, candidates []domain.CandidateMovie, _ domain.Params) ([]domain.ScoredRecommendation, error) {
	out := make([]domain.ScoredRecommendation, 0, len(candidates))
	for _, m := range candidates {
		if hasAvoidedGenre(profile, m) {
			continue
		}
		out = append(out, domain.ScoredRecommendation{
			MovieID:   m.ID,
			Score:     m.Popularity,
			Reason:    "Currently trending",
			Algorithm: domain.AlgorithmTrending,
		})
	}
	normalizeScores(out)
	return out, nil
}
