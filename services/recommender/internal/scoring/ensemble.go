package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// EnsembleScorer runs a fixed set of member scorers, min-max normalizes each
// member's scores to [0,1], and combines them with static configured weights.
// A member failing with insufficient data is skipped, not fatal; the ensemble
// itself fails only when every member does.
type EnsembleScorer struct {
	members []Scorer
	weights map[domain.Algorithm]float64
	log     *zap.Logger
}

// NewEnsembleScorer builds the ensemble. A nil weights map assigns every
// member equal weight.
func NewEnsembleScorer(members []Scorer, weights map[domain.Algorithm]float64, log *zap.Logger) *EnsembleScorer {
	if weights == nil {
		weights = make(map[domain.Algorithm]float64, len(members))
		for _, m := range members {
			weights[m.Name()] = 1.0 / float64(len(members))
		}
	}
	return &EnsembleScorer{members: members, weights: weights, log: log}
}

func (s *EnsembleScorer) Name() domain.Algorithm { return domain.AlgorithmEnsemble }

func (s *EnsembleScorer) Score(ctx context.Context, profile domain.UserProfile, candidates []domain.CandidateMovie, params domain.Params) ([]domain.ScoredRecommendation, error) {
	type entry struct {
		score   float64
		sources []string
	}
	combined := make(map[int64]*entry)
	var ran int

	for _, member := range s.members {
		w := s.weights[member.Name()]
		if w == 0 {
			continue
		}
		recs, err := member.Score(ctx, profile, candidates, params)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientData) {
				s.log.Warn("ensemble member skipped",
					zap.String("member", string(member.Name())), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("ensemble member %s: %w", member.Name(), err)
		}
		ran++

		normalizeScores(recs)
		for _, r := range recs {
			e, ok := combined[r.MovieID]
			if !ok {
				e = &entry{}
				combined[r.MovieID] = e
			}
			e.score += w * r.Score
			e.sources = append(e.sources, string(member.Name()))
		}
	}

	if ran == 0 {
		return nil, fmt.Errorf("no ensemble member produced output: %w", domain.ErrInsufficientData)
	}

	out := make([]domain.ScoredRecommendation, 0, len(combined))
	for id, e := range combined {
		sort.Strings(e.sources)
		out = append(out, domain.ScoredRecommendation{
			MovieID:   id,
			Score:     e.score,
			Reason:    "Ensemble of " + strings.Join(e.sources, "+"),
			Algorithm: domain.AlgorithmEnsemble,
		})
	}
	return out, nil
}
