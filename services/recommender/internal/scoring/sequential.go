package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// DefaultHalfLifeDays is the exponential-decay half-life applied to history
// entries: a view 30 days old carries half the weight of one from today.
const DefaultHalfLifeDays = 30.0

// SequentialScorer is the session-aware variant of content scoring: the same
// affinity machinery, but each history entry's contribution decays with the
// age of the view so recent sessions dominate.
type SequentialScorer struct {
	content      *ContentScorer
	halfLifeDays float64
	now          func() time.Time
}

func NewSequentialScorer(content *ContentScorer, halfLifeDays float64) *SequentialScorer {
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	return &SequentialScorer{content: content, halfLifeDays: halfLifeDays, now: time.Now}
}

func (s *SequentialScorer) Name() domain.Algorithm { return domain.AlgorithmSequential }

func (s *SequentialScorer) Score(ctx context.Context, profile domain.UserProfile, candidates []domain.CandidateMovie, _ domain.Params) ([]domain.ScoredRecommendation, error) {
	if len(profile.History) == 0 {
		return nil, fmt.Errorf("empty viewing history: %w", domain.ErrInsufficientData)
	}

	now := s.now()
	decay := func(h domain.HistoryEntry) float64 {
		ageDays := now.Sub(h.WatchedAt).Hours() / 24.0
		if ageDays < 0 {
			ageDays = 0
		}
		return math.Exp(-math.Ln2 * ageDays / s.halfLifeDays)
	}

	aff, err := s.content.buildAffinity(ctx, profile, decay)
	if err != nil {
		return nil, err
	}
	recs := scoreByAffinity(profile, candidates, aff, domain.AlgorithmSequential)
	for i := range recs {
		recs[i].Reason = "Similar to what you watched recently"
	}
	return recs, nil
}
