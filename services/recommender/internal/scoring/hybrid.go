package scoring

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// Hybrid blending constants. Below ColdStartThreshold combined signals the
// profile is a cold start and content-based runs at full weight; otherwise
// the collaborative share grows with history length up to the cap.
const (
	ColdStartThreshold            = 5
	DefaultMaxCollaborativeWeight = 0.7
	historyPerFullWeight          = 20.0
)

// HybridScorer blends content-based and collaborative output with weights
// driven by how much signal the profile actually carries.
type HybridScorer struct {
	content         *ContentScorer
	collaborative   *CollaborativeScorer
	maxCollabWeight float64
	log             *zap.Logger
}

func NewHybridScorer(content *ContentScorer, collaborative *CollaborativeScorer, maxCollabWeight float64, log *zap.Logger) *HybridScorer {
	if maxCollabWeight <= 0 || maxCollabWeight > 1 {
		maxCollabWeight = DefaultMaxCollaborativeWeight
	}
	return &HybridScorer{
		content:         content,
		collaborative:   collaborative,
		maxCollabWeight: maxCollabWeight,
		log:             log,
	}
}

func (s *HybridScorer) Name() domain.Algorithm { return domain.AlgorithmHybrid }

// CollaborativeWeight returns the blend weight for the given history length.
func (s *HybridScorer) CollaborativeWeight(historyLen int) float64 {
	w := float64(historyLen) / historyPerFullWeight
	if w > s.maxCollabWeight {
		w = s.maxCollabWeight
	}
	return w
}

func (s *HybridScorer) Score(ctx context.Context, profile domain.UserProfile, candidates []domain.CandidateMovie, params domain.Params) ([]domain.ScoredRecommendation, error) {
	// Cold start: pure content, scores passed through untouched so the
	// result is identical to a direct content-based call.
	if profile.SignalCount() < ColdStartThreshold {
		return s.content.Score(ctx, profile, candidates, params)
	}

	contentRecs, err := s.content.Score(ctx, profile, candidates, params)
	if err != nil {
		return nil, err
	}

	collabRecs, err := s.collaborative.Score(ctx, profile, candidates, params)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			s.log.Warn("hybrid: collaborative skipped", zap.String("user_id", profile.UserID), zap.Error(err))
			return contentRecs, nil
		}
		return nil, fmt.Errorf("hybrid collaborative: %w", err)
	}

	wCollab := s.CollaborativeWeight(len(profile.History))
	wContent := 1.0 - wCollab

	normalizeScores(contentRecs)
	normalizeScores(collabRecs)

	type entry struct {
		score  float64
		reason string
	}
	combined := make(map[int64]*entry, len(contentRecs))
	for _, r := range contentRecs {
		combined[r.MovieID] = &entry{score: wContent * r.Score, reason: r.Reason}
	}
	for _, r := range collabRecs {
		if e, ok := combined[r.MovieID]; ok {
			e.score += wCollab * r.Score
			e.reason = "Blend of your taste profile and similar viewers"
		} else {
			combined[r.MovieID] = &entry{score: wCollab * r.Score, reason: r.Reason}
		}
	}

	out := make([]domain.ScoredRecommendation, 0, len(combined))
	for id, e := range combined {
		out = append(out, domain.ScoredRecommendation{
			MovieID:   id,
			Score:     e.score,
			Reason:    e.reason,
			Algorithm: domain.AlgorithmHybrid,
		})
	}
	return out, nil
}
