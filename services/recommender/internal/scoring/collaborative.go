package scoring

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/movie-platform/services/recommender/internal/domain"
	"github.com/example/movie-platform/services/recommender/internal/interactions"
)

// DefaultNeighbors is the k of the KNN neighborhood.
const DefaultNeighbors = 20

// minOverlappingNeighbors is the designed floor below which collaborative
// filtering gives up and the orchestrator substitutes content-based output.
const minOverlappingNeighbors = 2

// CollaborativeScorer is user-based KNN over the cross-user interaction
// snapshot: find the k most similar users by cosine similarity over shared
// movies, then recommend what they liked and the target user has not seen.
type CollaborativeScorer struct {
	store     interactions.Store
	neighbors int
}

func NewCollaborativeScorer(store interactions.Store, neighbors int) *CollaborativeScorer {
	if neighbors <= 0 {
		neighbors = DefaultNeighbors
	}
	return &CollaborativeScorer{store: store, neighbors: neighbors}
}

func (s *CollaborativeScorer) Name() domain.Algorithm { return domain.AlgorithmCollaborative }

func (s *CollaborativeScorer) Score(ctx context.Context, profile domain.UserProfile, candidates []domain.CandidateMovie, _ domain.Params) ([]domain.ScoredRecommendation, error) {
	matrix, err := s.store.GetAllUserInteractions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInteractionStoreUnavailable, err)
	}

	userVec := matrix.Vector(profile.UserID)
	if len(userVec) == 0 {
		return nil, fmt.Errorf("user %s has no interactions: %w", profile.UserID, domain.ErrInsufficientData)
	}

	type neighbor struct {
		id  string
		sim float64
	}
	var hood []neighbor
	for uid, vec := range matrix {
		if uid == profile.UserID {
			continue
		}
		if sim := cosineShared(userVec, vec); sim > 0 {
			hood = append(hood, neighbor{id: uid, sim: sim})
		}
	}
	if len(hood) < minOverlappingNeighbors {
		return nil, fmt.Errorf("%d overlapping neighbors: %w", len(hood), domain.ErrInsufficientData)
	}

	sort.Slice(hood, func(i, j int) bool {
		if hood[i].sim != hood[j].sim {
			return hood[i].sim > hood[j].sim
		}
		return hood[i].id < hood[j].id
	})
	if len(hood) > s.neighbors {
		hood = hood[:s.neighbors]
	}

	// Accumulate similarity-weighted interest from the neighborhood.
	votes := make(map[int64]float64)
	var simSum float64
	for _, n := range hood {
		simSum += n.sim
		for mid, w := range matrix[n.id] {
			if profile.Seen(mid) {
				continue
			}
			votes[mid] += n.sim * w
		}
	}

	out := make([]domain.ScoredRecommendation, 0, len(candidates))
	for _, m := range candidates {
		v, ok := votes[m.ID]
		if !ok {
			continue
		}
		out = append(out, domain.ScoredRecommendation{
			MovieID:   m.ID,
			Score:     v / simSum,
			Reason:    "Liked by users with similar taste",
			Algorithm: domain.AlgorithmCollaborative,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no neighborhood votes overlap the candidate set: %w", domain.ErrInsufficientData)
	}
	return out, nil
}
