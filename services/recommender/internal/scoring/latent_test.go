package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/example/movie-platform/services/recommender/internal/domain"
	"github.com/example/movie-platform/services/recommender/internal/interactions"
)

func testMatrix() interactions.Matrix {
	return interactions.Matrix{
		"u1": {1: 1.0, 2: 0.8},
		"u2": {2: 0.9, 3: 1.0},
	}
}

func TestBuildLatentStore_Deterministic(t *testing.T) {
	a := BuildLatentStore(testMatrix(), LatentDim)
	b := BuildLatentStore(testMatrix(), LatentDim)

	va, ok := a.UserVector("u1")
	if !ok {
		t.Fatal("expected vector for u1")
	}
	vb, _ := b.UserVector("u1")
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, va[i], vb[i])
		}
	}

	ma, ok := a.MovieVector(2)
	if !ok {
		t.Fatal("expected vector for movie 2")
	}
	mb, _ := b.MovieVector(2)
	for i := range ma {
		if ma[i] != mb[i] {
			t.Fatalf("movie vectors differ at %d", i)
		}
	}
}

func TestBuildLatentStore_UnitNorm(t *testing.T) {
	s := BuildLatentStore(testMatrix(), LatentDim)
	v, _ := s.UserVector("u2")
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-9 {
		t.Fatalf("expected unit vector, norm %v", math.Sqrt(norm))
	}
}

func TestMatrixFactorizationScorer_UnknownUser(t *testing.T) {
	s := NewMatrixFactorizationScorer(BuildLatentStore(testMatrix(), LatentDim))

	_, err := s.Score(context.Background(), newProfile("stranger"), []domain.CandidateMovie{{ID: 1}}, domain.Params{})
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMatrixFactorizationScorer_ColdMovieGetsPopularityDefault(t *testing.T) {
	s := NewMatrixFactorizationScorer(BuildLatentStore(testMatrix(), LatentDim))

	cands := []domain.CandidateMovie{
		{ID: 3, Popularity: 10},   // has a vector
		{ID: 100, Popularity: 50}, // cold: no interactions ever
		{ID: 101, Popularity: 20}, // cold
	}
	recs, err := s.Score(context.Background(), newProfile("u1"), cands, domain.Params{})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 recs, got %d", len(recs))
	}
	byID := make(map[int64]domain.ScoredRecommendation, len(recs))
	for _, r := range recs {
		byID[r.MovieID] = r
	}

	// Popularity min-max over the pool: 50 -> 1.0, 20 -> 0.25.
	if byID[100].Score != 1.0 {
		t.Fatalf("expected 1.0 for most popular cold movie, got %v", byID[100].Score)
	}
	if byID[101].Score != 0.25 {
		t.Fatalf("expected 0.25, got %v", byID[101].Score)
	}
	if byID[100].Reason != "Popular with all viewers" {
		t.Fatalf("unexpected cold-movie reason %q", byID[100].Reason)
	}
	if byID[3].Reason == "Popular with all viewers" {
		t.Fatal("warm movie should carry the model reason")
	}
}

func TestNeuralCFScorer_BoundedByLinearTerm(t *testing.T) {
	store := BuildLatentStore(testMatrix(), LatentDim)
	mf := NewMatrixFactorizationScorer(store)
	ncf := NewNeuralCFScorer(store)

	cands := []domain.CandidateMovie{{ID: 1}, {ID: 2}, {ID: 3}}
	mfRecs, err := mf.Score(context.Background(), newProfile("u1"), cands, domain.Params{})
	if err != nil {
		t.Fatalf("mf score: %v", err)
	}
	ncfRecs, err := ncf.Score(context.Background(), newProfile("u1"), cands, domain.Params{})
	if err != nil {
		t.Fatalf("ncf score: %v", err)
	}

	// tanh preserves sign, so both variants must agree on direction.
	for i := range mfRecs {
		if mfRecs[i].Score > 0 != (ncfRecs[i].Score > 0) && mfRecs[i].Score != 0 {
			t.Fatalf("sign mismatch at movie %d: mf=%v ncf=%v",
				mfRecs[i].MovieID, mfRecs[i].Score, ncfRecs[i].Score)
		}
	}
}

func TestDot(t *testing.T) {
	if got := dot([]float64{1, 2, 3}, []float64{4, 5, 6}); got != 32 {
		t.Fatalf("dot = %v, want 32", got)
	}
	if got := dot([]float64{1, 2}, []float64{3}); got != 3 {
		t.Fatalf("short-vector dot = %v, want 3", got)
	}
}
