package scoring

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/example/movie-platform/services/recommender/internal/domain"
	"github.com/example/movie-platform/services/recommender/internal/interactions"
)

// LatentDim is the fixed latent-vector size for both scorer variants.
const LatentDim = 32

// LatentStore serves trained user and movie latent vectors. A snapshot is
// immutable once built; the training/refresh cycle lives outside the core.
type LatentStore interface {
	UserVector(userID string) ([]float64, bool)
	MovieVector(movieID int64) ([]float64, bool)
}

// SeededLatentStore derives deterministic unit vectors for every user and
// movie present in an interaction snapshot. It stands in for an offline
// trainer: same snapshot, same vectors, so scoring stays reproducible.
type SeededLatentStore struct {
	users  map[string][]float64
	movies map[int64][]float64
}

// BuildLatentStore materializes vectors for the ids present in the matrix.
// Movies nobody ever interacted with get no vector on purpose; scorers give
// them the popularity default instead.
func BuildLatentStore(matrix interactions.Matrix, dim int) *SeededLatentStore {
	if dim <= 0 {
		dim = LatentDim
	}
	s := &SeededLatentStore{
		users:  make(map[string][]float64),
		movies: make(map[int64][]float64),
	}
	for uid, row := range matrix {
		s.users[uid] = seededUnitVector("user:"+uid, dim)
		for mid := range row {
			if _, ok := s.movies[mid]; !ok {
				s.movies[mid] = seededUnitVector(fmt.Sprintf("movie:%d", mid), dim)
			}
		}
	}
	return s
}

func (s *SeededLatentStore) UserVector(userID string) ([]float64, bool) {
	v, ok := s.users[userID]
	return v, ok
}

func (s *SeededLatentStore) MovieVector(movieID int64) ([]float64, bool) {
	v, ok := s.movies[movieID]
	return v, ok
}

// seededUnitVector draws a normalized gaussian vector from an id-derived
// seed, so the same id always yields the same vector.
func seededUnitVector(id string, dim int) []float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	v := make([]float64, dim)
	var norm float64
	for i := range v {
		v[i] = rng.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

// latentScorer is the shared core of the matrix-factorization and neural-CF
// variants; only the interaction function differs.
type latentScorer struct {
	name    domain.Algorithm
	store   LatentStore
	reason  string
	combine func(user, movie []float64) float64
}

func (s *latentScorer) Name() domain.Algorithm { return s.name }

func (s *latentScorer) Score(_ context.Context, profile domain.UserProfile, candidates []domain.CandidateMovie, _ domain.Params) ([]domain.ScoredRecommendation, error) {
	userVec, ok := s.store.UserVector(profile.UserID)
	if !ok {
		return nil, fmt.Errorf("no latent vector for user %s: %w", profile.UserID, domain.ErrInsufficientData)
	}

	// Popularity default for cold movies, min-maxed over the candidate set.
	popLo, popHi := math.Inf(1), math.Inf(-1)
	for _, m := range candidates {
		popLo = math.Min(popLo, m.Popularity)
		popHi = math.Max(popHi, m.Popularity)
	}
	popDefault := func(m domain.CandidateMovie) float64 {
		if popHi == popLo {
			return 1.0
		}
		return (m.Popularity - popLo) / (popHi - popLo)
	}

	out := make([]domain.ScoredRecommendation, 0, len(candidates))
	for _, m := range candidates {
		var score float64
		var reason string
		if movieVec, ok := s.store.MovieVector(m.ID); ok {
			score = s.combine(userVec, movieVec)
			reason = s.reason
		} else {
			score = popDefault(m)
			reason = "Popular with all viewers"
		}
		out = append(out, domain.ScoredRecommendation{
			MovieID:   m.ID,
			Score:     score,
			Reason:    reason,
			Algorithm: s.name,
		})
	}
	return out, nil
}

// NewMatrixFactorizationScorer scores by the plain dot product of the user
// and movie latent vectors.
func NewMatrixFactorizationScorer(store LatentStore) Scorer {
	return &latentScorer{
		name:    domain.AlgorithmMatrixFactorization,
		store:   store,
		reason:  "Matches your interaction patterns",
		combine: dot,
	}
}

// NewNeuralCFScorer blends the linear (GMF) term with a squashed nonlinear
// term, after the NeuMF formulation with fixed halves.
func NewNeuralCFScorer(store LatentStore) Scorer {
	return &latentScorer{
		name:   domain.AlgorithmNeuralCF,
		store:  store,
		reason: "Deep-interaction match with your taste",
		combine: func(u, m []float64) float64 {
			d := dot(u, m)
			return 0.5*d + 0.5*math.Tanh(2*d)
		},
	}
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
