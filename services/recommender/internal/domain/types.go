// Package domain holds the shared types of the recommendation core.
package domain

import (
	"strings"
	"time"
)

// Algorithm is the closed set of recommendation strategies.
type Algorithm string

const (
	AlgorithmContent             Algorithm = "content"
	AlgorithmCollaborative       Algorithm = "collaborative"
	AlgorithmSequential          Algorithm = "sequential"
	AlgorithmMatrixFactorization Algorithm = "matrix_factorization"
	AlgorithmNeuralCF            Algorithm = "neural_cf"
	AlgorithmEnsemble            Algorithm = "ensemble"
	AlgorithmHybrid              Algorithm = "hybrid"
	AlgorithmTrending            Algorithm = "trending"

	// AlgorithmSimilar tags per-movie similarity lookups. It is served by
	// its own endpoint and is not selectable through the algorithm
	// parameter, so it stays out of Algorithms.
	AlgorithmSimilar Algorithm = "similar"
)

// Algorithms lists every registered algorithm, in dispatch-table order.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmContent,
		AlgorithmCollaborative,
		AlgorithmSequential,
		AlgorithmMatrixFactorization,
		AlgorithmNeuralCF,
		AlgorithmEnsemble,
		AlgorithmHybrid,
		AlgorithmTrending,
	}
}

// ParseAlgorithm validates a request-supplied algorithm name.
// The empty string selects the hybrid default.
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return AlgorithmHybrid, nil
	}
	for _, a := range Algorithms() {
		if string(a) == name {
			return a, nil
		}
	}
	return "", ErrUnknownAlgorithm
}

// HistoryEntry is a single viewing-history record. Rating 0 means unrated.
type HistoryEntry struct {
	MovieID   int64     `json:"movie_id"`
	Rating    int       `json:"rating"`
	WatchedAt time.Time `json:"watched_at"`
}

// Preferences are the user's explicit recommendation settings.
type Preferences struct {
	PreferredGenres    []int64  `json:"preferred_genres"`
	AvoidedGenres      []int64  `json:"avoided_genres"`
	MinVoteAverage     float64  `json:"min_vote_average"`
	MinVoteCount       int      `json:"min_vote_count"`
	PreferredLanguages []string `json:"preferred_languages"`
	ReleaseYearRange   int      `json:"release_year_range"` // 0 disables the year filter
}

// UserProfile is the normalized summary of a user's taste signals.
// Preferred and avoided genre sets are disjoint: when a genre appears in
// both, avoided wins and it is dropped from preferred.
type UserProfile struct {
	UserID             string
	Favorites          map[int64]struct{}
	PreferredGenres    map[int64]struct{}
	AvoidedGenres      map[int64]struct{}
	MinVoteAverage     float64
	MinVoteCount       int
	PreferredLanguages map[string]struct{}
	ReleaseYearRange   int
	// History is ordered oldest first and deduplicated by movie id,
	// keeping only the most recent entry per movie.
	History []HistoryEntry
}

// SignalCount is the combined favorites+history size used for the
// hybrid cold-start decision.
func (p UserProfile) SignalCount() int {
	return len(p.Favorites) + len(p.History)
}

// Seen reports whether the user already favorited or watched the movie.
func (p UserProfile) Seen(movieID int64) bool {
	if _, ok := p.Favorites[movieID]; ok {
		return true
	}
	for _, h := range p.History {
		if h.MovieID == movieID {
			return true
		}
	}
	return false
}

// CandidateMovie is a read-only catalog snapshot record. The core never
// mutates candidates.
type CandidateMovie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	GenreIDs         []int64 `json:"genre_ids"`
	CastIDs          []int64 `json:"cast_ids"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Overview         string  `json:"overview"`
	ReleaseYear      int     `json:"release_year"`
	OriginalLanguage string  `json:"original_language"`
}

// Genre is a catalog genre record.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ScoredRecommendation is one ranked output row. Score is always finite;
// NaN produced by a scorer is coerced to 0 before ranking.
type ScoredRecommendation struct {
	MovieID   int64     `json:"movie_id"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
	Algorithm Algorithm `json:"algorithm"`
}

// RecommendationResult is the ordered output of one computation.
// Algorithm records what actually executed, which may differ from the
// request when a fallback substitution occurred.
type RecommendationResult struct {
	Recommendations []ScoredRecommendation `json:"recommendations"`
	Algorithm       Algorithm              `json:"algorithm"`
	Requested       Algorithm              `json:"requested"`
	GeneratedAt     time.Time              `json:"generated_at"`
	Cached          bool                   `json:"cached"`
}

// Params carries per-request extra parameters into scorers.
type Params struct {
	Limit            int            `json:"limit"`
	IncludeFavorites bool           `json:"include_favorites"`
	Extra            map[string]any `json:"extra,omitempty"`
}
