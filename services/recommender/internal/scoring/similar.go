package scoring

import (
	"fmt"
	"math"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// Component weights of the per-movie similarity score. Genre overlap
// dominates; quality keeps well-rated lookalikes ahead of obscure ones.
const (
	similarGenreWeight    = 0.60
	similarLanguageWeight = 0.10
	similarQualityWeight  = 0.30
)

// SimilarMovies ranks candidates by similarity to the anchor movie. Genre
// similarity is cosine over the two genre sets; candidates sharing no genre
// with the anchor are dropped, as is the anchor itself.
func SimilarMovies(anchor domain.CandidateMovie, candidates []domain.CandidateMovie) []domain.ScoredRecommendation {
	recs := make([]domain.ScoredRecommendation, 0, len(candidates))
	for _, m := range candidates {
		if m.ID == anchor.ID {
			continue
		}
		genre := genreCosine(anchor.GenreIDs, m.GenreIDs)
		if genre == 0 {
			continue
		}
		var lang float64
		if anchor.OriginalLanguage != "" && m.OriginalLanguage == anchor.OriginalLanguage {
			lang = 1
		}
		score := similarGenreWeight*genre +
			similarLanguageWeight*lang +
			similarQualityWeight*qualityScore(m)
		recs = append(recs, domain.ScoredRecommendation{
			MovieID:   m.ID,
			Score:     score,
			Reason:    fmt.Sprintf("Similar to %s", anchor.Title),
			Algorithm: domain.AlgorithmSimilar,
		})
	}
	normalizeScores(recs)
	return recs
}

// genreCosine is cosine similarity over two genre id sets:
// |intersection| / sqrt(|a|*|b|). Either set empty yields 0.
func genreCosine(a, b []int64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[int64]struct{}, len(a))
	for _, g := range a {
		set[g] = struct{}{}
	}
	shared := 0
	for _, g := range b {
		if _, ok := set[g]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(shared) / math.Sqrt(float64(len(a))*float64(len(b)))
}
