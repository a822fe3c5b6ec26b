package scoring

import (
	"context"
	"fmt"

	"github.com/example/movie-platform/services/recommender/internal/catalog"
	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// Component weights of the content score. Quality keeps a floor so that
// candidates outside the user's affinity still rank instead of vanishing.
const (
	contentGenreWeight   = 0.45
	contentCastWeight    = 0.15
	contentTextWeight    = 0.10
	contentQualityWeight = 0.30

	preferredGenreBoost    = 0.15
	preferredGenreBoostCap = 0.30
	preferredLanguageBoost = 0.10
)

// affinity is a per-user taste vector over genres, cast members and
// overview terms, built from favorites and rated history.
type affinity struct {
	genres map[int64]float64
	cast   map[int64]float64
	terms  map[string]float64
	// mass is the total absolute genre weight, used for normalization.
	mass float64
}

// ContentScorer ranks candidates by weighted overlap with the user's
// genre/cast affinity vector, with a term-frequency tiebreak over overview
// text and a quality floor.
type ContentScorer struct {
	catalog catalog.Catalog
}

func NewContentScorer(cat catalog.Catalog) *ContentScorer {
	return &ContentScorer{catalog: cat}
}

func (s *ContentScorer) Name() domain.Algorithm { return domain.AlgorithmContent }

func (s *ContentScorer) Score(ctx context.Context, profile domain.UserProfile, candidates []domain.CandidateMovie, _ domain.Params) ([]domain.ScoredRecommendation, error) {
	aff, err := s.buildAffinity(ctx, profile, nil)
	if err != nil {
		return nil, err
	}
	return scoreByAffinity(profile, candidates, aff, domain.AlgorithmContent), nil
}

// buildAffinity folds favorites and history into the taste vector. decay, when
// non-nil, scales each history entry's contribution (used by the sequential
// scorer); favorites always contribute full weight.
func (s *ContentScorer) buildAffinity(ctx context.Context, profile domain.UserProfile, decay func(domain.HistoryEntry) float64) (affinity, error) {
	aff := affinity{
		genres: make(map[int64]float64),
		cast:   make(map[int64]float64),
		terms:  make(map[string]float64),
	}

	ids := make([]int64, 0, len(profile.Favorites)+len(profile.History))
	for id := range profile.Favorites {
		ids = append(ids, id)
	}
	for _, h := range profile.History {
		if _, fav := profile.Favorites[h.MovieID]; !fav {
			ids = append(ids, h.MovieID)
		}
	}
	movies, err := s.catalog.GetMoviesByIDs(ctx, ids)
	if err != nil {
		return affinity{}, fmt.Errorf("affinity source movies: %w", err)
	}
	byID := make(map[int64]domain.CandidateMovie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}

	add := func(m domain.CandidateMovie, w float64) {
		if w == 0 {
			return
		}
		for _, g := range m.GenreIDs {
			aff.genres[g] += w
		}
		for _, c := range m.CastIDs {
			aff.cast[c] += w
		}
		// Only positive signals contribute liked keywords.
		if w > 0 {
			for _, t := range tokenize(m.Overview) {
				aff.terms[t] += w
			}
		}
	}

	for id := range profile.Favorites {
		if m, ok := byID[id]; ok {
			add(m, 1.0)
		}
	}
	for _, h := range profile.History {
		m, ok := byID[h.MovieID]
		if !ok {
			continue
		}
		w := historyWeight(h.Rating)
		if decay != nil {
			w *= decay(h)
		}
		add(m, w)
	}

	for _, w := range aff.genres {
		if w > 0 {
			aff.mass += w
		} else {
			aff.mass -= w
		}
	}
	return aff, nil
}

// scoreByAffinity applies the shared content scoring rule to every candidate.
// Candidates in avoided genres are dropped; candidates below the user's
// minimum vote average are hard-filtered, not soft-penalized.
func scoreByAffinity(profile domain.UserProfile, candidates []domain.CandidateMovie, aff affinity, algo domain.Algorithm) []domain.ScoredRecommendation {
	var termMass float64
	for _, w := range aff.terms {
		termMass += w
	}
	var castMass float64
	for _, w := range aff.cast {
		if w > 0 {
			castMass += w
		} else {
			castMass -= w
		}
	}

	out := make([]domain.ScoredRecommendation, 0, len(candidates))
	for _, m := range candidates {
		if hasAvoidedGenre(profile, m) {
			continue
		}
		if profile.MinVoteAverage > 0 && m.VoteAverage < profile.MinVoteAverage {
			continue
		}

		var genre float64
		for _, g := range m.GenreIDs {
			genre += aff.genres[g]
		}
		if aff.mass > 0 {
			genre /= aff.mass
		}

		var cast float64
		for _, c := range m.CastIDs {
			cast += aff.cast[c]
		}
		if castMass > 0 {
			cast /= castMass
		}

		var text float64
		if termMass > 0 {
			for _, t := range tokenize(m.Overview) {
				text += aff.terms[t]
			}
			text /= termMass
		}

		score := contentGenreWeight*genre +
			contentCastWeight*cast +
			contentTextWeight*text +
			contentQualityWeight*qualityScore(m)

		var boost float64
		for _, g := range m.GenreIDs {
			if _, ok := profile.PreferredGenres[g]; ok {
				boost += preferredGenreBoost
			}
		}
		if boost > preferredGenreBoostCap {
			boost = preferredGenreBoostCap
		}
		if _, ok := profile.PreferredLanguages[m.OriginalLanguage]; ok {
			boost += preferredLanguageBoost
		}
		score += boost

		out = append(out, domain.ScoredRecommendation{
			MovieID:   m.ID,
			Score:     score,
			Reason:    "Matches your genre and cast preferences",
			Algorithm: algo,
		})
	}
	return out
}

func hasAvoidedGenre(profile domain.UserProfile, m domain.CandidateMovie) bool {
	for _, g := range m.GenreIDs {
		if _, ok := profile.AvoidedGenres[g]; ok {
			return true
		}
	}
	return false
}
