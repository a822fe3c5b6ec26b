// Package engine orchestrates profile aggregation, scorer dispatch, ranking
// and caching into the Recommend operation.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/example/movie-platform/services/recommender/internal/cache"
	"github.com/example/movie-platform/services/recommender/internal/catalog"
	"github.com/example/movie-platform/services/recommender/internal/domain"
	"github.com/example/movie-platform/services/recommender/internal/profile"
	"github.com/example/movie-platform/services/recommender/internal/scoring"
)

// Limit bounds. Out-of-range requests are clamped, not rejected.
const (
	MinLimit     = 1
	MaxLimit     = 100
	DefaultLimit = 20
)

// Options configures an Engine.
type Options struct {
	DefaultTTL        time.Duration // user-driven algorithms
	TrendingTTL       time.Duration // catalog-driven trending fallback
	CandidatePoolSize int
}

// Engine is the recommendation orchestrator. Scorers register at startup
// into a closed dispatch table keyed by algorithm; requests never branch on
// raw strings.
type Engine struct {
	aggregator *profile.Aggregator
	catalog    catalog.Catalog
	cache      *cache.RecommendationCache
	scorers    map[domain.Algorithm]scoring.Scorer
	fallback   scoring.Scorer // substituted on ErrInsufficientData
	opts       Options
	log        *zap.Logger
	now        func() time.Time
}

func New(agg *profile.Aggregator, cat catalog.Catalog, recCache *cache.RecommendationCache, opts Options, log *zap.Logger) *Engine {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 2 * time.Hour
	}
	if opts.TrendingTTL <= 0 {
		opts.TrendingTTL = 30 * time.Minute
	}
	if opts.CandidatePoolSize <= 0 {
		opts.CandidatePoolSize = 500
	}
	return &Engine{
		aggregator: agg,
		catalog:    cat,
		cache:      recCache,
		scorers:    make(map[domain.Algorithm]scoring.Scorer),
		opts:       opts,
		log:        log,
		now:        time.Now,
	}
}

// Register adds a scorer to the dispatch table. Must be called during
// startup, before Recommend is served.
func (e *Engine) Register(s scoring.Scorer) {
	e.scorers[s.Name()] = s
	if s.Name() == domain.AlgorithmContent {
		e.fallback = s
	}
}

// Recommend computes (or serves from cache) recommendations for userID.
//
// algorithmName must belong to the fixed algorithm set; limit is clamped to
// [MinLimit, MaxLimit]. Favorited movies are excluded from output unless the
// include_favorites extra parameter is true.
func (e *Engine) Recommend(ctx context.Context, userID, algorithmName string, limit int, extra map[string]any) (domain.RecommendationResult, error) {
	algo, err := domain.ParseAlgorithm(algorithmName)
	if err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("%q: %w", algorithmName, domain.ErrUnknownAlgorithm)
	}
	if _, ok := e.scorers[algo]; !ok {
		return domain.RecommendationResult{}, fmt.Errorf("%q not registered: %w", algorithmName, domain.ErrUnknownAlgorithm)
	}

	limit = clampLimit(limit)
	params := paramsFromExtra(limit, extra)

	// Personalized algorithms need a user. Anonymous callers get the
	// trending fallback instead of an empty-profile scoring pass.
	requested := algo
	if userID == "" && algo != domain.AlgorithmTrending {
		if _, ok := e.scorers[domain.AlgorithmTrending]; ok {
			algo = domain.AlgorithmTrending
		}
	}

	key := cacheKey(userID, algo, limit, extra)
	ttl := e.opts.DefaultTTL
	if algo == domain.AlgorithmTrending {
		ttl = e.opts.TrendingTTL
	}

	res, err := e.cache.GetOrCompute(ctx, key, ttl, params.Refresh, func(ctx context.Context) (domain.RecommendationResult, error) {
		return e.compute(ctx, userID, algo, params.Params)
	})
	if err != nil {
		return domain.RecommendationResult{}, err
	}
	res.Requested = requested
	return res, nil
}

// InvalidateUserCache drops every cached result for userID. The external
// favorites/preferences/history mutation handlers call this after any write.
// A store failure wraps domain.ErrCacheUnavailable.
func (e *Engine) InvalidateUserCache(ctx context.Context, userID string) error {
	return e.cache.Invalidate(ctx, userID)
}

// SimilarMovies ranks catalog candidates by similarity to one anchor movie.
// It needs no user profile and shares the trending TTL, being purely
// catalog-driven.
func (e *Engine) SimilarMovies(ctx context.Context, movieID int64, limit int) (domain.RecommendationResult, error) {
	if movieID <= 0 {
		return domain.RecommendationResult{}, fmt.Errorf("movie %d: %w", movieID, domain.ErrMovieNotFound)
	}
	limit = clampLimit(limit)

	key := fmt.Sprintf("%s%d:%d", cache.SimilarKeyPrefix(), movieID, limit)
	return e.cache.GetOrCompute(ctx, key, e.opts.TrendingTTL, false, func(ctx context.Context) (domain.RecommendationResult, error) {
		anchors, err := e.catalog.GetMoviesByIDs(ctx, []int64{movieID})
		if err != nil {
			return domain.RecommendationResult{}, err
		}
		if len(anchors) == 0 {
			return domain.RecommendationResult{}, fmt.Errorf("movie %d: %w", movieID, domain.ErrMovieNotFound)
		}

		candidates, err := e.catalog.GetCandidates(ctx, catalog.CandidateFilter{Limit: e.opts.CandidatePoolSize})
		if err != nil {
			return domain.RecommendationResult{}, err
		}

		recs := scoring.SimilarMovies(anchors[0], candidates)
		recs = e.sanitize("", recs)
		sortRecommendations(recs, candidates)
		if len(recs) > limit {
			recs = recs[:limit]
		}
		return domain.RecommendationResult{
			Recommendations: recs,
			Algorithm:       domain.AlgorithmSimilar,
			Requested:       domain.AlgorithmSimilar,
			GeneratedAt:     e.now().UTC(),
		}, nil
	})
}

// compute is the cache-miss path: build profile, score, sanitize, rank.
func (e *Engine) compute(ctx context.Context, userID string, algo domain.Algorithm, params domain.Params) (domain.RecommendationResult, error) {
	prof, err := e.aggregator.BuildProfile(ctx, userID)
	if err != nil {
		return domain.RecommendationResult{}, err
	}

	candidates, err := e.catalog.GetCandidates(ctx, catalog.CandidateFilter{Limit: e.opts.CandidatePoolSize})
	if err != nil {
		return domain.RecommendationResult{}, err
	}

	executed := algo
	recs, err := e.scorers[algo].Score(ctx, prof, candidates, params)
	if err != nil {
		if !errors.Is(err, domain.ErrInsufficientData) || e.fallback == nil || algo == domain.AlgorithmContent {
			return domain.RecommendationResult{}, err
		}
		// Designed fallback: substitute content-based output and record
		// the substitution in the result provenance.
		e.log.Warn("scorer fell back to content-based",
			zap.String("user_id", userID),
			zap.String("requested", string(algo)),
			zap.Error(err))
		executed = e.fallback.Name()
		recs, err = e.fallback.Score(ctx, prof, candidates, params)
		if err != nil {
			return domain.RecommendationResult{}, err
		}
	}

	recs = e.sanitize(userID, recs)
	recs = e.applyFilters(prof, candidates, recs, params)
	sortRecommendations(recs, candidates)
	if len(recs) > params.Limit {
		recs = recs[:params.Limit]
	}

	return domain.RecommendationResult{
		Recommendations: recs,
		Algorithm:       executed,
		Requested:       algo,
		GeneratedAt:     e.now().UTC(),
	}, nil
}

// sanitize coerces non-finite scores to 0. NaN from a scorer is an anomaly
// worth logging, never a ranking input.
func (e *Engine) sanitize(userID string, recs []domain.ScoredRecommendation) []domain.ScoredRecommendation {
	for i := range recs {
		if math.IsNaN(recs[i].Score) || math.IsInf(recs[i].Score, 0) {
			e.log.Warn("non-finite recommendation score coerced to 0",
				zap.String("user_id", userID),
				zap.Int64("movie_id", recs[i].MovieID),
				zap.String("algorithm", string(recs[i].Algorithm)))
			recs[i].Score = 0
		}
	}
	return recs
}

// applyFilters drops favorites (unless requested) and applies the profile's
// vote-count and release-year preference filters.
func (e *Engine) applyFilters(prof domain.UserProfile, candidates []domain.CandidateMovie, recs []domain.ScoredRecommendation, params domain.Params) []domain.ScoredRecommendation {
	byID := candidateIndex(candidates)
	minYear := 0
	if prof.ReleaseYearRange > 0 {
		minYear = e.now().Year() - prof.ReleaseYearRange
	}

	out := recs[:0]
	for _, r := range recs {
		if !params.IncludeFavorites {
			if _, fav := prof.Favorites[r.MovieID]; fav {
				continue
			}
		}
		if m, ok := byID[r.MovieID]; ok {
			if prof.MinVoteCount > 0 && m.VoteCount < prof.MinVoteCount {
				continue
			}
			if minYear > 0 && m.ReleaseYear > 0 && m.ReleaseYear < minYear {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// sortRecommendations orders by score descending, then vote count
// descending, then movie id ascending, making output deterministic.
func sortRecommendations(recs []domain.ScoredRecommendation, candidates []domain.CandidateMovie) {
	byID := candidateIndex(candidates)
	voteCount := func(id int64) int {
		if m, ok := byID[id]; ok {
			return m.VoteCount
		}
		return 0
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		vi, vj := voteCount(recs[i].MovieID), voteCount(recs[j].MovieID)
		if vi != vj {
			return vi > vj
		}
		return recs[i].MovieID < recs[j].MovieID
	})
}

func candidateIndex(candidates []domain.CandidateMovie) map[int64]domain.CandidateMovie {
	byID := make(map[int64]domain.CandidateMovie, len(candidates))
	for _, m := range candidates {
		byID[m.ID] = m
	}
	return byID
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return MinLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// requestParams separates cache-cycle controls from scorer parameters.
type requestParams struct {
	domain.Params
	Refresh bool
}

func paramsFromExtra(limit int, extra map[string]any) requestParams {
	p := requestParams{Params: domain.Params{Limit: limit, Extra: extra}}
	if v, ok := extra["include_favorites"].(bool); ok {
		p.IncludeFavorites = v
	}
	if v, ok := extra["refresh"].(bool); ok {
		p.Refresh = v
	}
	return p
}

// cacheKey builds the composite key (user, algorithm, limit, extra params).
// Extra params are hashed from their canonical JSON encoding, so equal
// parameter sets share an entry.
func cacheKey(userID string, algo domain.Algorithm, limit int, extra map[string]any) string {
	h := fnv.New64a()
	if len(extra) > 0 {
		// The cache-cycle controls do not change the payload.
		filtered := make(map[string]any, len(extra))
		for k, v := range extra {
			if k == "refresh" {
				continue
			}
			filtered[k] = v
		}
		if len(filtered) > 0 {
			b, err := json.Marshal(filtered) // map keys marshal sorted
			if err == nil {
				_, _ = h.Write(b)
			}
		}
	}
	return fmt.Sprintf("%s%s:%d:%x", cache.UserKeyPrefix(userID), algo, limit, h.Sum64())
}
