package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// keyPrefix namespaces recommendation entries in the shared store.
const keyPrefix = "rec:"

// UserKeyPrefix returns the store prefix holding every cache entry of one
// user, for prefix-style invalidation.
func UserKeyPrefix(userID string) string {
	return keyPrefix + userID + ":"
}

// SimilarKeyPrefix namespaces the per-movie similarity entries, which belong
// to no user and survive user invalidation.
func SimilarKeyPrefix() string {
	return keyPrefix + "similar!:"
}

// RecommendationCache provides the get-or-compute cycle around the
// orchestrator. Concurrent requests for the same key share a single in-flight
// computation via singleflight; unrelated keys never contend.
//
// Store failures degrade to compute-only: a recommendation is always worth
// more than its cache entry.
type RecommendationCache struct {
	store Store
	sf    singleflight.Group
	log   *zap.Logger
}

func NewRecommendationCache(store Store, log *zap.Logger) *RecommendationCache {
	return &RecommendationCache{store: store, log: log}
}

// ComputeFunc produces a fresh RecommendationResult.
type ComputeFunc func(ctx context.Context) (domain.RecommendationResult, error)

// GetOrCompute returns the cached result for key when present, otherwise runs
// compute once (deduplicating concurrent callers) and stores the outcome with
// the given TTL. bypassRead skips the cache read but still writes the fresh
// result. Nothing is stored when the context is cancelled mid-computation.
func (c *RecommendationCache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, bypassRead bool, compute ComputeFunc) (domain.RecommendationResult, error) {
	if !bypassRead {
		if res, ok := c.lookup(ctx, key); ok {
			res.Cached = true
			return res, nil
		}
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		// Re-check under the flight lock: a peer may have filled the
		// entry while this caller was queued.
		if !bypassRead {
			if res, ok := c.lookup(ctx, key); ok {
				res.Cached = true
				return res, nil
			}
		}

		res, err := compute(ctx)
		if err != nil {
			return domain.RecommendationResult{}, err
		}
		res.Cached = false

		// All-or-nothing: never persist a result for a cancelled request.
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		c.persist(ctx, key, ttl, res)
		return res, nil
	})
	if err != nil {
		return domain.RecommendationResult{}, err
	}
	return v.(domain.RecommendationResult), nil
}

// Invalidate removes every cache entry belonging to userID, regardless of
// algorithm or parameters. Unlike the serving path, a store failure here is
// surfaced: the caller asked for the delete and must not believe it happened.
func (c *RecommendationCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.store.DeleteByPrefix(ctx, UserKeyPrefix(userID)); err != nil {
		c.log.Warn("cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("invalidate %s: %v: %w", userID, err, domain.ErrCacheUnavailable)
	}
	return nil
}

func (c *RecommendationCache) lookup(ctx context.Context, key string) (domain.RecommendationResult, bool) {
	b, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache read degraded, computing without cache",
			zap.String("key", key), zap.Error(err))
		return domain.RecommendationResult{}, false
	}
	if !found {
		return domain.RecommendationResult{}, false
	}
	var res domain.RecommendationResult
	if err := json.Unmarshal(b, &res); err != nil {
		c.log.Warn("cache entry corrupt, recomputing", zap.String("key", key), zap.Error(err))
		return domain.RecommendationResult{}, false
	}
	return res, true
}

func (c *RecommendationCache) persist(ctx context.Context, key string, ttl time.Duration, res domain.RecommendationResult) {
	b, err := json.Marshal(res)
	if err != nil {
		c.log.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, b, ttl); err != nil {
		c.log.Warn("cache write degraded", zap.String("key", key), zap.Error(err))
	}
}
