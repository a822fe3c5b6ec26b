package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/api"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/httpserver"
	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// Engine is the recommendation surface the HTTP layer consumes.
type Engine interface {
	Recommend(ctx context.Context, userID, algorithm string, limit int, extra map[string]any) (domain.RecommendationResult, error)
	SimilarMovies(ctx context.Context, movieID int64, limit int) (domain.RecommendationResult, error)
	InvalidateUserCache(ctx context.Context, userID string) error
}

// GetRecommendations serves personalized recommendations for the
// authenticated user.
func GetRecommendations(eng Engine, events *analytics.Publisher, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "AUTH_MISSING", "authentication required", rid)
			return
		}

		algo := strings.TrimSpace(r.URL.Query().Get("algorithm"))
		limit := queryInt(r, "limit", 20)
		extra := map[string]any{}
		if queryBool(r, "include_favorites") {
			extra["include_favorites"] = true
		}
		if queryBool(r, "refresh") {
			extra["refresh"] = true
		}

		result, err := eng.Recommend(r.Context(), userID, algo, limit, extra)
		if err != nil {
			writeEngineError(w, rid, err, log)
			return
		}

		events.Publish(analytics.SubjectRecommendationsServed, "recommendations_served", userID, map[string]any{
			"algorithm": string(result.Algorithm),
			"requested": string(result.Requested),
			"cached":    result.Cached,
			"count":     len(result.Recommendations),
		})
		if result.Algorithm != result.Requested {
			events.Publish(analytics.SubjectRecommendationsFallback, "recommendations_fallback", userID, map[string]any{
				"requested": string(result.Requested),
				"executed":  string(result.Algorithm),
			})
		}

		api.WriteJSON(w, http.StatusOK, result)
	}
}

// GetTrending serves the anonymous trending fallback. No auth required.
func GetTrending(eng Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		limit := queryInt(r, "limit", 20)
		result, err := eng.Recommend(r.Context(), "", string(domain.AlgorithmTrending), limit, nil)
		if err != nil {
			writeEngineError(w, rid, err, log)
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}

// GetSimilarMovies serves movies similar to one catalog movie. No auth
// required; the lookup uses no user signals.
func GetSimilarMovies(eng Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		movieID, err := strconv.ParseInt(chi.URLParam(r, "movie_id"), 10, 64)
		if err != nil || movieID <= 0 {
			api.BadRequest(w, "INVALID_MOVIE_ID", "movie_id must be a positive integer", rid, nil)
			return
		}
		limit := queryInt(r, "limit", 20)

		result, err := eng.SimilarMovies(r.Context(), movieID, limit)
		if err != nil {
			writeEngineError(w, rid, err, log)
			return
		}
		api.WriteJSON(w, http.StatusOK, result)
	}
}

// DeleteCache invalidates every cached recommendation of the authenticated
// user.
func DeleteCache(eng Engine, events *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == "" {
			api.Unauthorized(w, "AUTH_MISSING", "authentication required", rid)
			return
		}

		if err := eng.InvalidateUserCache(r.Context(), userID); err != nil {
			api.ServiceUnavailable(w, "CACHE_UNAVAILABLE", "cache invalidation failed, entries may still be served", rid)
			return
		}
		events.Publish(analytics.SubjectCacheInvalidated, "cache_invalidated", userID, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}

// AdminInvalidateCache lets operators drop any user's cached entries, for
// incident cleanup. Requires the admin role.
func AdminInvalidateCache(eng Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		userID := chi.URLParam(r, "user_id")
		if userID == "" {
			api.BadRequest(w, "MISSING_ID", "user_id is required", rid, nil)
			return
		}
		if err := eng.InvalidateUserCache(r.Context(), userID); err != nil {
			api.ServiceUnavailable(w, "CACHE_UNAVAILABLE", "cache invalidation failed, entries may still be served", rid)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeEngineError(w http.ResponseWriter, rid string, err error, log *zap.Logger) {
	switch {
	case errors.Is(err, domain.ErrUnknownAlgorithm):
		api.BadRequest(w, "UNKNOWN_ALGORITHM", "unknown recommendation algorithm", rid, nil)
	case errors.Is(err, domain.ErrMovieNotFound):
		api.NotFound(w, "MOVIE_NOT_FOUND", "movie is not in the catalog", rid)
	case errors.Is(err, domain.ErrProfileUnavailable):
		api.ServiceUnavailable(w, "PROFILE_UNAVAILABLE", "user signals are temporarily unavailable", rid)
	case errors.Is(err, domain.ErrCatalogUnavailable):
		api.ServiceUnavailable(w, "CATALOG_UNAVAILABLE", "movie catalog is temporarily unavailable", rid)
	case errors.Is(err, domain.ErrInteractionStoreUnavailable):
		api.ServiceUnavailable(w, "INTERACTIONS_UNAVAILABLE", "interaction data is temporarily unavailable", rid)
	default:
		log.Error("recommend failed", zap.String("request_id", rid), zap.Error(err))
		api.Internal(w, rid)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func queryBool(r *http.Request, name string) bool {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	return strings.EqualFold(v, "true") || v == "1"
}
