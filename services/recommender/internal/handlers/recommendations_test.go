package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// stubEngine records the last call and returns a canned result.
type stubEngine struct {
	result        domain.RecommendationResult
	err           error
	invalidateErr error

	gotUserID    string
	gotAlgorithm string
	gotLimit     int
	gotExtra     map[string]any
	gotMovieID   int64
	invalidated  []string
}

func (s *stubEngine) Recommend(_ context.Context, userID, algorithm string, limit int, extra map[string]any) (domain.RecommendationResult, error) {
	s.gotUserID = userID
	s.gotAlgorithm = algorithm
	s.gotLimit = limit
	s.gotExtra = extra
	return s.result, s.err
}

func (s *stubEngine) SimilarMovies(_ context.Context, movieID int64, limit int) (domain.RecommendationResult, error) {
	s.gotMovieID = movieID
	s.gotLimit = limit
	return s.result, s.err
}

func (s *stubEngine) InvalidateUserCache(_ context.Context, userID string) error {
	s.invalidated = append(s.invalidated, userID)
	return s.invalidateErr
}

func noopEvents() *analytics.Publisher {
	return analytics.New(nil, zap.NewNop())
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func TestGetRecommendations_OK(t *testing.T) {
	eng := &stubEngine{result: domain.RecommendationResult{
		Recommendations: []domain.ScoredRecommendation{{MovieID: 603, Score: 0.91, Algorithm: domain.AlgorithmHybrid}},
		Algorithm:       domain.AlgorithmHybrid,
		Requested:       domain.AlgorithmHybrid,
	}}

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/recommendations?algorithm=hybrid&limit=5&include_favorites=true&refresh=1", nil), "user-1")
	rr := httptest.NewRecorder()
	GetRecommendations(eng, noopEvents(), zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if eng.gotUserID != "user-1" || eng.gotAlgorithm != "hybrid" || eng.gotLimit != 5 {
		t.Fatalf("engine called with %q %q %d", eng.gotUserID, eng.gotAlgorithm, eng.gotLimit)
	}
	if v, _ := eng.gotExtra["include_favorites"].(bool); !v {
		t.Fatal("include_favorites not forwarded")
	}
	if v, _ := eng.gotExtra["refresh"].(bool); !v {
		t.Fatal("refresh not forwarded")
	}

	var res domain.RecommendationResult
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0].MovieID != 603 {
		t.Fatalf("unexpected payload: %+v", res)
	}
}

func TestGetRecommendations_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil)
	rr := httptest.NewRecorder()
	GetRecommendations(&stubEngine{}, noopEvents(), zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestGetRecommendations_UnknownAlgorithm(t *testing.T) {
	eng := &stubEngine{err: domain.ErrUnknownAlgorithm}

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/recommendations?algorithm=tarot", nil), "user-1")
	rr := httptest.NewRecorder()
	GetRecommendations(eng, noopEvents(), zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetRecommendations_CatalogDown(t *testing.T) {
	eng := &stubEngine{err: domain.ErrCatalogUnavailable}

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil), "user-1")
	rr := httptest.NewRecorder()
	GetRecommendations(eng, noopEvents(), zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestGetRecommendations_BadLimitFallsBackToDefault(t *testing.T) {
	eng := &stubEngine{}

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/recommendations?limit=banana", nil), "user-1")
	rr := httptest.NewRecorder()
	GetRecommendations(eng, noopEvents(), zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if eng.gotLimit != 20 {
		t.Fatalf("expected default limit 20, got %d", eng.gotLimit)
	}
}

func TestGetTrending_AnonymousOK(t *testing.T) {
	eng := &stubEngine{result: domain.RecommendationResult{Algorithm: domain.AlgorithmTrending, Requested: domain.AlgorithmTrending}}

	req := httptest.NewRequest(http.MethodGet, "/v1/trending?limit=10", nil)
	rr := httptest.NewRecorder()
	GetTrending(eng, zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if eng.gotUserID != "" {
		t.Fatalf("trending must not carry a user, got %q", eng.gotUserID)
	}
	if eng.gotAlgorithm != string(domain.AlgorithmTrending) {
		t.Fatalf("expected trending algorithm, got %q", eng.gotAlgorithm)
	}
}

func TestGetSimilarMovies_OK(t *testing.T) {
	eng := &stubEngine{result: domain.RecommendationResult{
		Recommendations: []domain.ScoredRecommendation{{MovieID: 604, Score: 0.8, Algorithm: domain.AlgorithmSimilar}},
		Algorithm:       domain.AlgorithmSimilar,
		Requested:       domain.AlgorithmSimilar,
	}}

	req := httptest.NewRequest(http.MethodGet, "/v1/movies/603/similar?limit=5", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("movie_id", "603")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	GetSimilarMovies(eng, zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if eng.gotMovieID != 603 || eng.gotLimit != 5 {
		t.Fatalf("engine called with movie %d limit %d", eng.gotMovieID, eng.gotLimit)
	}
}

func TestGetSimilarMovies_BadID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/movies/matrix/similar", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("movie_id", "matrix")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	GetSimilarMovies(&stubEngine{}, zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetSimilarMovies_NotFound(t *testing.T) {
	eng := &stubEngine{err: domain.ErrMovieNotFound}

	req := httptest.NewRequest(http.MethodGet, "/v1/movies/999/similar", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("movie_id", "999")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	GetSimilarMovies(eng, zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGetRecommendations_ProfileStoreDown(t *testing.T) {
	eng := &stubEngine{err: domain.ErrProfileUnavailable}

	req := asUser(httptest.NewRequest(http.MethodGet, "/v1/recommendations", nil), "user-1")
	rr := httptest.NewRecorder()
	GetRecommendations(eng, noopEvents(), zap.NewNop()).ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestDeleteCache_OK(t *testing.T) {
	eng := &stubEngine{}

	req := asUser(httptest.NewRequest(http.MethodDelete, "/v1/recommendations/cache", nil), "user-1")
	rr := httptest.NewRecorder()
	DeleteCache(eng, noopEvents()).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if len(eng.invalidated) != 1 || eng.invalidated[0] != "user-1" {
		t.Fatalf("expected user-1 invalidated, got %v", eng.invalidated)
	}
}

func TestDeleteCache_StoreDown(t *testing.T) {
	eng := &stubEngine{invalidateErr: domain.ErrCacheUnavailable}

	req := asUser(httptest.NewRequest(http.MethodDelete, "/v1/recommendations/cache", nil), "user-1")
	rr := httptest.NewRecorder()
	DeleteCache(eng, noopEvents()).ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestDeleteCache_NoAuth(t *testing.T) {
	eng := &stubEngine{}

	req := httptest.NewRequest(http.MethodDelete, "/v1/recommendations/cache", nil)
	rr := httptest.NewRecorder()
	DeleteCache(eng, noopEvents()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if len(eng.invalidated) != 0 {
		t.Fatal("nothing should be invalidated without auth")
	}
}

func TestAdminInvalidateCache(t *testing.T) {
	eng := &stubEngine{}

	req := httptest.NewRequest(http.MethodDelete, "/v1/admin/recommendations/user-9/cache", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("user_id", "user-9")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	AdminInvalidateCache(eng).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if len(eng.invalidated) != 1 || eng.invalidated[0] != "user-9" {
		t.Fatalf("expected user-9 invalidated, got %v", eng.invalidated)
	}
}
