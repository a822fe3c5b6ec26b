package scoring

import (
	"context"
	"testing"

	"github.com/example/movie-platform/services/recommender/internal/catalog"
	"github.com/example/movie-platform/services/recommender/internal/domain"
)

const (
	genreAction = int64(28)
	genreDrama  = int64(18)
	genreHorror = int64(27)
)

func newProfile(userID string) domain.UserProfile {
	return domain.UserProfile{
		UserID:             userID,
		Favorites:          make(map[int64]struct{}),
		PreferredGenres:    make(map[int64]struct{}),
		AvoidedGenres:      make(map[int64]struct{}),
		PreferredLanguages: make(map[string]struct{}),
	}
}

func seededCatalog(movies ...domain.CandidateMovie) *catalog.InMemoryCatalog {
	c := catalog.NewInMemoryCatalog()
	for _, m := range movies {
		c.Put(m)
	}
	return c
}

func TestContentScorer_GenreAffinityRanksOverlapFirst(t *testing.T) {
	m1 := domain.CandidateMovie{ID: 1, Title: "Favored", GenreIDs: []int64{genreAction}, VoteAverage: 8, VoteCount: 1000}
	m2 := domain.CandidateMovie{ID: 2, Title: "Same Genre", GenreIDs: []int64{genreAction}, VoteAverage: 7, VoteCount: 500}
	m3 := domain.CandidateMovie{ID: 3, Title: "Other Genre", GenreIDs: []int64{genreDrama}, VoteAverage: 7, VoteCount: 500}

	s := NewContentScorer(seededCatalog(m1, m2, m3))

	p := newProfile("user-1")
	p.Favorites[m1.ID] = struct{}{}

	recs, err := s.Score(context.Background(), p, []domain.CandidateMovie{m2, m3}, domain.Params{})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}

	byID := make(map[int64]float64, len(recs))
	for _, r := range recs {
		byID[r.MovieID] = r.Score
	}
	if byID[m2.ID] <= byID[m3.ID] {
		t.Fatalf("expected genre overlap to outrank: m2=%.4f m3=%.4f", byID[m2.ID], byID[m3.ID])
	}
}

func TestContentScorer_NegativeRatingWeakensAffinity(t *testing.T) {
	hated := domain.CandidateMovie{ID: 10, GenreIDs: []int64{genreHorror}}
	loved := domain.CandidateMovie{ID: 11, GenreIDs: []int64{genreAction}}
	candHorror := domain.CandidateMovie{ID: 12, GenreIDs: []int64{genreHorror}}
	candAction := domain.CandidateMovie{ID: 13, GenreIDs: []int64{genreAction}}

	s := NewContentScorer(seededCatalog(hated, loved, candHorror, candAction))

	p := newProfile("user-1")
	p.History = []domain.HistoryEntry{
		{MovieID: hated.ID, Rating: 2},
		{MovieID: loved.ID, Rating: 9},
	}

	recs, err := s.Score(context.Background(), p, []domain.CandidateMovie{candHorror, candAction}, domain.Params{})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	byID := make(map[int64]float64, len(recs))
	for _, r := range recs {
		byID[r.MovieID] = r.Score
	}
	if byID[candAction.ID] <= byID[candHorror.ID] {
		t.Fatalf("expected liked genre above disliked: action=%.4f horror=%.4f",
			byID[candAction.ID], byID[candHorror.ID])
	}
	if byID[candHorror.ID] >= 0 && byID[candHorror.ID] > byID[candAction.ID] {
		t.Fatalf("disliked genre should not dominate")
	}
}

func TestContentScorer_AvoidedGenreIsDropped(t *testing.T) {
	cand := domain.CandidateMovie{ID: 20, GenreIDs: []int64{genreHorror}, VoteAverage: 9, VoteCount: 5000}

	s := NewContentScorer(seededCatalog(cand))

	p := newProfile("user-1")
	p.AvoidedGenres[genreHorror] = struct{}{}

	recs, err := s.Score(context.Background(), p, []domain.CandidateMovie{cand}, domain.Params{})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected avoided-genre candidate dropped, got %d recs", len(recs))
	}
}

func TestContentScorer_MinVoteAverageIsHardFilter(t *testing.T) {
	low := domain.CandidateMovie{ID: 30, GenreIDs: []int64{genreAction}, VoteAverage: 5.5, VoteCount: 100}
	high := domain.CandidateMovie{ID: 31, GenreIDs: []int64{genreAction}, VoteAverage: 8.1, VoteCount: 100}

	s := NewContentScorer(seededCatalog(low, high))

	p := newProfile("user-1")
	p.MinVoteAverage = 7.0

	recs, err := s.Score(context.Background(), p, []domain.CandidateMovie{low, high}, domain.Params{})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(recs) != 1 || recs[0].MovieID != high.ID {
		t.Fatalf("expected only the high-rated candidate, got %+v", recs)
	}
}

func TestContentScorer_PreferredGenreBoostIsCapped(t *testing.T) {
	s := NewContentScorer(seededCatalog())

	p := newProfile("user-1")
	p.PreferredGenres[genreAction] = struct{}{}
	p.PreferredGenres[genreDrama] = struct{}{}
	p.PreferredGenres[genreHorror] = struct{}{}

	// Three preferred genres would be 0.45 uncapped; the cap holds it at 0.30.
	cand := domain.CandidateMovie{ID: 40, GenreIDs: []int64{genreAction, genreDrama, genreHorror}}
	recs, err := s.Score(context.Background(), p, []domain.CandidateMovie{cand}, domain.Params{})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 rec, got %d", len(recs))
	}
	if recs[0].Score != preferredGenreBoostCap {
		t.Fatalf("expected capped boost %.2f, got %.4f", preferredGenreBoostCap, recs[0].Score)
	}
}

func TestContentScorer_PreferredLanguageBoost(t *testing.T) {
	s := NewContentScorer(seededCatalog())

	p := newProfile("user-1")
	p.PreferredLanguages["ja"] = struct{}{}

	ja := domain.CandidateMovie{ID: 50, OriginalLanguage: "ja"}
	en := domain.CandidateMovie{ID: 51, OriginalLanguage: "en"}

	recs, err := s.Score(context.Background(), p, []domain.CandidateMovie{ja, en}, domain.Params{})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	byID := make(map[int64]float64, len(recs))
	for _, r := range recs {
		byID[r.MovieID] = r.Score
	}
	if diff := byID[ja.ID] - byID[en.ID]; diff != preferredLanguageBoost {
		t.Fatalf("expected language boost %.2f, got %.4f", preferredLanguageBoost, diff)
	}
}

func TestHistoryWeight(t *testing.T) {
	tests := []struct {
		rating int
		want   float64
	}{
		{10, 1.0},
		{9, 0.9},
		{7, 0.7},
		{6, 0},
		{5, 0},
		{4, -0.1},
		{1, -0.4},
		{0, 0}, // unrated
	}
	for _, tt := range tests {
		if got := historyWeight(tt.rating); got != tt.want {
			t.Errorf("historyWeight(%d) = %v, want %v", tt.rating, got, tt.want)
		}
	}
}

func TestNormalizeScores_SingleValueMapsToOne(t *testing.T) {
	recs := []domain.ScoredRecommendation{
		{MovieID: 1, Score: 0.42},
		{MovieID: 2, Score: 0.42},
	}
	normalizeScores(recs)
	for _, r := range recs {
		if r.Score != 1.0 {
			t.Fatalf("expected 1.0 for uniform set, got %v", r.Score)
		}
	}
}

func TestNormalizeScores_MinMax(t *testing.T) {
	recs := []domain.ScoredRecommendation{
		{MovieID: 1, Score: 2},
		{MovieID: 2, Score: 4},
		{MovieID: 3, Score: 6},
	}
	normalizeScores(recs)
	if recs[0].Score != 0 || recs[1].Score != 0.5 || recs[2].Score != 1 {
		t.Fatalf("unexpected normalization: %+v", recs)
	}
}

func TestCosineShared(t *testing.T) {
	a := map[int64]float64{1: 1, 2: 1}
	b := map[int64]float64{1: 1, 2: 1, 3: 1}
	if sim := cosineShared(a, b); sim != 1.0 {
		t.Fatalf("identical over shared keys should be 1, got %v", sim)
	}
	if sim := cosineShared(a, map[int64]float64{9: 1}); sim != 0 {
		t.Fatalf("no overlap should be 0, got %v", sim)
	}
	if sim := cosineShared(nil, nil); sim != 0 {
		t.Fatalf("empty vectors should be 0, got %v", sim)
	}
}
