// Package scoring implements the interchangeable recommendation scorers.
package scoring

import (
	"context"
	"math"
	"strings"

	"github.com/example/movie-platform/services/recommender/internal/domain"
)

// Scorer is the common capability every algorithm implements. Scorers are
// stateless between calls and safe for concurrent use.
type Scorer interface {
	Name() domain.Algorithm
	Score(ctx context.Context, profile domain.UserProfile, candidates []domain.CandidateMovie, params domain.Params) ([]domain.ScoredRecommendation, error)
}

// History-signal thresholds: ratings at or above Positive strengthen an
// affinity, at or below Negative weaken it, anything between is neutral.
const (
	positiveRatingThreshold = 7
	negativeRatingThreshold = 4
)

// historyWeight maps a rating to an affinity contribution in [-0.4, 1.0].
func historyWeight(rating int) float64 {
	switch {
	case rating >= positiveRatingThreshold:
		return float64(rating) / 10.0
	case rating >= 1 && rating <= negativeRatingThreshold:
		return (float64(rating) - 5.0) / 10.0
	default:
		return 0
	}
}

// qualityScore is the vote-count-damped rating in [0, 1]:
// average*count/(count+100), scaled from the 0-10 rating range.
func qualityScore(m domain.CandidateMovie) float64 {
	if m.VoteCount <= 0 {
		return 0
	}
	return (m.VoteAverage * float64(m.VoteCount)) / (float64(m.VoteCount) + 100.0) / 10.0
}

// normalizeScores rescales scores in place to [0, 1] via min-max over the
// result set. A set with a single unique value maps to 1.0.
func normalizeScores(recs []domain.ScoredRecommendation) {
	if len(recs) == 0 {
		return
	}
	lo, hi := recs[0].Score, recs[0].Score
	for _, r := range recs[1:] {
		if r.Score < lo {
			lo = r.Score
		}
		if r.Score > hi {
			hi = r.Score
		}
	}
	if hi == lo {
		for i := range recs {
			recs[i].Score = 1.0
		}
		return
	}
	span := hi - lo
	for i := range recs {
		recs[i].Score = (recs[i].Score - lo) / span
	}
}

// cosineShared computes cosine similarity between two interaction vectors
// over their shared keys only. No overlap yields 0, never NaN.
func cosineShared(a, b map[int64]float64) float64 {
	var dot, na, nb float64
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			continue
		}
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "he": {}, "her": {}, "his": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "their": {},
	"this": {}, "to": {}, "when": {}, "who": {}, "will": {}, "with": {},
}

// tokenize lowercases an overview and splits it into stopword-filtered terms.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}
