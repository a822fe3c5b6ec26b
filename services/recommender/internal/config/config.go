package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries the recommender-specific knobs. All fields have working
// defaults so the service starts with an empty environment.
type Config struct {
	// Cache TTLs per algorithm class. Trending is catalog-driven and
	// refreshes faster, hence the shorter TTL.
	DefaultTTL  time.Duration
	TrendingTTL time.Duration

	Neighbors              int     // collaborative KNN neighborhood size
	HalfLifeDays           float64 // sequential decay half-life
	MaxCollaborativeWeight float64 // hybrid blend cap
	CandidatePoolSize      int     // catalog snapshot size per computation

	TMDbBaseURL     string
	TMDbAPIKey      string
	RedisURL        string
	RefreshInterval time.Duration // catalog snapshot refresh cadence
	RefreshPages    int           // popular-list pages per refresh

	HTTPRate  float64 // requests per second per caller
	HTTPBurst int
}

func Load() Config {
	return Config{
		DefaultTTL:             envDuration("RECS_CACHE_TTL", 2*time.Hour),
		TrendingTTL:            envDuration("RECS_TRENDING_CACHE_TTL", 30*time.Minute),
		Neighbors:              envInt("RECS_KNN_NEIGHBORS", 20),
		HalfLifeDays:           envFloat("RECS_DECAY_HALF_LIFE_DAYS", 30),
		MaxCollaborativeWeight: envFloat("RECS_MAX_COLLAB_WEIGHT", 0.7),
		CandidatePoolSize:      envInt("RECS_CANDIDATE_POOL", 500),
		TMDbBaseURL:            strings.TrimSpace(os.Getenv("TMDB_BASE_URL")),
		TMDbAPIKey:             strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		RedisURL:               strings.TrimSpace(os.Getenv("REDIS_URL")),
		RefreshInterval:        envDuration("RECS_REFRESH_INTERVAL", 30*time.Minute),
		RefreshPages:           envInt("RECS_REFRESH_PAGES", 5),
		HTTPRate:               envFloat("RECS_HTTP_RATE", 10),
		HTTPBurst:              envInt("RECS_HTTP_BURST", 30),
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
