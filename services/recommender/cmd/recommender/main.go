package main

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/config"
	"github.com/example/movie-platform/internal/platform/db"
	"github.com/example/movie-platform/internal/platform/httpserver"
	"github.com/example/movie-platform/internal/platform/logging"
	"github.com/example/movie-platform/internal/platform/natsconn"
	"github.com/example/movie-platform/internal/platform/run"
	"github.com/example/movie-platform/services/recommender/internal/cache"
	"github.com/example/movie-platform/services/recommender/internal/catalog"
	recconfig "github.com/example/movie-platform/services/recommender/internal/config"
	"github.com/example/movie-platform/services/recommender/internal/engine"
	"github.com/example/movie-platform/services/recommender/internal/handlers"
	"github.com/example/movie-platform/services/recommender/internal/httpx"
	"github.com/example/movie-platform/services/recommender/internal/interactions"
	"github.com/example/movie-platform/services/recommender/internal/profile"
	"github.com/example/movie-platform/services/recommender/internal/scoring"
	"github.com/example/movie-platform/services/recommender/internal/tmdb"
	"github.com/example/movie-platform/services/recommender/internal/userstore"
	"github.com/example/movie-platform/services/recommender/internal/worker"
)

func main() {
	appCfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(appCfg.ServiceName, appCfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	svcCfg := recconfig.Load()

	users, inter, closePool := initStores(appCfg, log)
	if closePool != nil {
		defer closePool()
	}

	cat, refresher := initCatalog(appCfg, svcCfg, log)
	store := initCacheStore(appCfg, svcCfg, log)
	recCache := cache.NewRecommendationCache(store, log)

	agg := profile.NewAggregator(users, log)
	eng := engine.New(agg, cat, recCache, engine.Options{
		DefaultTTL:        svcCfg.DefaultTTL,
		TrendingTTL:       svcCfg.TrendingTTL,
		CandidatePoolSize: svcCfg.CandidatePoolSize,
	}, log)

	content := scoring.NewContentScorer(cat)
	collab := scoring.NewCollaborativeScorer(inter, svcCfg.Neighbors)
	latents := initLatentStore(inter, log)
	seq := scoring.NewSequentialScorer(content, svcCfg.HalfLifeDays)
	mf := scoring.NewMatrixFactorizationScorer(latents)
	ncf := scoring.NewNeuralCFScorer(latents)

	eng.Register(content)
	eng.Register(collab)
	eng.Register(seq)
	eng.Register(mf)
	eng.Register(ncf)
	eng.Register(scoring.NewEnsembleScorer([]scoring.Scorer{content, collab, seq, mf, ncf}, nil, log))
	eng.Register(scoring.NewHybridScorer(content, collab, svcCfg.MaxCollaborativeWeight, log))
	eng.Register(scoring.NewTrendingScorer())

	// NATS is optional in dev; without it we serve without analytics and
	// rely on TTL expiry instead of event-driven invalidation.
	var events *analytics.Publisher
	nc, err := natsconn.Connect(natsconn.Options{})
	if err != nil {
		if appCfg.IsProduction() {
			log.Error("nats connect", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("nats unavailable, analytics and invalidation disabled", zap.Error(err))
		events = analytics.New(nil, log)
	} else {
		js, jsErr := nc.JetStream()
		if jsErr != nil {
			log.Warn("jetstream unavailable", zap.Error(jsErr))
			events = analytics.New(nil, log)
		} else {
			events = analytics.New(js, log)
		}
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	verifier := auth.JWTVerifier{Secret: []byte(jwtSecret)}

	limiter := httpx.NewRateLimiter(svcCfg.HTTPRate, svcCfg.HTTPBurst)

	r := chi.NewRouter()
	httpserver.SetupRouter(r)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/v1/trending", handlers.GetTrending(eng, log))
		r.Get("/v1/movies/{movie_id}/similar", handlers.GetSimilarMovies(eng, log))
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Use(limiter.Middleware)
		r.Get("/v1/recommendations", handlers.GetRecommendations(eng, events, log))
		r.Delete("/v1/recommendations/cache", handlers.DeleteCache(eng, events))
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Use(auth.RequireAdmin)
		r.Delete("/v1/admin/recommendations/{user_id}/cache", handlers.AdminInvalidateCache(eng))
	})

	srv := httpserver.New(httpserver.Options{Addr: appCfg.HTTP.Addr, ServiceName: appCfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		if refresher != nil {
			go refresher.Run(ctx)
		}
		if nc != nil {
			defer nc.Close()
			if err := worker.StartInvalidationConsumer(ctx, nc, eng, log); err != nil {
				log.Warn("invalidation consumer", zap.Error(err))
			}
		}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores wires the user and interaction stores against Postgres when
// DATABASE_URL is set. In production a missing database is fatal; in dev
// we fall back to empty in-memory stores so the service still boots.
func initStores(appCfg config.AppConfig, log *zap.Logger) (userstore.UserStore, interactions.Store, func()) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		if appCfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory stores")
		return userstore.NewInMemoryUserStore(), interactions.NewInMemoryStore(), nil
	}

	pool, err := db.Open(context.Background(), dsn)
	if err != nil {
		if appCfg.IsProduction() {
			log.Error("db open", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("db unavailable, using in-memory stores", zap.Error(err))
		return userstore.NewInMemoryUserStore(), interactions.NewInMemoryStore(), nil
	}
	log.Info("connected to postgres")
	return userstore.NewPostgresUserStore(pool), interactions.NewPostgresStore(pool), pool.Close
}

// initCatalog prefers the live TMDb API behind a refreshed in-memory
// snapshot, then Postgres, then an empty in-memory catalog.
func initCatalog(appCfg config.AppConfig, svcCfg recconfig.Config, log *zap.Logger) (catalog.Catalog, *catalog.Refresher) {
	if svcCfg.TMDbAPIKey != "" {
		log.Info("using tmdb catalog", zap.String("base_url", svcCfg.TMDbBaseURL))
		client := tmdb.New(svcCfg.TMDbBaseURL, svcCfg.TMDbAPIKey)
		snapshot := catalog.NewInMemoryCatalog()
		refresher := catalog.NewRefresher(client, snapshot, svcCfg.RefreshInterval, svcCfg.RefreshPages, log)
		return catalog.NewLayeredCatalog(snapshot, catalog.NewTMDbCatalog(client)), refresher
	}
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		pool, err := db.Open(context.Background(), dsn)
		if err == nil {
			log.Info("using postgres catalog")
			return catalog.NewPostgresCatalog(pool), nil
		}
		log.Warn("catalog db unavailable", zap.Error(err))
	}
	if appCfg.IsProduction() {
		log.Error("no movie catalog configured, set TMDB_API_KEY or DATABASE_URL")
		run.Exit(1)
	}
	log.Warn("using empty in-memory catalog")
	return catalog.NewInMemoryCatalog(), nil
}

func initCacheStore(appCfg config.AppConfig, svcCfg recconfig.Config, log *zap.Logger) cache.Store {
	if svcCfg.RedisURL == "" {
		if appCfg.IsProduction() {
			log.Error("REDIS_URL is required in production")
			run.Exit(1)
		}
		log.Warn("REDIS_URL not set, using in-memory cache")
		return cache.NewTTLStore()
	}
	store, err := cache.NewRedisStore(svcCfg.RedisURL)
	if err != nil {
		if appCfg.IsProduction() {
			log.Error("redis connect", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		return cache.NewTTLStore()
	}
	log.Info("connected to redis")
	return store
}

// initLatentStore snapshots the interaction matrix once at startup to seed
// the latent factor models. An empty snapshot yields a store with no user
// vectors, which the latent scorers report as insufficient data.
func initLatentStore(inter interactions.Store, log *zap.Logger) *scoring.SeededLatentStore {
	matrix, err := inter.GetAllUserInteractions(context.Background())
	if err != nil {
		log.Warn("interaction snapshot failed, latent models start cold", zap.Error(err))
		matrix = interactions.Matrix{}
	}
	store := scoring.BuildLatentStore(matrix, scoring.LatentDim)
	log.Info("latent store built", zap.Int("users", len(matrix)))
	return store
}
