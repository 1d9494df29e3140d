package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"aper/internal/domain/audit"
	"aper/internal/domain/auth"
	"aper/internal/domain/drafts"
	"aper/internal/domain/evaluation"
	"aper/internal/platform/config"
	"aper/internal/platform/db"
	"aper/internal/platform/export"
	"aper/internal/platform/jobs"
	"aper/internal/platform/logging"
	"aper/internal/platform/metrics"
	"aper/internal/platform/objectstore"
	"aper/internal/transport/http/api"
	authhandler "aper/internal/transport/http/handlers/auth"
	evaluationhandler "aper/internal/transport/http/handlers/evaluation"
	"aper/internal/transport/http/middleware"
)

type App struct {
	Config      config.Config
	Logger      *zap.Logger
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Jobs        *jobs.Service
	Metrics     *metrics.Collector
	Audit       *audit.Service
	Evaluations *evaluation.Service
	Router      http.Handler

	cancel context.CancelFunc
}

// New wires the application. Background work runs until Close.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.NewString()
		logger.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}

	app := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}
	bgCtx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel

	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.DB = pool
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				app.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
	} else {
		logger.Warn("DATABASE_URL not set, evaluations are kept in memory")
	}

	var store evaluation.StoreAPI = evaluation.NewMemoryStore()
	if app.DB != nil {
		store = evaluation.NewStore(app.DB)
	}

	cache, err := app.draftCache(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	rules, err := loadRules(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	gate := evaluation.NewGate(rules)

	app.Jobs = jobs.New(app.DB, logger)
	app.Jobs.Start(bgCtx)
	app.Audit = audit.New(app.DB)

	hooks := []evaluation.Hook{app.Audit.Hook(), app.Metrics.Hook()}
	if exporter := app.exportSink(ctx); exporter != nil {
		hooks = append(hooks, export.Hook(gate, exporter, logger))
	}

	app.Evaluations = evaluation.NewService(store, cache, gate,
		evaluation.WithHooks(hooks...),
		evaluation.WithQueue(app.Jobs),
		evaluation.WithLogger(logger),
		evaluation.WithDueWindow(cfg.DefaultDueWindow),
	)
	app.Jobs.Schedule(bgCtx, cfg.DraftSweepInterval, jobs.JobDraftSweep, func(ctx context.Context) (any, error) {
		removed, err := app.Evaluations.SweepDrafts(ctx)
		return map[string]any{"removed": removed}, err
	})

	authz, err := auth.NewAuthorizer()
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("authorizer: %w", err)
	}
	app.Router = app.routes(authz)
	return app, nil
}

func (a *App) draftCache(ctx context.Context) (drafts.Cache, error) {
	switch a.Config.DraftBackend {
	case config.DraftBackendPostgres:
		if a.DB == nil {
			return nil, errors.New("postgres draft backend requires a database")
		}
		return drafts.NewPGCache(a.DB), nil
	case config.DraftBackendRedis:
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     a.Config.RedisAddr,
			Password: a.Config.RedisPassword,
			DB:       a.Config.RedisDB,
			PoolSize: 10,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := a.Redis.Ping(pingCtx).Err(); err != nil {
			a.Logger.Warn("redis ping failed, drafts unavailable until it recovers", zap.String("addr", a.Config.RedisAddr), zap.Error(err))
		}
		return drafts.NewRedisCache(a.Redis, a.Config.DraftTTL), nil
	default:
		return drafts.NewMemoryCache(), nil
	}
}

func (a *App) exportSink(ctx context.Context) export.Uploader {
	store, err := objectstore.New(a.Config)
	if errors.Is(err, objectstore.ErrNotConfigured) {
		return nil
	}
	if err != nil {
		a.Logger.Warn("export sink disabled", zap.Error(err))
		return nil
	}
	if err := store.EnsureBucket(ctx); err != nil {
		a.Logger.Warn("export bucket check failed", zap.String("bucket", store.Bucket()), zap.Error(err))
	}
	return store
}

func loadRules(cfg config.Config) (*evaluation.Rules, error) {
	if cfg.RulesPath == "" {
		return evaluation.DefaultRules()
	}
	rules, err := evaluation.LoadRulesFile(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", cfg.RulesPath, err)
	}
	return rules, nil
}

func (a *App) routes(authz *auth.Authorizer) http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Logger, a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	tokens := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	router.Use(middleware.Auth(tokens))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if a.DB != nil {
			if err := a.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if a.Redis != nil {
			if err := a.Redis.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(tokens).RegisterRoutes(r)
		evaluationhandler.NewHandler(
			a.Evaluations,
			authz,
			a.Audit,
			middleware.NewIdempotencyStore(a.DB),
			a.Metrics,
			a.Logger,
		).RegisterRoutes(r)
	})

	return router
}

// Close stops background work and releases connections.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func Run() {
	cfg := config.Load()
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("APER server listening", zap.String("addr", cfg.Addr), zap.String("draftBackend", cfg.DraftBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
