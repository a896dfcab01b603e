package di

import (
	"fmt"

	"dashworker/application/queries"
	"dashworker/infrastructure/config"
	"dashworker/infrastructure/refresh"
	"dashworker/infrastructure/store"
	"dashworker/interfaces/http/rest"
	"dashworker/interfaces/http/rest/handlers"
	"dashworker/pkg/auth"
	"dashworker/pkg/cache"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Container wires the worker's long-lived dependencies. The dependency
// graph is flat enough to construct by hand, leaves first.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Cache     *cache.Cache
	Store     *store.Client
	Queries   *queries.Service
	Refresher *refresh.Refresher
	Router    *rest.Router
}

// InitializeContainer builds the full dependency graph from configuration.
func InitializeContainer(cfg *config.Config) (*Container, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	// Base client for caller-scoped queries; requests re-scope it with the
	// caller's bearer token.
	baseStore := store.NewClient(cfg.SupabaseURL, cfg.StoreAPIKey(), cfg.RequestTimeout, logger)

	// The privileged client is built lazily inside the refresher, on first
	// refresh.
	refresher := refresh.New(func() *store.Client {
		return store.NewClient(cfg.SupabaseURL, cfg.ServiceRoleKey, cfg.RequestTimeout, logger)
	}, cfg.RefreshSchedule, cfg.RequestTimeout, logger)

	resolver := queries.NewPatchResolver(refresher, logger)
	queryService := queries.NewService(baseStore, resolver, logger)
	responseCache := cache.New(cfg.CacheMaxEntries, nil)
	validator := auth.NewValidator(cfg.JWTSecret)
	limiter := auth.NewRateLimiter(cfg.RateLimitPerMinute)

	router := rest.NewRouter(
		handlers.NewProjectsHandler(queryService, responseCache, cfg.CacheTTL, logger),
		handlers.NewDashboardHandler(queryService, responseCache, cfg.CacheTTL, logger),
		handlers.NewHealthHandler(baseStore, logger),
		validator,
		limiter,
		cfg.CORSOrigin,
		logger,
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Cache:     responseCache,
		Store:     baseStore,
		Queries:   queryService,
		Refresher: refresher,
		Router:    router,
	}, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
