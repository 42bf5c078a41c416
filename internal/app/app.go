package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/fixture-insight/external/openai"
	"github.com/riskibarqy/fixture-insight/external/sportmonks"
	"github.com/riskibarqy/fixture-insight/internal/config"
	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	cacherepo "github.com/riskibarqy/fixture-insight/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fixture-insight/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-insight/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fixture-insight/internal/interfaces/httpapi"
	"github.com/riskibarqy/fixture-insight/internal/jobs"
	"github.com/riskibarqy/fixture-insight/internal/platform/cache"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
	"github.com/riskibarqy/fixture-insight/internal/platform/resilience"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const redisKeyPrefix = "fixture-insight:"

// App holds the wired services shared by the HTTP server and the CLI.
type App struct {
	Config      config.Config
	Logger      *logging.Logger
	Fixtures    *usecase.FixtureService
	Reconciler  *usecase.ReconcileService
	Synthesizer *usecase.SynthesizeService
	Analysis    *usecase.AnalysisService
	References  *usecase.ReferenceService

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	fixtureRepo, referenceRepo, err := a.openRepositories(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	store, err := a.openCacheStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	loader := cache.NewLoader(store, cfg.StatsCacheTTL, logger.Named("cache"))
	cachedReferences := cacherepo.NewReferenceRepository(referenceRepo, store, loader, logger)

	sportsClient := sportmonks.NewClient(sportmonks.ClientConfig{
		BaseURL:           cfg.SportMonksBaseURL,
		Token:             cfg.SportMonksToken,
		Timeout:           cfg.SportMonksTimeout,
		RequestsPerSecond: cfg.SportMonksRequestsPerSecond,
		Logger:            logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SportMonksCircuitEnabled,
			FailureThreshold: cfg.SportMonksCircuitFailureCount,
			OpenTimeout:      cfg.SportMonksCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SportMonksCircuitHalfOpenMaxReq,
		},
	})
	assistant := openai.NewClient(openai.ClientConfig{
		APIKey:              cfg.OpenAIAPIKey,
		AssistantID:         cfg.OpenAIAssistantID,
		BaseURL:             cfg.OpenAIBaseURL,
		Model:               cfg.OpenAIModel,
		MaxTokens:           cfg.OpenAIMaxTokens,
		Temperature:         cfg.OpenAITemperature,
		InstructionsTimeout: cfg.OpenAIInstructionsTimeout,
		StreamTimeout:       cfg.OpenAIStreamTimeout,
		Logger:              logger,
	})

	a.Fixtures = usecase.NewFixtureService(fixtureRepo)
	a.Reconciler = usecase.NewReconcileService(sportsClient, fixtureRepo, logger.Named("reconcile"), usecase.ReconcileConfig{
		Window:  cfg.ReconcileWindow,
		Workers: cfg.ReconcileWorkers,
	})
	a.Synthesizer = usecase.NewSynthesizeService(fixtureRepo, sportsClient, cachedReferences, loader, logger.Named("synthesize"))
	a.Analysis = usecase.NewAnalysisService(assistant, logger.Named("analysis"))
	a.References = usecase.NewReferenceService(sportsClient, cachedReferences, logger.Named("reference"), cfg.ReconcileWorkers)

	return a, nil
}

func (a *App) openRepositories(ctx context.Context) (fixture.Repository, reference.Repository, error) {
	if !a.Config.UsesPostgres() {
		a.Logger.Warn("DB_URL empty, using in-memory store")
		return memory.NewFixtureRepository(), memory.NewReferenceRepository(), nil
	}

	target := newPostgresTarget(a.Config.DBURL, a.Config.DBDisablePreparedBinary)
	db, err := target.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, db.Close)
	a.Logger.Info("postgres connected", "database", target.name)

	return postgres.NewFixtureRepository(db), postgres.NewReferenceRepository(db), nil
}

func (a *App) openCacheStore(ctx context.Context) (cache.Store, error) {
	if a.Config.RedisAddr == "" {
		return cache.NewMemoryStore(), nil
	}

	store := cache.NewRedisStore(cache.RedisConfig{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
		Prefix:   redisKeyPrefix,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("connect redis addr=%s: %w", a.Config.RedisAddr, err)
	}
	a.closers = append(a.closers, store.Close)
	a.Logger.Info("redis cache connected", "addr", a.Config.RedisAddr, "db", a.Config.RedisDB)
	return store, nil
}

// NewScheduler returns nil when scheduled reconciliation is disabled.
func (a *App) NewScheduler() (*jobs.Scheduler, error) {
	if !a.Config.ReconcileEnabled {
		a.Logger.Info("reconcile scheduler disabled", "reason", "RECONCILE_ENABLED=false")
		return nil, nil
	}
	return jobs.NewScheduler(a.Reconciler, a.Logger, jobs.SchedulerConfig{
		Schedule: a.Config.ReconcileSchedule,
		Timeout:  a.Config.ReconcileTimeout,
	})
}

func (a *App) NewHTTPServer() (*http.Server, error) {
	handler := httpapi.NewHandler(httpapi.HandlerDeps{
		Fixtures:    a.Fixtures,
		Reconciler:  a.Reconciler,
		Synthesizer: a.Synthesizer,
		Analysis:    a.Analysis,
		References:  a.References,
		Logger:      a.Logger,
	})
	router := httpapi.NewRouter(handler, a.Logger, httpapi.RouterConfig{
		CORSAllowedOrigins: a.Config.CORSAllowedOrigins,
		InternalJobToken:   a.Config.InternalJobToken,
	})

	server := &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           router,
		ReadTimeout:       a.Config.ReadTimeout,
		ReadHeaderTimeout: a.Config.ReadTimeout,
		WriteTimeout:      a.Config.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// Close releases the store and cache connections in reverse open order.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
