package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/bookreview/pkg/database"
	"github.com/utafrali/bookreview/pkg/health"
	pkgkafka "github.com/utafrali/bookreview/pkg/kafka"
	"github.com/utafrali/bookreview/pkg/tracing"
	"github.com/utafrali/bookreview/services/review/internal/bookclient"
	"github.com/utafrali/bookreview/services/review/internal/config"
	"github.com/utafrali/bookreview/services/review/internal/event"
	handler "github.com/utafrali/bookreview/services/review/internal/handler/http"
	"github.com/utafrali/bookreview/services/review/internal/repository"
	"github.com/utafrali/bookreview/services/review/internal/repository/memory"
	"github.com/utafrali/bookreview/services/review/internal/repository/postgres"
	"github.com/utafrali/bookreview/services/review/internal/service"
	"github.com/utafrali/bookreview/services/review/migrations"
)

// App wires together all dependencies and runs the review service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	publisher      pkgkafka.Publisher
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp initializes every dependency selected by cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    "review",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		publisher:      pkgkafka.NopPublisher{},
		tracerShutdown: tracerShutdown,
	}
	healthHandler := health.NewHandler()

	// Release anything already opened if a later step fails.
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	repo, err := a.initStorage(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	var books bookclient.Checker = bookclient.NewHTTPClient(bookclient.HTTPConfig{
		BaseURL: cfg.BookServiceURL,
		Timeout: cfg.BookServiceTimeout,
		Mode:    bookclient.LookupMode(cfg.BookLookupMode),
	})
	logger.Info("book service client initialized",
		slog.String("url", cfg.BookServiceURL),
		slog.Duration("timeout", cfg.BookServiceTimeout),
		slog.String("lookup_mode", cfg.BookLookupMode),
	)

	var cache *bookclient.CachedChecker
	if cfg.BookCacheEnabled {
		redisCfg := cfg.Redis()
		a.redis, err = database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		healthHandler.Register("redis", database.RedisPingCheck(a.redis))
		cache = bookclient.NewCachedChecker(books, a.redis, cfg.BookCacheTTL, logger)
		books = cache
		logger.Info("book existence cache enabled",
			slog.String("addr", redisCfg.Addr()),
			slog.Duration("ttl", cfg.BookCacheTTL),
		)
	}

	if cfg.KafkaEnabled {
		producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := producer.Ping(ctx); err != nil {
			logger.Warn("kafka unreachable at startup, events will fail until it recovers",
				slog.String("error", err.Error()),
			)
		}
		healthHandler.Register("kafka", producer.Ping)
		a.publisher = producer

		if cache != nil {
			bookEvents := event.NewBookEventHandler(cache, logger)
			a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
				Brokers: cfg.KafkaBrokers,
				GroupID: cfg.KafkaConsumerGroup,
				Topic:   event.TopicBookDeleted,
			}, bookEvents.Handle, logger)
		}
		logger.Info("kafka initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Bool("consumer", a.consumer != nil),
		)
	}

	reviewService := service.NewReviewService(
		repo,
		bookclient.WithMetrics(books),
		event.NewProducer(a.publisher, logger),
		logger,
		cfg.RatingValidation,
	)

	router := handler.NewRouter(reviewService, healthHandler, logger, handler.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PprofAllowedCIDRs:  cfg.PprofAllowedCIDRs,
		RateLimit:          cfg.RateLimit(),
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ok = true
	return a, nil
}

func (a *App) initStorage(ctx context.Context, healthHandler *health.Handler) (repository.ReviewRepository, error) {
	if a.cfg.StorageBackend == config.StorageMemory {
		a.logger.Info("using in-memory review storage", slog.Bool("rating_validation", a.cfg.RatingValidation))
		return memory.NewReviewRepository(a.cfg.RatingValidation), nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := database.RegisterPoolMetrics(pool, "review"); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}
	if a.cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	healthHandler.Register("postgres", database.PingCheck(pool))
	return postgres.NewReviewRepository(pool, a.cfg.RatingValidation), nil
}

// Run serves HTTP and, when configured, consumes book events until ctx is
// canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("book event consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown drains HTTP, flushes spans, then releases every client.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}

	tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer tracerCancel()
	if err := a.tracerShutdown(tracerCtx); err != nil {
		errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
	}

	errs = append(errs, a.closeResources()...)

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Error("shutdown finished with errors", slog.String("error", err.Error()))
	} else {
		a.logger.Info("application shutdown complete")
	}
	return err
}

func (a *App) closeResources() []error {
	var errs []error
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka consumer close: %w", err))
		}
	}
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("kafka producer close: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}
