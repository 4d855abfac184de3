package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utafrali/bookreview/pkg/database"
	"github.com/utafrali/bookreview/pkg/health"
	pkgkafka "github.com/utafrali/bookreview/pkg/kafka"
	"github.com/utafrali/bookreview/pkg/tracing"
	"github.com/utafrali/bookreview/services/book/internal/config"
	"github.com/utafrali/bookreview/services/book/internal/event"
	handler "github.com/utafrali/bookreview/services/book/internal/handler/http"
	"github.com/utafrali/bookreview/services/book/internal/repository"
	"github.com/utafrali/bookreview/services/book/internal/repository/memory"
	"github.com/utafrali/bookreview/services/book/internal/repository/postgres"
	"github.com/utafrali/bookreview/services/book/internal/service"
	"github.com/utafrali/bookreview/services/book/migrations"
)

// App wires together all dependencies and runs the book service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	publisher      pkgkafka.Publisher
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp initializes every dependency selected by cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    "book",
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
		tracerShutdown: tracerShutdown,
	}
	healthHandler := health.NewHandler()

	repo, err := a.initStorage(ctx, healthHandler)
	if err != nil {
		return nil, err
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
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		a.publisher = pkgkafka.NopPublisher{}
	}

	bookService := service.NewBookService(repo, event.NewProducer(a.publisher, logger), logger)

	router := handler.NewRouter(bookService, healthHandler, logger, handler.RouterConfig{
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

	return a, nil
}

func (a *App) initStorage(ctx context.Context, healthHandler *health.Handler) (repository.BookRepository, error) {
	if a.cfg.StorageBackend == config.StorageMemory {
		a.logger.Info("using in-memory book storage")
		return memory.NewBookRepository(), nil
	}

	pgCfg := a.cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.Int("port", pgCfg.Port),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := database.RegisterPoolMetrics(pool, "book"); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}
	if a.cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	}

	healthHandler.Register("postgres", database.PingCheck(pool))
	a.pool = pool
	return postgres.NewBookRepository(pool), nil
}

// Run serves HTTP until ctx is canceled, then shuts down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

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

// Shutdown drains HTTP, flushes spans, then closes the producer and pool.
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

	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("kafka producer close: %w", err))
	}

	if a.pool != nil {
		a.pool.Close()
	}

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Error("shutdown finished with errors", slog.String("error", err.Error()))
	} else {
		a.logger.Info("application shutdown complete")
	}
	return err
}
