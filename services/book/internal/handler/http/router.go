package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/bookreview/pkg/health"
	"github.com/utafrali/bookreview/pkg/middleware"
	"github.com/utafrali/bookreview/services/book/internal/service"
)

const serviceName = "book"

// RouterConfig holds the router options taken from service config.
type RouterConfig struct {
	CORSAllowedOrigins []string
	PprofAllowedCIDRs  []string
	RateLimit          middleware.RateLimitConfig
}

// NewRouter builds the book service HTTP handler.
func NewRouter(
	bookService *service.BookService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	}

	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(corsCfg))

	r.Get("/health", healthHandler.ReadinessHandler())
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", middleware.MetricsHandler())
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	books := NewBookHandler(bookService, logger)
	r.Route("/books", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))
		r.Get("/", books.ListBooks)
		r.Post("/", books.CreateBook)
		r.Get("/{id}", books.GetBook)
		r.Put("/{id}", books.UpdateBook)
		r.Delete("/{id}", books.DeleteBook)
	})

	return r
}
