package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/bookreview/pkg/health"
	"github.com/utafrali/bookreview/pkg/middleware"
	"github.com/utafrali/bookreview/services/review/internal/service"
)

const serviceName = "review"

// RouterConfig holds the router options taken from service config.
type RouterConfig struct {
	CORSAllowedOrigins []string
	PprofAllowedCIDRs  []string
	RateLimit          middleware.RateLimitConfig
}

// NewRouter builds the review service HTTP handler.
func NewRouter(
	reviewService *service.ReviewService,
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

	reviews := NewReviewHandler(reviewService, logger)
	r.Route("/reviews", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))
		r.Get("/", reviews.ListReviews)
		r.Post("/", reviews.CreateReview)
		r.Get("/{id}", reviews.GetReview)
		r.Delete("/{id}", reviews.DeleteReview)
	})

	return r
}
