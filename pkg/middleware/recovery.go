package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/bookreview/pkg/httputil"
	"github.com/utafrali/bookreview/pkg/logger"
)

var httpPanicsRecovered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_panics_recovered_total",
		Help: "Handler panics converted into 500 responses",
	},
	[]string{"method", "path"},
)

// Recovery converts a handler panic into a 500 with the standard error
// envelope. The panic is logged with its stack, counted and recorded on the
// active span. Mount it inside RequestLogging and Tracing so the access line
// and span of a panicking request both report the 500.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				handlePanic(w, r, rec, l)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func handlePanic(w http.ResponseWriter, r *http.Request, rec any, l *slog.Logger) {
	ctx := r.Context()
	path := routePattern(r)
	httpPanicsRecovered.WithLabelValues(r.Method, path).Inc()

	err := fmt.Errorf("panic: %v", rec)
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithStackTrace(true))
	span.SetStatus(codes.Error, "panic")

	logger.WithContext(ctx, l).ErrorContext(ctx, "panic recovered",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", path),
		slog.String("stack", string(debug.Stack())),
	)

	httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorEnvelope{
		Error: &httputil.ErrorResponse{
			Code:      "INTERNAL_ERROR",
			Message:   "an internal error occurred",
			RequestID: correlationID(ctx),
		},
	})
}

// routePattern prefers the matched chi pattern so metric labels stay bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
