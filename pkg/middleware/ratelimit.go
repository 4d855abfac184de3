package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/utafrali/bookreview/pkg/httputil"
)

// RateLimitConfig configures per-client token buckets.
type RateLimitConfig struct {
	// RPS is the sustained request rate per client IP. Zero disables limiting.
	RPS float64
	// Burst is the bucket size. Values below 1 become 1.
	Burst int
	// IdleTTL drops buckets of clients not seen for this long.
	IdleTTL time.Duration
	// TrustForwardedFor keys clients by X-Forwarded-For / X-Real-IP.
	TrustForwardedFor bool
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type clientBuckets struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newClientBuckets(cfg RateLimitConfig) *clientBuckets {
	burst := max(cfg.Burst, 1)
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &clientBuckets{
		clients: make(map[string]*client),
		limit:   rate.Limit(cfg.RPS),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

// allow takes one token from ip's bucket. Stale buckets are swept at most
// once per ttl, on the request path.
func (b *clientBuckets) allow(ip string) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Sub(b.lastSweep) >= b.ttl {
		for key, c := range b.clients {
			if now.Sub(c.lastSeen) > b.ttl {
				delete(b.clients, key)
			}
		}
		b.lastSweep = now
	}

	c, ok := b.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.clients[ip] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (b *clientBuckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// RateLimit rejects requests beyond cfg.RPS per client IP with 429 and a
// Retry-After header. It is a no-op when cfg.RPS is zero.
func RateLimit(cfg RateLimitConfig, l *slog.Logger) func(http.Handler) http.Handler {
	if cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	buckets := newClientBuckets(cfg)
	return rateLimit(buckets, cfg.TrustForwardedFor, l)
}

func rateLimit(buckets *clientBuckets, trustForwarded bool, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustForwarded)
			ok, wait := buckets.allow(ip)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			l.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", ip),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			secs := int(wait.Round(time.Second) / time.Second)
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.ErrorEnvelope{
				Error: &httputil.ErrorResponse{
					Code:      "RATE_LIMITED",
					Message:   "too many requests",
					RequestID: correlationID(r.Context()),
				},
			})
		})
	}
}

// clientIP returns the caller's address. Forwarding headers are honored only
// when the service sits behind a trusted proxy.
func clientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
