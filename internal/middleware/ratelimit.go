package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"trade-graphql-mcp/internal/logging"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures a global token bucket limiter.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
	// Exempt lists exact paths that never consume a token, such as the
	// health probe.
	Exempt []string
}

// RateLimitMiddleware enforces one token bucket shared by every request. A
// rejected request gets 429 with Retry-After set to the wait for the next
// token, rounded up to whole seconds.
func RateLimitMiddleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled || cfg.RPS <= 0 || cfg.Burst <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	exempt := make(map[string]struct{}, len(cfg.Exempt))
	for _, path := range cfg.Exempt {
		exempt[path] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exempt[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			reservation := limiter.Reserve()
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				retryAfter := max(1, int(math.Ceil(delay.Seconds())))
				logging.FromContext(r.Context()).Warn("rate limit exceeded",
					slog.String("path", r.URL.Path),
					slog.Int("retry_after_s", retryAfter),
				)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
