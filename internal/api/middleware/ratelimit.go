package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/playbook/internal/api/response"
	"github.com/kiranshivaraju/playbook/internal/cache"
	"github.com/kiranshivaraju/playbook/internal/metrics"
)

const (
	defaultRequestsPerHour = 50
	rateLimitWindow        = time.Hour
)

// RateLimit provides fixed-window rate limiting per client IP via the cache.
type RateLimit struct {
	cache           cache.Cache
	requestsPerHour int
	metrics         *metrics.Metrics
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(c cache.Cache, requestsPerHour int, m *metrics.Metrics) *RateLimit {
	if requestsPerHour <= 0 {
		requestsPerHour = defaultRequestsPerHour
	}
	if m == nil {
		m = metrics.Noop()
	}
	return &RateLimit{cache: c, requestsPerHour: requestsPerHour, metrics: m}
}

// Limit counts requests per client IP. Run chi's RealIP middleware first when
// the service sits behind a proxy.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)

		count, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey(client), rateLimitWindow)
		if err != nil {
			// On cache error, allow the request (fail open)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerHour - int(count)
		if remaining < 0 {
			remaining = 0
		}
		resetTime := time.Now().Add(rateLimitWindow).Unix()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerHour))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime))

		if count > int64(rl.requestsPerHour) {
			rl.metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			response.Error(w, http.StatusTooManyRequests,
				response.CodeRateLimited, "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
