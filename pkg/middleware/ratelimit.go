package middleware

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	"voicesearch/pkg/metrics"
)

// RateLimit applies a global token bucket. Requests over the limit get 429.
// A non-positive rps disables limiting.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(rps), burst)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				metrics.HTTPRateLimitedTotal.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error":    "too many requests",
					"trace_id": GetTraceID(r.Context()),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
