package middleware

import (
	"net/http"
	"time"

	"github.com/frahmantamala/benefits-portal/internal"
	"github.com/frahmantamala/benefits-portal/internal/ratelimit"
)

// RateLimit applies a fixed window per client IP under the given key.
func RateLimit(limiter *ratelimit.Limiter, key string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := key + ":" + ratelimit.ClientIP(r)
			if result := limiter.Allow(bucket, limit, window); !result.OK {
				appErr := internal.NewRateLimitError()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(appErr.StatusCode)
				_, _ = w.Write([]byte(`{"error": "` + appErr.Message + `", "code": "` + string(appErr.Code) + `"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
