package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/medguardian/backend/internal/database"
	"github.com/medguardian/backend/pkg/clientip"
)

const (
	// LoginRateLimitWindow bounds how fast one IP may hit the auth endpoints.
	LoginRateLimitWindow = 120 * time.Second
	// LoginRateLimitMax is the number of attempts allowed per window.
	LoginRateLimitMax = 15
	// loginRateLimitKeyPrefix is the Redis key prefix for attempt counters.
	loginRateLimitKeyPrefix = "ratelimit:login:"
)

// LoginRateLimit throttles credential guessing by IP. Counters live in
// Redis; when Redis is absent or failing the request is allowed through
// (fail open) — losing rate limiting must not lock everyone out.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if database.RedisClient == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.Background()
		key := loginRateLimitKeyPrefix + clientip.RealClientIP(r)

		count, err := database.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			database.RedisClient.Expire(ctx, key, LoginRateLimitWindow)
		}

		if count > LoginRateLimitMax {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(LoginRateLimitWindow.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(fmt.Sprintf(`{"success":false,"message":"Too many attempts. Please try again later.","retry_after":%d}`, int(LoginRateLimitWindow.Seconds()))))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(LoginRateLimitMax))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(LoginRateLimitMax-int(count)))
		next.ServeHTTP(w, r)
	})
}
