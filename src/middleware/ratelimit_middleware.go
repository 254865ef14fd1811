package middleware

import (
	"log"
	"net/http"
	"strconv"

	"github.com/ulule/limiter/v3"
)

// ProviderRateLimit caps how often one user can trigger aggregator calls,
// keeping us inside Plaid's per-client request budget. Keyed by user id;
// unauthenticated callers fall back to the remote address.
func ProviderRateLimit(limiterInstance *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if userID, ok := UserIDFromContext(r.Context()); ok {
				key = "user:" + strconv.FormatInt(userID, 10)
			}

			limiterCtx, err := limiterInstance.Get(r.Context(), key)
			if err != nil {
				log.Printf("ERROR: Rate limit check failed for %s: %v", key, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			if limiterCtx.Reached {
				log.Printf("INFO: Rate limit exceeded for %s (limit %d)", key, limiterCtx.Limit)
				http.Error(w, "too many requests, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
