package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/2beens/abtracker/internal/telemetry/metrics"
	"github.com/2beens/abtracker/pkg"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

const rateLimitedReason = "rate_limited"

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

func rateLimitKey(routeName string, r *http.Request) string {
	return fmt.Sprintf("abtracker:ratelimit:%s:%s", routeName, pkg.ClientIP(r))
}

// RateLimit allows allowedPerMin requests per client ip and route name.
// Rejected requests get 429 with a Retry-After header in whole seconds.
func RateLimit(
	rateLimiter RequestRateLimiter,
	routeName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	limit := redis_rate.PerMinute(allowedPerMin)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := rateLimiter.Allow(r.Context(), rateLimitKey(routeName, r), limit)
			if err != nil {
				log.Errorf("rate limiter [%s]: %s", routeName, err)
				pkg.WriteJSONError(w, "", "rate limit check failed", http.StatusInternalServerError)
				return
			}
			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}
			retryAfterSec := int(math.Ceil(res.RetryAfter.Seconds()))
			log.Debugf("rate limited [%s] for %s, retry after %ds", routeName, pkg.ClientIP(r), retryAfterSec)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
			pkg.WriteJSONError(
				w,
				rateLimitedReason,
				fmt.Sprintf("too many requests, retry after %d seconds", retryAfterSec),
				http.StatusTooManyRequests,
			)
		})
	}
}
