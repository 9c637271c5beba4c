package middlewares

import (
	"math"
	"net/http"
	"strconv"

	httperrors "github.com/dropDatabas3/issuehub/internal/http/errors"
	"github.com/dropDatabas3/issuehub/internal/observability/logger"
	"github.com/dropDatabas3/issuehub/internal/rate"
)

// WithRateLimit limita por IP de cliente. Si el limiter falla (Redis caído)
// el request pasa: preferimos degradar la protección antes que tirar logins
// legítimos.
func WithRateLimit(limiter rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable",
					logger.Component("ratelimit"),
					logger.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				retry := int(math.Ceil(res.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				httperrors.WriteError(w, r, httperrors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
