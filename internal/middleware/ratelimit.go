package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"authbridge/internal/domain"
	"authbridge/internal/logger"
	"authbridge/internal/metrics"
	"authbridge/internal/ratelimit"
)

// RateLimit throttles requests per client IP. Limiter failures let the request
// through.
func RateLimit(limiter ratelimit.Limiter, max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), "auth:"+c.ClientIP())
		if err != nil {
			logger.From(c.Request.Context()).Warn("rate limiter unavailable", logger.Err(err))
			c.Next()
			return
		}

		c.Header("RateLimit-Limit", strconv.Itoa(max))
		c.Header("RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))

		if !res.Allowed {
			retry := int64(math.Ceil(res.RetryAfter.Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retry, 10))
			metrics.RateLimitedTotal.WithLabelValues(routeLabel(c)).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": domain.ErrRateLimited.Message,
				"code":    domain.ErrRateLimited.Code,
			})
			return
		}

		c.Next()
	}
}
