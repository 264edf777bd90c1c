package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/attendance/internal/app/models/dto"
	"github.com/yigit/attendance/internal/pkg/ratelimit"
)

// RateLimit throttles the authenticated caller. A caller already over budget
// is turned away before a hit is recorded, so retries do not extend the
// block. A nil limiter lets every request through, and store failures are
// logged and let through too.
func RateLimit(limiter *ratelimit.Limiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		decision, err := limiter.Blocked(ctx, userID)
		if err == nil && decision.Allowed {
			decision, err = limiter.Allow(ctx, userID)
		}
		if err != nil {
			log.Warn().Err(err).Int64("userID", userID).Msg("Rate limiter unavailable")
			c.Next()
			return
		}
		if !decision.Allowed {
			retryAfter := decision.RetryAfterSeconds()
			log.Debug().Int64("userID", userID).Str("window", decision.Window).Int64("retryAfter", retryAfter).Msg("Rate limited")
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeTooManyRequests, "Too many requests").
				WithSeverity(dto.ErrorSeverityWarning).
				WithDetails(map[string]interface{}{"retryAfter": retryAfter})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}
