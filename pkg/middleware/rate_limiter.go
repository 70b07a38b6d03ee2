package middleware

import (
	"Omnipresence/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiter builds a per-IP limiter middleware from a formatted rate such
// as "100-M" or "10-S". An unparsable rate disables limiting.
func RateLimiter(rate string) gin.HandlerFunc {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		logger.Warnf("invalid rate %q, rate limiting disabled: %v", rate, err)
		return func(c *gin.Context) { c.Next() }
	}
	return mgin.NewMiddleware(limiter.New(memory.NewStore(), parsed))
}
