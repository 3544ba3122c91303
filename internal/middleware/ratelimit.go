package middleware

import (
	"log"

	"github.com/gin-gonic/gin"
	limiter "github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit throttles the whole API surface per client IP using an
// in-memory store. formatted is a limiter rate like "300-M". This is the
// coarse edge throttle; the per-caller submission gate lives in the policy
// package.
func RateLimit(formatted string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.Fatalf("invalid rate %q: %v", formatted, err)
	}
	return mgin.NewMiddleware(limiter.New(memory.NewStore(), rate))
}
