package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"Paddlers/internal/shared/transport"
)

// RateLimit 放在 Auth 之后；limiter 为 nil 时不限流。
func RateLimit(l *transport.PlayerLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(PlayerID(c), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, transport.Error(transport.TooManyRequests, "too many requests"))
			return
		}
		c.Next()
	}
}
