package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"Paddlers/internal/shared/security"
	"Paddlers/internal/shared/transport"
)

const ctxKeyPlayer = "player_id"

// Auth 解析 Authorization: Bearer <jwt>，把玩家 id 放进 gin.Context。
// websocket 握手无法带 header 时允许用 ?token= 传。
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(raw, "Bearer ")
		if !found {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, transport.Error(transport.Unauthorized, "missing token"))
			return
		}
		pid, err := security.ParsePlayer(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, transport.Error(transport.Unauthorized, "invalid token"))
			return
		}
		c.Set(ctxKeyPlayer, pid)
		transport.SetPlayer(c.Request.Context(), pid)
		c.Next()
	}
}

// PlayerID Auth 之后的处理器里读取玩家 id。
func PlayerID(c *gin.Context) int64 {
	return c.GetInt64(ctxKeyPlayer)
}
