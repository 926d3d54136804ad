package middleware

import (
	"github.com/gin-gonic/gin"
)

// getClientIP honours X-Forwarded-For and X-Real-IP only when the direct peer
// is one of the engine's trusted proxies.
func getClientIP(c *gin.Context) string {
	return c.ClientIP()
}
