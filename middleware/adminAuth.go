package middleware

import (
	"crypto/subtle"
	"strings"

	"assetdesk/utils"

	"github.com/gin-gonic/gin"
)

// APITokenAuth admits machine clients presenting the configured static bearer token.
// An empty token rejects everything.
func APITokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, utils.NotAuthorized("missing or invalid Authorization header"))
			return
		}
		presented := strings.TrimPrefix(authHeader, "Bearer ")

		if token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			utils.RespondError(c, utils.NotAuthorized("invalid API token"))
			return
		}

		c.Set(apiClientKey, true)
		c.Next()
	}
}
