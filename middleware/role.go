package middleware

import (
	"assetdesk/models"
	"assetdesk/services/session"
	"assetdesk/utils"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after SessionAuth.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := session.RequireRole(CurrentIdentity(c), role); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.Next()
	}
}
