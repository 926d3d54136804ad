package middleware

import (
	"context"

	"assetdesk/services/session"
	"assetdesk/utils"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "session_id"

	identityKey  = "identity"
	userIDKey    = "userID"
	apiClientKey = "apiClient"
)

// SessionResolver turns a session id into the caller's identity.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*session.Identity, error)
}

// SessionAuth resolves the session cookie and stores the identity on the context.
func SessionAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// A missing cookie resolves as an empty id.
		sessionID, _ := c.Cookie(SessionCookie)

		ident, err := resolver.Resolve(c.Request.Context(), sessionID)
		if err != nil {
			utils.RespondError(c, err)
			return
		}

		c.Set(identityKey, ident)
		c.Set(userIDKey, ident.UserID)
		c.Next()
	}
}

// CurrentIdentity returns the identity set by SessionAuth, or nil.
func CurrentIdentity(c *gin.Context) *session.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*session.Identity)
	return ident
}
