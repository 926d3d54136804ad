package handlers

import (
	"context"
	"time"

	"assetdesk/middleware"
	"assetdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Close codes sent on the chat stream.
const (
	CloseLoginRequired  = 4001
	CloseSessionInvalid = 4002
)

const (
	writeWait = 10 * time.Second
	closeWait = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
}

// StreamHandler handles GET /chat/ws. The connection is accepted first so
// authentication failures can be reported with a close code.
func (h *ChatHandler) StreamHandler(c *gin.Context) {
	logger := getLogger(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID, _ := c.Cookie(middleware.SessionCookie)
	if sessionID == "" {
		closeWith(conn, CloseLoginRequired, "login required")
		return
	}
	ident, err := h.Sessions.Resolve(c.Request.Context(), sessionID)
	if err != nil {
		if utils.IsKind(err, utils.KindSessionExpired) {
			closeWith(conn, CloseSessionInvalid, "session invalid")
		} else {
			logger.Error("Session lookup failed", zap.Error(err))
			closeWith(conn, websocket.CloseInternalServerErr, "internal error")
		}
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client never sends anything we need; reading keeps control frames
	// flowing and tells us when it goes away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	err = h.ChatService.Stream(ctx, ident.UserID, func(payload []byte) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, payload)
	})
	if err != nil && ctx.Err() == nil {
		logger.Info("Chat stream ended", zap.String("userID", ident.UserID), zap.Error(err))
		closeWith(conn, websocket.CloseInternalServerErr, "stream closed")
		return
	}
	closeWith(conn, websocket.CloseNormalClosure, "")
}
