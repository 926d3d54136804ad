package handlers

import (
	"net/http"

	"assetdesk/middleware"
	"assetdesk/services/chat"
	"assetdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler serves the chat REST endpoints and the live stream.
type ChatHandler struct {
	ChatService chat.ChatService
	Sessions    middleware.SessionResolver
}

func NewChatHandler(svc chat.ChatService, sessions middleware.SessionResolver) *ChatHandler {
	return &ChatHandler{ChatService: svc, Sessions: sessions}
}

func currentUserID(c *gin.Context) (string, bool) {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		utils.RespondError(c, utils.SessionExpired("login required"))
		return "", false
	}
	return ident.UserID, true
}

// uuidParam reads a path parameter that must be a UUID.
func uuidParam(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	if _, err := uuid.Parse(raw); err != nil {
		utils.RespondError(c, utils.ValidationError(name+" must be a UUID"))
		return "", false
	}
	return raw, true
}

// SendMessageHandler handles POST /chat/messages.
func (h *ChatHandler) SendMessageHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required,uuid"`
		Content    string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.ValidationError("receiver_id (UUID) and content are required"))
		return
	}

	msg, err := h.ChatService.Send(c.Request.Context(), userID, req.ReceiverID, req.Content)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sent", "id": msg.ID})
}

// HistoryHandler handles GET /chat/messages/:user_id.
func (h *ChatHandler) HistoryHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	peerID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}

	history, err := h.ChatService.History(c.Request.Context(), userID, peerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// ConversationsHandler handles GET /chat/conversations.
func (h *ChatHandler) ConversationsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	convs, err := h.ChatService.Conversations(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// UnreadCountsHandler handles GET /chat/unread-counts.
func (h *ChatHandler) UnreadCountsHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	counts, err := h.ChatService.UnreadCounts(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// MarkReadHandler handles POST /chat/messages/:id/read.
func (h *ChatHandler) MarkReadHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.ChatService.MarkRead(c.Request.Context(), userID, messageID); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}

// MarkConversationReadHandler handles POST /chat/conversations/:user_id/read.
func (h *ChatHandler) MarkConversationReadHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	peerID, ok := uuidParam(c, "user_id")
	if !ok {
		return
	}
	n, err := h.ChatService.MarkConversationRead(c.Request.Context(), userID, peerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read", "updated": n})
}
