package chat

import (
	"context"

	"assetdesk/models"
)

type ChatService interface {
	Send(ctx context.Context, senderID, receiverID, content string) (*models.ChatMessage, error)
	History(ctx context.Context, userID, peerID string) ([]models.MessageView, error)
	Conversations(ctx context.Context, userID string) ([]models.Conversation, error)
	UnreadCounts(ctx context.Context, userID string) (map[string]int64, error)
	MarkRead(ctx context.Context, userID, messageID string) error
	MarkConversationRead(ctx context.Context, userID, peerID string) (int64, error)
	Stream(ctx context.Context, userID string, deliver func([]byte) error) error
}
