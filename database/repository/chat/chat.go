package chatRepo

import (
	"context"

	"assetdesk/models"
)

// ChatRepository persists chat messages and answers history/unread queries.
type ChatRepository interface {
	// Create inserts a new message.
	Create(ctx context.Context, msg *models.ChatMessage) error
	// ListBetween returns up to limit of the most recent messages exchanged
	// between userA and userB, in chronological order.
	ListBetween(ctx context.Context, userA, userB string, limit int) ([]models.ChatMessage, error)
	// LatestPerPeer returns the latest message per conversation partner of
	// userID, newest conversation first.
	LatestPerPeer(ctx context.Context, userID string) ([]models.PeerSummary, error)
	// UnreadCountsBySender counts unread messages addressed to receiverID per sender.
	UnreadCountsBySender(ctx context.Context, receiverID string) (map[string]int64, error)
	// MarkRead flags one message read if it is addressed to receiverID.
	MarkRead(ctx context.Context, messageID, receiverID string) (int64, error)
	// MarkConversationRead flags every unread message from senderID to receiverID read.
	MarkConversationRead(ctx context.Context, senderID, receiverID string) (int64, error)
}
