package models

import (
	"errors"
	"strings"
	"time"
)

// ChatMessage is a durable one-to-one message. Only IsRead ever changes.
type ChatMessage struct {
	ID         string    `bson:"id" json:"id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	ReceiverID string    `bson:"receiver_id" json:"receiver_id"`
	Content    string    `bson:"content" json:"content"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	IsRead     bool      `bson:"is_read" json:"is_read"`
}

// NewChatMessage builds an unread message. CreatedAt is truncated to the
// millisecond so every record store orders it the same way.
func NewChatMessage(id, senderID, receiverID, content string, now time.Time) (*ChatMessage, error) {
	if id == "" {
		return nil, errors.New("message id is required")
	}
	if senderID == "" || receiverID == "" {
		return nil, errors.New("sender and receiver are required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is required")
	}
	return &ChatMessage{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  now.UTC().Truncate(time.Millisecond),
	}, nil
}

// MessageView is a history row with both parties' display names.
type MessageView struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	ReceiverID   string    `json:"receiver_id"`
	ReceiverName string    `json:"receiver_name"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	IsRead       bool      `json:"is_read"`
}

// PeerSummary is the latest message exchanged with one peer.
type PeerSummary struct {
	PeerID      string    `bson:"_id"`
	LastMessage string    `bson:"content"`
	LastSentAt  time.Time `bson:"created_at"`
}

// Conversation is one entry of a user's conversation list.
type Conversation struct {
	UserID          string    `json:"user_id"`
	UserName        string    `json:"user_name"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int64     `json:"unread_count"`
}
