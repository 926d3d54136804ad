// Package chat implements durable one-to-one messaging with live fan-out.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	chatRepo "assetdesk/database/repository/chat"
	employeeRepo "assetdesk/database/repository/employee"
	"assetdesk/models"
	"assetdesk/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HistoryLimit caps a history read to the most recent messages.
const HistoryLimit = 200

const unknownName = "Unknown"

// DefaultChatService is the production implementation.
type DefaultChatService struct {
	messages    chatRepo.ChatRepository
	employees   employeeRepo.EmployeeRepository
	broadcaster Broadcaster
	logger      *zap.Logger
	now         func() time.Time
}

func NewChatService(
	messages chatRepo.ChatRepository,
	employees employeeRepo.EmployeeRepository,
	broadcaster Broadcaster,
	logger *zap.Logger,
) *DefaultChatService {
	return &DefaultChatService{
		messages:    messages,
		employees:   employees,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

// Send persists a message and pushes it to the receiver's live channel.
// A failed push is logged; the message stays readable through History.
func (s *DefaultChatService) Send(ctx context.Context, senderID, receiverID, content string) (*models.ChatMessage, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, utils.ValidationError("receiver_id is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, utils.ValidationError("content is required")
	}

	receiver, err := s.employees.GetByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up receiver: %w", err)
	}
	if receiver == nil {
		return nil, utils.ValidationError("receiver not found")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}
	msg, err := models.NewChatMessage(id.String(), senderID, receiverID, content, s.now())
	if err != nil {
		return nil, utils.ValidationError(err.Error())
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("failed to encode chat message", zap.String("messageID", msg.ID), zap.Error(err))
		return msg, nil
	}
	if err := s.broadcaster.Publish(ctx, ChannelName(receiverID), payload); err != nil {
		s.logger.Warn("live delivery failed", zap.String("messageID", msg.ID), zap.Error(err))
	}
	return msg, nil
}

// History returns the latest messages between userID and peerID, oldest first.
func (s *DefaultChatService) History(ctx context.Context, userID, peerID string) ([]models.MessageView, error) {
	msgs, err := s.messages.ListBetween(ctx, userID, peerID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	people, err := s.employees.GetByIDs(ctx, []string{userID, peerID})
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	name := func(id string) string {
		if e, ok := people[id]; ok {
			return e.Name
		}
		return unknownName
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, models.MessageView{
			ID:           m.ID,
			SenderID:     m.SenderID,
			SenderName:   name(m.SenderID),
			ReceiverID:   m.ReceiverID,
			ReceiverName: name(m.ReceiverID),
			Content:      m.Content,
			CreatedAt:    m.CreatedAt,
			IsRead:       m.IsRead,
		})
	}
	return views, nil
}

// Conversations lists userID's peers, newest conversation first, with unread counts.
func (s *DefaultChatService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	latest, err := s.messages.LatestPerPeer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	unread, err := s.messages.UnreadCountsBySender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}

	ids := make([]string, 0, len(latest))
	for _, p := range latest {
		ids = append(ids, p.PeerID)
	}
	people, err := s.employees.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load peers: %w", err)
	}

	out := make([]models.Conversation, 0, len(latest))
	for _, p := range latest {
		name := unknownName
		if e, ok := people[p.PeerID]; ok {
			name = e.Name
		}
		out = append(out, models.Conversation{
			UserID:          p.PeerID,
			UserName:        name,
			LastMessage:     p.LastMessage,
			LastMessageTime: p.LastSentAt,
			UnreadCount:     unread[p.PeerID],
		})
	}
	return out, nil
}

// UnreadCounts maps sender id to the number of unread messages sent to userID.
func (s *DefaultChatService) UnreadCounts(ctx context.Context, userID string) (map[string]int64, error) {
	counts, err := s.messages.UnreadCountsBySender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return counts, nil
}

// MarkRead flags one message addressed to userID as read. Already-read or
// foreign messages are left untouched without error.
func (s *DefaultChatService) MarkRead(ctx context.Context, userID, messageID string) error {
	if _, err := s.messages.MarkRead(ctx, messageID, userID); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// MarkConversationRead flags everything peerID sent to userID as read and
// returns how many messages changed state.
func (s *DefaultChatService) MarkConversationRead(ctx context.Context, userID, peerID string) (int64, error) {
	n, err := s.messages.MarkConversationRead(ctx, peerID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return n, nil
}

// Stream subscribes to userID's channel and hands every payload to deliver
// until ctx is done, the feed ends, or deliver fails. The subscription is
// always released before Stream returns.
func (s *DefaultChatService) Stream(ctx context.Context, userID string, deliver func([]byte) error) error {
	sub, err := s.broadcaster.Subscribe(ctx, ChannelName(userID))
	if err != nil {
		return err
	}
	defer func() {
		if err := sub.Close(); err != nil {
			s.logger.Warn("failed to release chat subscription", zap.String("userID", userID), zap.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			if err := deliver(payload); err != nil {
				return err
			}
		}
	}
}
