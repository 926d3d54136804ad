package chatRepo

import (
	"context"
	"sort"
	"sync"

	"assetdesk/models"
)

// MemoryChatRepo is an in-process ChatRepository.
type MemoryChatRepo struct {
	mu       sync.RWMutex
	messages []models.ChatMessage
}

func NewMemoryChatRepo() *MemoryChatRepo {
	return &MemoryChatRepo{}
}

// before orders messages by creation time, then by ID.
func before(a, b models.ChatMessage) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (r *MemoryChatRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *MemoryChatRepo) ListBetween(ctx context.Context, userA, userB string, limit int) ([]models.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.ChatMessage{}
	for _, m := range r.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return before(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *MemoryChatRepo) LatestPerPeer(ctx context.Context, userID string) ([]models.PeerSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[string]models.ChatMessage)
	for _, m := range r.messages {
		var peer string
		switch userID {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}
		if cur, ok := latest[peer]; !ok || before(cur, m) {
			latest[peer] = m
		}
	}

	newest := make([]models.ChatMessage, 0, len(latest))
	for _, m := range latest {
		newest = append(newest, m)
	}
	sort.Slice(newest, func(i, j int) bool { return before(newest[j], newest[i]) })

	out := make([]models.PeerSummary, 0, len(newest))
	for _, m := range newest {
		peer := m.SenderID
		if peer == userID {
			peer = m.ReceiverID
		}
		out = append(out, models.PeerSummary{PeerID: peer, LastMessage: m.Content, LastSentAt: m.CreatedAt})
	}
	return out, nil
}

func (r *MemoryChatRepo) UnreadCountsBySender(ctx context.Context, receiverID string) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

func (r *MemoryChatRepo) MarkRead(ctx context.Context, messageID, receiverID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.messages {
		m := &r.messages[i]
		if m.ID == messageID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (r *MemoryChatRepo) MarkConversationRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := range r.messages {
		m := &r.messages[i]
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}
