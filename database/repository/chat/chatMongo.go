// File: database/repository/chat/chatMongo.go
package chatRepo

import (
	"context"
	"fmt"
	"time"

	"assetdesk/models"
	"assetdesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoChatRepo implements ChatRepository using MongoDB.
type MongoChatRepo struct {
	coll *mongo.Collection
}

// NewMongoChatRepo creates a new instance of ChatRepository using MongoDB.
func NewMongoChatRepo(db *mongo.Database) ChatRepository {
	repo := &MongoChatRepo{coll: db.Collection("chat_messages")}

	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("chat indexes not created", zap.Error(err))
	}
	return repo
}

func pairFilter(userA, userB string) bson.M {
	return bson.M{"$or": []bson.M{
		{"sender_id": userA, "receiver_id": userB},
		{"sender_id": userB, "receiver_id": userA},
	}}
}

// Create inserts a new message document.
func (r *MongoChatRepo) Create(ctx context.Context, msg *models.ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// ListBetween fetches the newest messages of a pair, then restores chronological order.
func (r *MongoChatRepo) ListBetween(ctx context.Context, userA, userB string, limit int) ([]models.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, pairFilter(userA, userB), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []models.ChatMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// LatestPerPeer groups a user's messages by the other party and keeps the newest one.
func (r *MongoChatRepo) LatestPerPeer(ctx context.Context, userID string) ([]models.PeerSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	peer := bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{"$sender_id", userID}},
		"$receiver_id",
		"$sender_id",
	}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": []bson.M{{"sender_id": userID}, {"receiver_id": userID}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        peer,
			"content":    bson.M{"$first": "$content"},
			"created_at": bson.M{"$first": "$created_at"},
			"message_id": bson.M{"$first": "$id"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "message_id", Value: -1}}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate conversations: %w", err)
	}
	defer cursor.Close(ctx)

	summaries := []models.PeerSummary{}
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return summaries, nil
}

// UnreadCountsBySender counts unread messages for receiverID grouped by sender.
func (r *MongoChatRepo) UnreadCountsBySender(ctx context.Context, receiverID string) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"receiver_id": receiverID, "is_read": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$sender_id", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate unread counts: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			SenderID string `bson:"_id"`
			Count    int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode unread count: %w", err)
		}
		counts[row.SenderID] = row.Count
	}
	return counts, cursor.Err()
}

// MarkRead flags a single message addressed to receiverID as read.
func (r *MongoChatRepo) MarkRead(ctx context.Context, messageID, receiverID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": messageID, "receiver_id": receiverID, "is_read": false}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark message %s read: %w", messageID, err)
	}
	return result.ModifiedCount, nil
}

// MarkConversationRead flags every unread message from senderID to receiverID as read.
func (r *MongoChatRepo) MarkConversationRead(ctx context.Context, senderID, receiverID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"sender_id": senderID, "receiver_id": receiverID, "is_read": false}
	result, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return result.ModifiedCount, nil
}
