package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindOrCreateConversation returns the conversation stored under conv.Key, inserting conv
// when none exists. The upsert is a single operation on the unique key; a concurrent insert
// that wins the race surfaces as a duplicate key error and is resolved by reading it back.
func (m *MongoDB) FindOrCreateConversation(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error) {
	collection := m.collection(conversationsCollection)

	onInsert := bson.D{
		{"key", conv.Key},
		{"kind", conv.Kind},
		{"participants", conv.Participants},
		{"messages", bson.A{}},
		{"seq", int64(0)},
		{"last_activity", conv.LastActivity},
		{"is_active", true},
		{"created_at", conv.CreatedAt},
	}
	if !conv.Group.IsZero() {
		onInsert = append(onInsert, bson.E{Key: "group", Value: conv.Group})
	}

	filter := bson.D{{"key", conv.Key}}
	update := bson.D{{"$setOnInsert", onInsert}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var result entity.Conversation
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err == nil {
		return &result, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("mongodb upsert conversation: %w", err)
	}

	err = collection.FindOne(ctx, filter).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("mongodb find conversation after conflict: %w", err)
	}
	return &result, nil
}

func (m *MongoDB) GetConversation(ctx context.Context, id primitive.ObjectID) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := m.collection(conversationsCollection).FindOne(ctx, bson.D{{"_id", id}}).Decode(&conv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, m.findError(err)
	}
	return &conv, nil
}

func (m *MongoDB) SetParticipants(ctx context.Context, id primitive.ObjectID, participants []primitive.ObjectID) error {
	filter := bson.D{{"_id", id}}
	update := bson.D{{"$set", bson.D{{"participants", participants}}}}

	_, err := m.collection(conversationsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb set participants: %w", err)
	}
	return nil
}

func (m *MongoDB) SetConversationActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	filter := bson.D{{"_id", id}}
	update := bson.D{{"$set", bson.D{{"is_active", active}}}}

	_, err := m.collection(conversationsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongodb set conversation active: %w", err)
	}
	return nil
}

// AppendMessage assigns the next sequence number and appends the message in one
// document update, so concurrent appends never share a sequence or reorder the log.
func (m *MongoDB) AppendMessage(ctx context.Context, id primitive.ObjectID, msg entity.Message) (*entity.Message, error) {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}

	pipeline := mongo.Pipeline{
		{{"$set", bson.D{{"seq", bson.D{{"$add", bson.A{bson.D{{"$ifNull", bson.A{"$seq", 0}}}, 1}}}}}}},
		{{"$set", bson.D{
			{"messages", bson.D{{"$concatArrays", bson.A{
				bson.D{{"$ifNull", bson.A{"$messages", bson.A{}}}},
				bson.A{bson.D{
					{"_id", msg.ID},
					{"seq", "$seq"},
					{"sender", msg.Sender},
					// content is user text and must not be read as a field path
					{"content", bson.D{{"$literal", msg.Content}}},
					{"timestamp", msg.Timestamp},
				}},
			}}}},
			{"last_activity", bson.D{{"$max", bson.A{"$last_activity", msg.Timestamp}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{"seq", 1}})

	var result struct {
		Seq int64 `bson:"seq"`
	}
	err := m.collection(conversationsCollection).FindOneAndUpdate(ctx, bson.D{{"_id", id}}, pipeline, opts).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: conversation %s", entity.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("mongodb append message: %w", err)
	}

	msg.Seq = result.Seq
	return &msg, nil
}

// FindConversations returns matching conversations, most recently active first.
// Only the last message of each conversation is loaded.
func (m *MongoDB) FindConversations(ctx context.Context, f entity.ConversationFilter) ([]entity.Conversation, error) {
	filter := bson.D{}
	if !f.Participant.IsZero() {
		filter = append(filter, bson.E{Key: "participants", Value: f.Participant})
	}
	if f.Groups != nil {
		filter = append(filter, bson.E{Key: "group", Value: bson.D{{"$in", f.Groups}}})
	}
	if f.Kind != "" {
		filter = append(filter, bson.E{Key: "kind", Value: f.Kind})
	}
	if f.ActiveOnly {
		filter = append(filter, bson.E{Key: "is_active", Value: true})
	}

	opts := options.Find().
		SetSort(bson.D{{"last_activity", -1}}).
		SetProjection(bson.D{{"messages", bson.D{{"$slice", -1}}}})

	cursor, err := m.collection(conversationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb find conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var conversations []entity.Conversation
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("mongodb decode conversations: %w", err)
	}
	return conversations, nil
}

// AdvanceReadMarker moves the marker forward to seq and sets the count of the user's own
// messages past it. An older seq leaves the marker unchanged.
func (m *MongoDB) AdvanceReadMarker(ctx context.Context, conversationID, userID primitive.ObjectID, seq, own int64) error {
	current := bson.D{{"$ifNull", bson.A{"$seq", 0}}}
	pipeline := mongo.Pipeline{
		{{"$set", bson.D{
			{"own", bson.D{{"$cond", bson.A{
				bson.D{{"$gt", bson.A{seq, current}}},
				own,
				bson.D{{"$ifNull", bson.A{"$own", 0}}},
			}}}},
			{"seq", bson.D{{"$max", bson.A{current, seq}}}},
			{"updated_at", time.Now()},
		}}},
	}
	if err := m.upsertMarker(ctx, conversationID, userID, pipeline); err != nil {
		return fmt.Errorf("mongodb advance read marker: %w", err)
	}
	return nil
}

// CountOwnMessage records a message the user sent at seq, unless the marker already covers it.
func (m *MongoDB) CountOwnMessage(ctx context.Context, conversationID, userID primitive.ObjectID, seq int64) error {
	current := bson.D{{"$ifNull", bson.A{"$seq", 0}}}
	own := bson.D{{"$ifNull", bson.A{"$own", 0}}}
	pipeline := mongo.Pipeline{
		{{"$set", bson.D{
			{"own", bson.D{{"$cond", bson.A{
				bson.D{{"$lt", bson.A{current, seq}}},
				bson.D{{"$add", bson.A{own, 1}}},
				own,
			}}}},
			{"seq", current},
			{"updated_at", time.Now()},
		}}},
	}
	if err := m.upsertMarker(ctx, conversationID, userID, pipeline); err != nil {
		return fmt.Errorf("mongodb count own message: %w", err)
	}
	return nil
}

// upsertMarker applies the pipeline to the marker of (conversation, user), creating it when
// missing. Two first writes race on the unique index; the loser updates the winner's document.
func (m *MongoDB) upsertMarker(ctx context.Context, conversationID, userID primitive.ObjectID, pipeline mongo.Pipeline) error {
	collection := m.collection(readMarkersCollection)
	filter := bson.D{{"conversation_id", conversationID}, {"user_id", userID}}

	_, err := collection.UpdateOne(ctx, filter, pipeline, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		_, err = collection.UpdateOne(ctx, filter, pipeline)
	}
	return err
}

// GetReadMarkers returns the user's marker per conversation; missing entries mean nothing read.
func (m *MongoDB) GetReadMarkers(ctx context.Context, userID primitive.ObjectID, conversationIDs []primitive.ObjectID) (map[primitive.ObjectID]entity.ReadMarker, error) {
	markers := make(map[primitive.ObjectID]entity.ReadMarker, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return markers, nil
	}

	filter := bson.D{
		{"user_id", userID},
		{"conversation_id", bson.D{{"$in", conversationIDs}}},
	}
	cursor, err := m.collection(readMarkersCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb find read markers: %w", err)
	}
	defer cursor.Close(ctx)

	var list []entity.ReadMarker
	if err = cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("mongodb decode read markers: %w", err)
	}
	for _, marker := range list {
		markers[marker.ConversationID] = marker
	}
	return markers, nil
}

func (m *MongoDB) GetConversationMarkers(ctx context.Context, conversationID primitive.ObjectID) ([]entity.ReadMarker, error) {
	cursor, err := m.collection(readMarkersCollection).Find(ctx, bson.D{{"conversation_id", conversationID}})
	if err != nil {
		return nil, fmt.Errorf("mongodb find conversation markers: %w", err)
	}
	defer cursor.Close(ctx)

	var markers []entity.ReadMarker
	if err = cursor.All(ctx, &markers); err != nil {
		return nil, fmt.Errorf("mongodb decode conversation markers: %w", err)
	}
	return markers, nil
}
