package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	GroupConversation  = "group"
	DirectConversation = "direct"
)

// Conversation holds an append-only message log for a fixed participant set.
// Key is unique per group or per unordered user pair.
type Conversation struct {
	ID           primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Key          string               `json:"-" bson:"key"`
	Kind         string               `json:"kind" bson:"kind"`
	Group        primitive.ObjectID   `json:"group,omitempty" bson:"group,omitempty"`
	Participants []primitive.ObjectID `json:"participants" bson:"participants"`
	Messages     []Message            `json:"messages" bson:"messages"`
	Seq          int64                `json:"seq" bson:"seq"`
	LastActivity time.Time            `json:"lastActivity" bson:"last_activity"`
	IsActive     bool                 `json:"isActive" bson:"is_active"`
	CreatedAt    time.Time            `json:"createdAt" bson:"created_at"`
}

// Message is immutable once appended. Seq is assigned by the store and orders the log.
type Message struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Seq       int64              `json:"seq" bson:"seq"`
	Sender    primitive.ObjectID `json:"sender" bson:"sender"`
	Content   string             `json:"content" bson:"content"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}

// ReadMarker is the highest message sequence a participant has read in a conversation.
// Own counts the participant's messages past Seq.
type ReadMarker struct {
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversation_id"`
	UserID         primitive.ObjectID `json:"userId" bson:"user_id"`
	Seq            int64              `json:"seq" bson:"seq"`
	Own            int64              `json:"own" bson:"own"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updated_at"`
}

func GroupKey(groupID primitive.ObjectID) string {
	return GroupConversation + ":" + groupID.Hex()
}

// DirectKey is independent of argument order.
func DirectKey(a, b primitive.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if y < x {
		x, y = y, x
	}
	return DirectConversation + ":" + x + ":" + y
}

func NewGroupConversation(groupID primitive.ObjectID, participants []primitive.ObjectID) *Conversation {
	now := time.Now()
	return &Conversation{
		Key:          GroupKey(groupID),
		Kind:         GroupConversation,
		Group:        groupID,
		Participants: participants,
		Messages:     []Message{},
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
	}
}

func NewDirectConversation(a, b primitive.ObjectID) *Conversation {
	now := time.Now()
	return &Conversation{
		Key:          DirectKey(a, b),
		Kind:         DirectConversation,
		Participants: []primitive.ObjectID{a, b},
		Messages:     []Message{},
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
	}
}

func (c *Conversation) HasParticipant(id primitive.ObjectID) bool {
	for _, p := range c.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// Partner returns the other participant of a direct conversation.
func (c *Conversation) Partner(id primitive.ObjectID) primitive.ObjectID {
	for _, p := range c.Participants {
		if p != id {
			return p
		}
	}
	return primitive.NilObjectID
}

func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Unread counts messages of others past the marker.
func (c *Conversation) Unread(marker ReadMarker) int64 {
	n := c.Seq - marker.Seq - marker.Own
	if n < 0 {
		return 0
	}
	return n
}

// OwnSince counts messages of userID loaded in c with a sequence above seq.
func (c *Conversation) OwnSince(userID primitive.ObjectID, seq int64) int64 {
	var n int64
	for _, msg := range c.Messages {
		if msg.Sender == userID && msg.Seq > seq {
			n++
		}
	}
	return n
}

// ConversationFilter selects conversations for chat lists. Zero values match everything.
// Groups, when not nil, restricts group conversations to those groups; an empty slice matches none.
type ConversationFilter struct {
	Participant primitive.ObjectID
	Groups      []primitive.ObjectID
	Kind        string
	ActiveOnly  bool
}
