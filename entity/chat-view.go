package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SenderView struct {
	ID   primitive.ObjectID `json:"id"`
	Name string             `json:"name"`
	Role string             `json:"role"`
	IsMe bool               `json:"isMe"`
}

type MessageView struct {
	ID        primitive.ObjectID `json:"id"`
	Seq       int64              `json:"seq"`
	Content   string             `json:"content"`
	Timestamp time.Time          `json:"timestamp"`
	IsRead    bool               `json:"isRead"`
	Sender    SenderView         `json:"sender"`
}

// ConversationView is an opened conversation with its full history.
type ConversationView struct {
	ID           primitive.ObjectID `json:"id"`
	Kind         string             `json:"kind"`
	Group        *GroupProfile      `json:"group,omitempty"`
	Partner      *UserProfile       `json:"partner,omitempty"`
	Participants []UserProfile      `json:"participants"`
	Messages     []MessageView      `json:"messages"`
	LastActivity time.Time          `json:"lastActivity"`
}

type LastMessage struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Sender is "me" or "partner".
	Sender string `json:"sender"`
	IsMe   bool   `json:"isMe"`
}

type ConversationSummary struct {
	ID           primitive.ObjectID `json:"id"`
	Kind         string             `json:"kind"`
	Group        *GroupProfile      `json:"group,omitempty"`
	Partner      *UserProfile       `json:"partner,omitempty"`
	LastMessage  *LastMessage       `json:"lastMessage"`
	UnreadCount  int64              `json:"unreadCount"`
	LastActivity time.Time          `json:"lastActivity"`
}

// NewMessageEvent is pushed to realtime rooms after a message is persisted.
type NewMessageEvent struct {
	ConversationID primitive.ObjectID `json:"conversationId"`
	Message        MessageView        `json:"message"`
	PartnerID      string             `json:"partnerId,omitempty"`
	GroupID        string             `json:"groupId,omitempty"`
}
