package core

import (
	"context"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// profiles loads display data for the participants and message senders of a conversation.
func (c *Core) profiles(ctx context.Context, conv *entity.Conversation) (map[primitive.ObjectID]entity.UserProfile, error) {
	ids := make([]primitive.ObjectID, 0, len(conv.Participants))
	seen := make(map[primitive.ObjectID]bool)
	for _, id := range conv.Participants {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, msg := range conv.Messages {
		if !seen[msg.Sender] {
			seen[msg.Sender] = true
			ids = append(ids, msg.Sender)
		}
	}

	users, err := c.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make(map[primitive.ObjectID]entity.UserProfile, len(users))
	for i := range users {
		result[users[i].ID] = users[i].Profile()
	}
	return result, nil
}

// conversationView renders the full history of conv for user.
func (c *Core) conversationView(ctx context.Context, conv *entity.Conversation, user *entity.UserAuth) (*entity.ConversationView, error) {
	markers, err := c.repo.GetConversationMarkers(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	profiles, err := c.profiles(ctx, conv)
	if err != nil {
		return nil, err
	}

	rs := newReadState(user.ID, markers)

	view := &entity.ConversationView{
		ID:           conv.ID,
		Kind:         conv.Kind,
		Participants: make([]entity.UserProfile, 0, len(conv.Participants)),
		Messages:     make([]entity.MessageView, 0, len(conv.Messages)),
		LastActivity: conv.LastActivity,
	}

	for _, id := range conv.Participants {
		if p, ok := profiles[id]; ok {
			view.Participants = append(view.Participants, p)
		}
	}

	for _, msg := range conv.Messages {
		sender := entity.SenderView{ID: msg.Sender, IsMe: msg.Sender == user.ID}
		if p, ok := profiles[msg.Sender]; ok {
			sender.Name = p.Name
			sender.Role = p.Role
		}
		view.Messages = append(view.Messages, entity.MessageView{
			ID:        msg.ID,
			Seq:       msg.Seq,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			IsRead:    rs.isRead(msg),
			Sender:    sender,
		})
	}

	return view, nil
}

func lastMessage(conv *entity.Conversation, me primitive.ObjectID) *entity.LastMessage {
	msg := conv.LastMessage()
	if msg == nil {
		return nil
	}
	last := &entity.LastMessage{
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Sender:    "partner",
		IsMe:      msg.Sender == me,
	}
	if last.IsMe {
		last.Sender = "me"
	}
	return last
}
