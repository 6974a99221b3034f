package core

import (
	"context"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetDirectConversation opens the chat with partnerID, creating an empty one on first
// contact, and marks the partner's messages as read.
func (c *Core) GetDirectConversation(ctx context.Context, user *entity.UserAuth, partnerID primitive.ObjectID) (*entity.ConversationView, error) {
	conv, partner, err := c.resolveDirect(ctx, user, partnerID)
	if err != nil {
		return nil, err
	}

	if err = c.markRead(ctx, conv, user); err != nil {
		return nil, err
	}

	view, err := c.conversationView(ctx, conv, user)
	if err != nil {
		return nil, err
	}
	profile := partner.Profile()
	view.Partner = &profile
	return view, nil
}

func (c *Core) SendDirectMessage(ctx context.Context, user *entity.UserAuth, partnerID primitive.ObjectID, content string) (*entity.MessageView, error) {
	if _, err := normalizeContent(content); err != nil {
		return nil, err
	}

	conv, _, err := c.resolveDirect(ctx, user, partnerID)
	if err != nil {
		return nil, err
	}

	msg, err := c.appendMessage(ctx, conv, user, content)
	if err != nil {
		return nil, err
	}

	// partnerId is the sender: the receiving side files the message under this partner
	c.notify(entity.NewMessageEvent{
		ConversationID: conv.ID,
		Message:        newMessageView(msg, senderView(user, false)),
		PartnerID:      user.ID.Hex(),
	})

	view := newMessageView(msg, senderView(user, true))
	return &view, nil
}

// ListChatCandidates returns everyone the user can start a direct chat with.
func (c *Core) ListChatCandidates(ctx context.Context, user *entity.UserAuth) ([]entity.UserProfile, error) {
	users, err := c.repo.GetActiveUsersExcept(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profiles := make([]entity.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}
