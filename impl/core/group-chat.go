package core

import (
	"context"
	"fmt"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetGroupConversation opens the chat of a group, creating it on first access,
// and marks everything in it as read by the requester.
func (c *Core) GetGroupConversation(ctx context.Context, user *entity.UserAuth, groupID primitive.ObjectID) (*entity.ConversationView, error) {
	conv, group, err := c.resolveGroup(ctx, user, groupID)
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
	profile := group.Profile()
	view.Group = &profile
	return view, nil
}

func (c *Core) SendGroupMessage(ctx context.Context, user *entity.UserAuth, groupID primitive.ObjectID, content string) (*entity.MessageView, error) {
	if _, err := normalizeContent(content); err != nil {
		return nil, err
	}

	conv, group, err := c.resolveGroup(ctx, user, groupID)
	if err != nil {
		return nil, err
	}

	msg, err := c.appendMessage(ctx, conv, user, content)
	if err != nil {
		return nil, err
	}

	c.notify(entity.NewMessageEvent{
		ConversationID: conv.ID,
		Message:        newMessageView(msg, senderView(user, false)),
		GroupID:        group.ID.Hex(),
	})

	view := newMessageView(msg, senderView(user, true))
	return &view, nil
}

// MarkGroupMessageRead marks one message, and everything before it, as read by the requester.
func (c *Core) MarkGroupMessageRead(ctx context.Context, user *entity.UserAuth, groupID, messageID primitive.ObjectID) error {
	conv, _, err := c.resolveGroup(ctx, user, groupID)
	if err != nil {
		return err
	}

	for _, msg := range conv.Messages {
		if msg.ID == messageID {
			return c.markReadUpTo(ctx, conv, user, msg.Seq)
		}
	}
	return fmt.Errorf("message %w", entity.ErrNotFound)
}
