package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"danceschool/entity"
	"danceschool/internal/lib/sl"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: message content is required", entity.ErrValidation)
	}
	return content, nil
}

// appendMessage persists a message from sender and counts it as the sender's own past their
// read marker. A failed count is logged: the message is already stored.
func (c *Core) appendMessage(ctx context.Context, conv *entity.Conversation, sender *entity.UserAuth, content string) (*entity.Message, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	msg := entity.Message{
		ID:        primitive.NewObjectID(),
		Sender:    sender.ID,
		Content:   content,
		Timestamp: time.Now(),
	}

	saved, err := c.repo.AppendMessage(ctx, conv.ID, msg)
	if err != nil {
		return nil, err
	}

	if err = c.repo.CountOwnMessage(ctx, conv.ID, sender.ID, saved.Seq); err != nil {
		c.log.With(
			sl.Err(err),
			slog.String("conversation", conv.ID.Hex()),
		).Warn("own message not counted")
	}

	conv.Seq = saved.Seq
	if saved.Timestamp.After(conv.LastActivity) {
		conv.LastActivity = saved.Timestamp
	}
	conv.Messages = append(conv.Messages, *saved)

	c.log.With(
		slog.String("conversation", conv.ID.Hex()),
		slog.String("kind", conv.Kind),
		slog.Int64("seq", saved.Seq),
		slog.String("sender", sender.Username),
	).Debug("message appended")

	return saved, nil
}

// notify hands the event to the realtime layer. Delivery is best effort.
func (c *Core) notify(event entity.NewMessageEvent) {
	if c.notifier == nil {
		return
	}
	c.notifier.NotifyNewMessage(event)
}

func senderView(user *entity.UserAuth, isMe bool) entity.SenderView {
	return entity.SenderView{
		ID:   user.ID,
		Name: user.Name,
		Role: user.Role,
		IsMe: isMe,
	}
}

func newMessageView(msg *entity.Message, sender entity.SenderView) entity.MessageView {
	return entity.MessageView{
		ID:        msg.ID,
		Seq:       msg.Seq,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		IsRead:    false,
		Sender:    sender,
	}
}
