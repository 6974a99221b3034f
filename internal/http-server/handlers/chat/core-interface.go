package chat

import (
	"context"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Core interface {
	GetGroupConversation(ctx context.Context, user *entity.UserAuth, groupID primitive.ObjectID) (*entity.ConversationView, error)
	SendGroupMessage(ctx context.Context, user *entity.UserAuth, groupID primitive.ObjectID, content string) (*entity.MessageView, error)
	MarkGroupMessageRead(ctx context.Context, user *entity.UserAuth, groupID, messageID primitive.ObjectID) error
	ListGroupConversations(ctx context.Context, user *entity.UserAuth) ([]entity.ConversationSummary, error)
	ListConversations(ctx context.Context, user *entity.UserAuth) ([]entity.ConversationSummary, error)
}
