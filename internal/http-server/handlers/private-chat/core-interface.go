package privatechat

import (
	"context"

	"danceschool/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Core interface {
	GetDirectConversation(ctx context.Context, user *entity.UserAuth, partnerID primitive.ObjectID) (*entity.ConversationView, error)
	SendDirectMessage(ctx context.Context, user *entity.UserAuth, partnerID primitive.ObjectID, content string) (*entity.MessageView, error)
	ListDirectConversations(ctx context.Context, user *entity.UserAuth) ([]entity.ConversationSummary, error)
	ListChatCandidates(ctx context.Context, user *entity.UserAuth) ([]entity.UserProfile, error)
}
