package core

import (
	"context"
	"fmt"
	"log/slog"

	"danceschool/entity"
	"danceschool/internal/lib/sl"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Repository interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]entity.User, error)
	GetAdmins(ctx context.Context) ([]entity.User, error)
	GetActiveUsersExcept(ctx context.Context, id primitive.ObjectID) ([]entity.User, error)

	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*entity.Group, error)
	GetGroupsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]entity.Group, error)
	GetGroupsByTeacher(ctx context.Context, teacherID primitive.ObjectID) ([]entity.Group, error)

	FindOrCreateConversation(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error)
	GetConversation(ctx context.Context, id primitive.ObjectID) (*entity.Conversation, error)
	SetParticipants(ctx context.Context, id primitive.ObjectID, participants []primitive.ObjectID) error
	SetConversationActive(ctx context.Context, id primitive.ObjectID, active bool) error
	AppendMessage(ctx context.Context, id primitive.ObjectID, msg entity.Message) (*entity.Message, error)
	FindConversations(ctx context.Context, filter entity.ConversationFilter) ([]entity.Conversation, error)

	AdvanceReadMarker(ctx context.Context, conversationID, userID primitive.ObjectID, seq, own int64) error
	CountOwnMessage(ctx context.Context, conversationID, userID primitive.ObjectID, seq int64) error
	GetReadMarkers(ctx context.Context, userID primitive.ObjectID, conversationIDs []primitive.ObjectID) (map[primitive.ObjectID]entity.ReadMarker, error)
	GetConversationMarkers(ctx context.Context, conversationID primitive.ObjectID) ([]entity.ReadMarker, error)
}

// Notifier pushes persisted messages to realtime subscribers. It must not block.
type Notifier interface {
	NotifyNewMessage(event entity.NewMessageEvent)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*entity.AuthToken, error)
	AuthenticateByToken(token string) (*entity.UserAuth, error)
	Register(ctx context.Context, username, password, name, role, phone string) (*entity.User, error)
}

type Core struct {
	repo        Repository
	notifier    Notifier
	authService AuthService
	log         *slog.Logger
}

func New(log *slog.Logger) *Core {
	return &Core{
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetRepository(repo Repository) {
	c.repo = repo
}

func (c *Core) SetNotifier(notifier Notifier) {
	c.notifier = notifier
}

func (c *Core) SetAuthService(auth AuthService) {
	c.authService = auth
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health pings the repository when it supports it.
func (c *Core) Health(ctx context.Context) error {
	if c.repo == nil {
		return fmt.Errorf("repository not set")
	}
	if p, ok := c.repo.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
