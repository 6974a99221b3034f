package user

import (
	"context"

	"danceschool/entity"
)

type Core interface {
	Login(ctx context.Context, username, password string) (*entity.AuthToken, error)
	RegisterUser(ctx context.Context, requester *entity.UserAuth, username, password, name, role, phone string) (*entity.UserProfile, error)
}
