package core

import (
	"context"
	"fmt"
	"log/slog"

	"danceschool/entity"
	"danceschool/internal/lib/access"
)

func (c *Core) Login(ctx context.Context, username, password string) (*entity.AuthToken, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("auth service not available")
	}
	return c.authService.Login(ctx, username, password)
}

func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if c.authService == nil {
		return nil, fmt.Errorf("auth service not available")
	}
	return c.authService.AuthenticateByToken(token)
}

func (c *Core) RegisterUser(ctx context.Context, requester *entity.UserAuth, username, password, name, role, phone string) (*entity.UserProfile, error) {
	if err := access.CanRegisterUsers(requester).Err(); err != nil {
		return nil, err
	}
	if c.authService == nil {
		return nil, fmt.Errorf("auth service not available")
	}

	user, err := c.authService.Register(ctx, username, password, name, role, phone)
	if err != nil {
		return nil, err
	}

	c.log.With(
		slog.String("username", user.Username),
		slog.String("role", user.Role),
		slog.String("by", requester.Username),
	).Info("user registered")

	profile := user.Profile()
	return &profile, nil
}
