package cont

import (
	"context"

	"danceschool/entity"
)

type ctxKey string

const (
	userKey   ctxKey = "user"
	holderKey ctxKey = "holder"
)

// Holder lets outer middleware see the user authenticated further down the chain.
type Holder struct {
	User *entity.UserAuth
}

func PutHolder(ctx context.Context, h *Holder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

func PutUser(ctx context.Context, user *entity.UserAuth) context.Context {
	if h, ok := ctx.Value(holderKey).(*Holder); ok {
		h.User = user
	}
	return context.WithValue(ctx, userKey, user)
}

func GetUser(ctx context.Context) *entity.UserAuth {
	user, ok := ctx.Value(userKey).(*entity.UserAuth)
	if !ok {
		return nil
	}
	return user
}
