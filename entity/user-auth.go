package entity

import "go.mongodb.org/mongo-driver/bson/primitive"

// UserAuth is the authenticated requester attached to the request context.
type UserAuth struct {
	ID       primitive.ObjectID `json:"id"`
	Username string             `json:"username"`
	Name     string             `json:"name"`
	Role     string             `json:"role"`
}

func (u *UserAuth) IsAdmin() bool {
	return u.Role == AdminRole
}

// AuthToken is returned after a successful login.
type AuthToken struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}
