package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TeacherRole = "teacher"
	AdminRole   = "admin"
)

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	Name         string             `json:"name" bson:"name"`
	Role         string             `json:"role" bson:"role"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	PasswordHash string             `json:"-" bson:"password"`
	IsActive     *bool              `json:"isActive,omitempty" bson:"isActive,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// UserProfile is the public part of a user rendered next to messages and chats.
type UserProfile struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	Name     string             `json:"name" bson:"name"`
	Username string             `json:"username" bson:"username"`
	Role     string             `json:"role" bson:"role"`
}

func NewUser(username, name, role string) *User {
	active := true
	return &User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Name:      name,
		Role:      role,
		IsActive:  &active,
		CreatedAt: time.Now(),
	}
}

// Active treats a missing flag as active, matching records created before the flag existed.
func (u *User) Active() bool {
	return u.IsActive == nil || *u.IsActive
}

func (u *User) IsAdmin() bool {
	return u.Role == AdminRole
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Role:     u.Role,
	}
}

func (u *User) Auth() *UserAuth {
	return &UserAuth{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Role:     u.Role,
	}
}

func IsValidRole(role string) bool {
	return role == TeacherRole || role == AdminRole
}
