package entity

import (
	"net/http"
	"strings"

	"danceschool/internal/lib/validate"
)

type MessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// Bind trims the content before checking it, so whitespace-only messages are rejected.
func (m *MessageRequest) Bind(_ *http.Request) error {
	m.Content = strings.TrimSpace(m.Content)
	return validate.Struct(m)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (l *LoginRequest) Bind(_ *http.Request) error {
	l.Username = strings.TrimSpace(l.Username)
	return validate.Struct(l)
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=teacher admin"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

func (rr *RegisterRequest) Bind(_ *http.Request) error {
	rr.Username = strings.TrimSpace(rr.Username)
	rr.Name = strings.TrimSpace(rr.Name)
	return validate.Struct(rr)
}
