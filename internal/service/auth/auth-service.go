package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"danceschool/entity"
	"danceschool/internal/lib/sl"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const lookupTimeout = 5 * time.Second

type Repository interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) error
	CountUsers(ctx context.Context) (int64, error)
}

// Claims carried by issued tokens.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	repository Repository
	secret     []byte
	ttl        time.Duration
	log        *slog.Logger
}

func NewAuthService(secret string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		log:    logger.With(sl.Module("auth-service")),
	}
}

func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

// Login checks the credentials and issues a signed token.
// Unknown users and wrong passwords are reported the same way.
func (s *Service) Login(ctx context.Context, username, password string) (*entity.AuthToken, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", entity.ErrValidation)
	}

	user, err := s.repository.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active() {
		s.log.With(slog.String("username", username)).Debug("login refused")
		return nil, fmt.Errorf("%w: invalid credentials", entity.ErrUnauthorized)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.With(slog.String("username", username)).Debug("wrong password")
		return nil, fmt.Errorf("%w: invalid credentials", entity.ErrUnauthorized)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.With(
		slog.String("username", user.Username),
		slog.String("role", user.Role),
	).Info("user logged in")

	return &entity.AuthToken{
		Token: token,
		User:  user.Profile(),
	}, nil
}

func (s *Service) IssueToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", entity.ErrUnauthorized)
	}
	return claims, nil
}

// AuthenticateByToken resolves a bearer token to the current state of its user.
// Role changes and deactivation take effect without waiting for the token to expire.
func (s *Service) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", entity.ErrUnauthorized)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	user, err := s.repository.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load token user: %w", err)
	}
	if user == nil || !user.Active() {
		return nil, fmt.Errorf("%w: user not found", entity.ErrUnauthorized)
	}
	return user.Auth(), nil
}

func (s *Service) Register(ctx context.Context, username, password, name, role, phone string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	name = strings.TrimSpace(name)
	if username == "" || password == "" || name == "" {
		return nil, fmt.Errorf("%w: username, password and name are required", entity.ErrValidation)
	}
	if role == "" {
		role = entity.TeacherRole
	}
	if !entity.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", entity.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := entity.NewUser(username, name, role)
	user.Phone = strings.TrimSpace(phone)
	user.PasswordHash = string(hash)

	if err = s.repository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Bootstrap creates the first admin account on an empty user collection.
func (s *Service) Bootstrap(ctx context.Context, username, password, name string) error {
	if username == "" || password == "" {
		return nil
	}

	count, err := s.repository.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user, err := s.Register(ctx, username, password, name, entity.AdminRole, "")
	if errors.Is(err, entity.ErrValidation) {
		// another instance won the race
		s.log.With(sl.Err(err)).Debug("bootstrap admin skipped")
		return nil
	}
	if err != nil {
		return err
	}

	s.log.With(
		slog.String("username", user.Username),
	).Info("bootstrap admin created")
	return nil
}
