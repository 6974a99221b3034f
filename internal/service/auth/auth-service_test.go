package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"danceschool/entity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*entity.User
	err   error
}

func newUserStore() *userStore {
	return &userStore{users: make(map[primitive.ObjectID]*entity.User)}
}

func (s *userStore) GetUserByID(_ context.Context, id primitive.ObjectID) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *userStore) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *userStore) CreateUser(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return entity.ErrValidation
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userStore) CountUsers(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func newTestService(t *testing.T) (*Service, *userStore) {
	t.Helper()
	store := newUserStore()
	s := NewAuthService("test-secret", time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetRepository(store)
	return s, store
}

func TestLoginAndAuthenticate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "maria", "secret1", "Maria", entity.TeacherRole, "+3800000")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	token, err := s.Login(ctx, "maria", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, user.ID, token.User.ID)

	claims, err := s.ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, entity.TeacherRole, claims.Role)

	auth, err := s.AuthenticateByToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, auth.ID)
	assert.Equal(t, "Maria", auth.Name)
	assert.False(t, auth.IsAdmin())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "maria", "secret1", "Maria", "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.TeacherRole, user.Role)

	_, err = s.Login(ctx, "maria", "wrong")
	assert.True(t, errors.Is(err, entity.ErrUnauthorized))

	_, err = s.Login(ctx, "nobody", "secret1")
	assert.True(t, errors.Is(err, entity.ErrUnauthorized))

	_, err = s.Login(ctx, "", "")
	assert.True(t, errors.Is(err, entity.ErrValidation))

	inactive := false
	store.users[user.ID].IsActive = &inactive
	_, err = s.Login(ctx, "maria", "secret1")
	assert.True(t, errors.Is(err, entity.ErrUnauthorized))
}

func TestTokenRejectedAfterDeactivation(t *testing.T) {
	s, store := newTestService(t)
	user, err := s.Register(context.Background(), "maria", "secret1", "Maria", entity.TeacherRole, "")
	require.NoError(t, err)

	token, err := s.IssueToken(user)
	require.NoError(t, err)

	inactive := false
	store.users[user.ID].IsActive = &inactive
	_, err = s.AuthenticateByToken(token)
	assert.True(t, errors.Is(err, entity.ErrUnauthorized))
}

func TestParseTokenRejectsForgedAndExpired(t *testing.T) {
	s, _ := newTestService(t)
	user := entity.NewUser("maria", "Maria", entity.TeacherRole)

	other := NewAuthService("other-secret", time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	forged, err := other.IssueToken(user)
	require.NoError(t, err)
	_, err = s.ParseToken(forged)
	assert.True(t, errors.Is(err, entity.ErrUnauthorized))

	expired := NewAuthService("test-secret", -time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	old, err := expired.IssueToken(user)
	require.NoError(t, err)
	_, err = s.ParseToken(old)
	assert.True(t, errors.Is(err, entity.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: user.ID.Hex()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.ParseToken(unsigned)
	assert.True(t, errors.Is(err, entity.ErrUnauthorized))

	_, err = s.ParseToken("garbage")
	assert.True(t, errors.Is(err, entity.ErrUnauthorized))
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "maria", "secret1", "Maria", "student", "")
	assert.True(t, errors.Is(err, entity.ErrValidation))

	_, err = s.Register(ctx, " ", "secret1", "Maria", entity.TeacherRole, "")
	assert.True(t, errors.Is(err, entity.ErrValidation))
}

func TestBootstrapCreatesAdminOnce(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.Bootstrap(ctx, "admin", "changeme", "Administrator"))
	require.NoError(t, s.Bootstrap(ctx, "admin2", "changeme", "Administrator"))

	assert.Len(t, store.users, 1)
	admin, err := store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.IsAdmin())

	require.NoError(t, s.Bootstrap(ctx, "", "", ""))
}

func TestAuthenticateStoreFailureIsNotUnauthorized(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "maria", "secret1", "Maria", entity.TeacherRole, "")
	require.NoError(t, err)
	token, err := s.IssueToken(user)
	require.NoError(t, err)

	store.mu.Lock()
	store.err = errors.New("connection refused")
	store.mu.Unlock()

	_, err = s.AuthenticateByToken(token)
	require.Error(t, err)
	assert.False(t, errors.Is(err, entity.ErrUnauthorized))
	assert.Contains(t, err.Error(), "connection refused")
}
