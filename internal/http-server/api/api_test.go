package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"danceschool/entity"
	"danceschool/internal/config"
	"danceschool/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubHandler struct {
	user     *entity.UserAuth
	groupErr error
	sent     []string
}

func (s *stubHandler) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token != "good" {
		return nil, entity.ErrUnauthorized
	}
	return s.user, nil
}

func (s *stubHandler) GetGroupConversation(_ context.Context, _ *entity.UserAuth, groupID primitive.ObjectID) (*entity.ConversationView, error) {
	if s.groupErr != nil {
		return nil, s.groupErr
	}
	return &entity.ConversationView{ID: groupID, Kind: entity.GroupConversation, Messages: []entity.MessageView{}}, nil
}

func (s *stubHandler) SendGroupMessage(_ context.Context, user *entity.UserAuth, _ primitive.ObjectID, content string) (*entity.MessageView, error) {
	s.sent = append(s.sent, content)
	return &entity.MessageView{ID: primitive.NewObjectID(), Seq: 1, Content: content, Sender: entity.SenderView{ID: user.ID, IsMe: true}}, nil
}

func (s *stubHandler) MarkGroupMessageRead(_ context.Context, _ *entity.UserAuth, _, _ primitive.ObjectID) error {
	return nil
}

func (s *stubHandler) ListGroupConversations(_ context.Context, _ *entity.UserAuth) ([]entity.ConversationSummary, error) {
	return []entity.ConversationSummary{}, nil
}

func (s *stubHandler) ListConversations(_ context.Context, _ *entity.UserAuth) ([]entity.ConversationSummary, error) {
	return nil, fmt.Errorf("mongodb find error: connection reset")
}

func (s *stubHandler) GetDirectConversation(_ context.Context, _ *entity.UserAuth, _ primitive.ObjectID) (*entity.ConversationView, error) {
	return nil, fmt.Errorf("partner %w", entity.ErrNotFound)
}

func (s *stubHandler) SendDirectMessage(_ context.Context, _ *entity.UserAuth, _ primitive.ObjectID, content string) (*entity.MessageView, error) {
	s.sent = append(s.sent, content)
	return &entity.MessageView{Content: content}, nil
}

func (s *stubHandler) ListDirectConversations(_ context.Context, _ *entity.UserAuth) ([]entity.ConversationSummary, error) {
	return []entity.ConversationSummary{}, nil
}

func (s *stubHandler) ListChatCandidates(_ context.Context, _ *entity.UserAuth) ([]entity.UserProfile, error) {
	return []entity.UserProfile{{ID: primitive.NewObjectID(), Name: "Anna"}}, nil
}

func (s *stubHandler) Login(_ context.Context, username, password string) (*entity.AuthToken, error) {
	if password != "secret" {
		return nil, fmt.Errorf("%w: invalid credentials", entity.ErrUnauthorized)
	}
	return &entity.AuthToken{Token: "good", User: entity.UserProfile{Username: username}}, nil
}

func (s *stubHandler) RegisterUser(_ context.Context, requester *entity.UserAuth, username, _, name, role, _ string) (*entity.UserProfile, error) {
	if !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can register users", entity.ErrForbidden)
	}
	return &entity.UserProfile{ID: primitive.NewObjectID(), Username: username, Name: name, Role: role}, nil
}

func (s *stubHandler) Health(_ context.Context) error {
	return nil
}

type body struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func newTestServer(t *testing.T, h *stubHandler) *httptest.Server {
	t.Helper()
	conf := &config.Config{}
	conf.Listen.Timeout = 5
	conf.Cors.Origins = []string{"http://localhost:3000"}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(NewRouter(conf, log, h, ws.NewHub(log)))
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, server *httptest.Server, method, path, token, payload string) (int, body) {
	t.Helper()
	var reader io.Reader
	if payload != "" {
		reader = strings.NewReader(payload)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var b body
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
	return resp.StatusCode, b
}

func teacher() *entity.UserAuth {
	return &entity.UserAuth{ID: primitive.NewObjectID(), Username: "maria", Name: "Maria", Role: entity.TeacherRole}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := newTestServer(t, &stubHandler{user: teacher()})
	groupID := primitive.NewObjectID().Hex()

	status, b := do(t, server, http.MethodGet, "/api/chat/group/"+groupID, "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, b.Success)

	status, _ = do(t, server, http.MethodGet, "/api/private-chat/chats", "bad", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, b = do(t, server, http.MethodGet, "/api/chat/group/"+groupID, "good", "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, b.Success)
}

func TestPublicRoutes(t *testing.T) {
	server := newTestServer(t, &stubHandler{user: teacher()})

	status, b := do(t, server, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, b.Success)

	status, b = do(t, server, http.MethodPost, "/api/auth/login", "", `{"username":"maria","password":"secret"}`)
	assert.Equal(t, http.StatusOK, status)
	var token entity.AuthToken
	require.NoError(t, json.Unmarshal(b.Data, &token))
	assert.Equal(t, "good", token.Token)

	status, _ = do(t, server, http.MethodPost, "/api/auth/login", "", `{"username":"maria","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, b = do(t, server, http.MethodPost, "/api/auth/login", "", `{"username":"maria"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, b.Errors, 1)
	assert.Equal(t, "password", b.Errors[0].Field)
}

func TestInvalidObjectIDIsBadRequest(t *testing.T) {
	server := newTestServer(t, &stubHandler{user: teacher()})

	status, b := do(t, server, http.MethodGet, "/api/chat/group/not-an-id", "good", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, b.Message, "groupId")

	status, _ = do(t, server, http.MethodPost, "/api/private-chat/chats/xyz/messages", "good", `{"content":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSendMessage(t *testing.T) {
	h := &stubHandler{user: teacher()}
	server := newTestServer(t, h)
	groupID := primitive.NewObjectID().Hex()

	status, b := do(t, server, http.MethodPost, "/api/chat/group/"+groupID+"/messages", "good", `{"content":"  hello  "}`)
	assert.Equal(t, http.StatusCreated, status)
	var msg entity.MessageView
	require.NoError(t, json.Unmarshal(b.Data, &msg))
	assert.Equal(t, "hello", msg.Content)
	assert.True(t, msg.Sender.IsMe)

	status, b = do(t, server, http.MethodPost, "/api/chat/group/"+groupID+"/messages", "good", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", b.Message)
	require.Len(t, b.Errors, 1)
	assert.Equal(t, "content", b.Errors[0].Field)
	assert.Equal(t, "Message content is required", b.Errors[0].Message)

	status, _ = do(t, server, http.MethodPost, "/api/chat/group/"+groupID+"/messages", "good", `{"content":`)
	assert.Equal(t, http.StatusBadRequest, status)

	partnerID := primitive.NewObjectID().Hex()
	status, _ = do(t, server, http.MethodPost, "/api/private-chat/chats/"+partnerID+"/messages", "good", `{"content":"hey"}`)
	assert.Equal(t, http.StatusCreated, status)

	assert.Equal(t, []string{"hello", "hey"}, h.sent)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	h := &stubHandler{user: teacher(), groupErr: fmt.Errorf("%w: not a teacher of this group", entity.ErrForbidden)}
	server := newTestServer(t, h)

	status, b := do(t, server, http.MethodGet, "/api/chat/group/"+primitive.NewObjectID().Hex(), "good", "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, b.Message, "not a teacher")

	status, b = do(t, server, http.MethodGet, "/api/private-chat/chats/"+primitive.NewObjectID().Hex(), "good", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "partner not found", b.Message)

	status, b = do(t, server, http.MethodGet, "/api/chat/conversations", "good", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Server error", b.Message)

	status, _ = do(t, server, http.MethodPost, "/api/auth/register", "good", `{"username":"anna","password":"secret1","name":"Anna"}`)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestListsAndProfile(t *testing.T) {
	user := teacher()
	server := newTestServer(t, &stubHandler{user: user})

	status, b := do(t, server, http.MethodGet, "/api/private-chat/chats", "good", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(b.Data))

	status, b = do(t, server, http.MethodGet, "/api/private-chat/users", "good", "")
	assert.Equal(t, http.StatusOK, status)
	var users []entity.UserProfile
	require.NoError(t, json.Unmarshal(b.Data, &users))
	assert.Len(t, users, 1)

	status, b = do(t, server, http.MethodGet, "/api/auth/me", "good", "")
	assert.Equal(t, http.StatusOK, status)
	var me entity.UserProfile
	require.NoError(t, json.Unmarshal(b.Data, &me))
	assert.Equal(t, user.ID, me.ID)

	status, _ = do(t, server, http.MethodPut, "/api/chat/group/"+primitive.NewObjectID().Hex()+"/messages/"+primitive.NewObjectID().Hex()+"/read", "good", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestUnknownRoute(t *testing.T) {
	server := newTestServer(t, &stubHandler{user: teacher()})

	status, b := do(t, server, http.MethodGet, "/api/nothing-here", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, b.Success)
}
