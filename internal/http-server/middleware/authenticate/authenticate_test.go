package authenticate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"danceschool/entity"
	"danceschool/internal/lib/api/cont"
	"danceschool/internal/lib/api/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc.def":  "abc.def",
		"bearer abc":      "abc",
		"  Bearer  abc  ": "abc",
		"Bearer":          "",
		"Basic abc":       "",
		"":                "",
	}
	for header, want := range cases {
		assert.Equal(t, want, bearerToken(header), header)
	}
}

type stubAuth struct {
	user *entity.UserAuth
	err  error
}

func (s stubAuth) AuthenticateByToken(_ string) (*entity.UserAuth, error) {
	return s.user, s.err
}

func serve(t *testing.T, auth Authenticate, header string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		require.NotNil(t, user)
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/chat/my-chats", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	New(log, auth)(next).ServeHTTP(rec, req)
	if rec.Code == http.StatusNoContent {
		return rec, response.Response{}
	}

	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestAuthenticate(t *testing.T) {
	user := &entity.UserAuth{ID: primitive.NewObjectID(), Username: "maria", Role: entity.TeacherRole}

	rec, _ := serve(t, stubAuth{user: user}, "Bearer good")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "maria", rec.Header().Get("X-User"))

	rec, body := serve(t, stubAuth{user: user}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token, authorization denied", body.Message)

	rec, body = serve(t, stubAuth{err: fmt.Errorf("%w: token expired", entity.ErrUnauthorized)}, "Bearer old")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is not valid", body.Message)
}

func TestAuthenticateStoreFailureIsServerError(t *testing.T) {
	rec, body := serve(t, stubAuth{err: fmt.Errorf("load token user: %w", errors.New("server selection timeout"))}, "Bearer good")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Server error", body.Message)
}
