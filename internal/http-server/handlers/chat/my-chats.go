package chat

import (
	"context"
	"log/slog"
	"net/http"

	"danceschool/entity"
	"danceschool/internal/lib/api/cont"
	"danceschool/internal/lib/api/response"
	"danceschool/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type listFunc func(ctx context.Context, user *entity.UserAuth) ([]entity.ConversationSummary, error)

// MyChats lists the group chats visible to the requester.
func MyChats(log *slog.Logger, handler Core) http.HandlerFunc {
	if handler == nil {
		return list(log, nil)
	}
	return list(log, handler.ListGroupConversations)
}

// Conversations lists group and direct chats together, newest activity first.
func Conversations(log *slog.Logger, handler Core) http.HandlerFunc {
	if handler == nil {
		return list(log, nil)
	}
	return list(log, handler.ListConversations)
}

func list(log *slog.Logger, fn listFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if fn == nil {
			logger.Error("chat service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Chat service not available"))
			return
		}

		user := cont.GetUser(r.Context())
		if user == nil {
			response.RenderError(w, r, logger, "no user in context", entity.ErrUnauthorized)
			return
		}

		chats, err := fn(r.Context(), user)
		if err != nil {
			response.RenderError(w, r, logger, "list chats", err)
			return
		}
		logger.With(
			slog.String("user", user.Username),
			slog.Int("count", len(chats)),
		).Debug("chats listed")

		render.JSON(w, r, response.Ok(chats))
	}
}
