package chat

import (
	"log/slog"
	"net/http"

	"danceschool/entity"
	"danceschool/internal/lib/api/cont"
	"danceschool/internal/lib/api/param"
	"danceschool/internal/lib/api/response"
	"danceschool/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// GetGroupChat opens the chat of a group and marks it read for the requester.
func GetGroupChat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.chat")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
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

		groupID, err := param.ObjectID(r, "groupId")
		if err != nil {
			response.RenderError(w, r, logger, "bad group id", err)
			return
		}
		logger = logger.With(
			slog.String("group", groupID.Hex()),
			slog.String("user", user.Username),
		)

		view, err := handler.GetGroupConversation(r.Context(), user, groupID)
		if err != nil {
			response.RenderError(w, r, logger, "get group chat", err)
			return
		}
		logger.With(slog.Int("messages", len(view.Messages))).Debug("group chat opened")

		render.JSON(w, r, response.Ok(view))
	}
}
