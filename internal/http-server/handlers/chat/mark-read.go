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

func MarkMessageRead(log *slog.Logger, handler Core) http.HandlerFunc {
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
		messageID, err := param.ObjectID(r, "messageId")
		if err != nil {
			response.RenderError(w, r, logger, "bad message id", err)
			return
		}

		if err = handler.MarkGroupMessageRead(r.Context(), user, groupID, messageID); err != nil {
			response.RenderError(w, r, logger, "mark message read", err)
			return
		}

		render.JSON(w, r, response.Ok("Message marked as read"))
	}
}
