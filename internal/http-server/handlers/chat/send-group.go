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

func SendGroupMessage(log *slog.Logger, handler Core) http.HandlerFunc {
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

		var req entity.MessageRequest
		if err = render.Bind(r, &req); err != nil {
			response.RenderBindError(w, r, logger, "invalid message", err)
			return
		}

		logger = logger.With(
			slog.String("group", groupID.Hex()),
			slog.String("user", user.Username),
		)

		msg, err := handler.SendGroupMessage(r.Context(), user, groupID, req.Content)
		if err != nil {
			response.RenderError(w, r, logger, "send group message", err)
			return
		}
		logger.With(slog.Int64("seq", msg.Seq)).Debug("group message sent")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(msg))
	}
}
