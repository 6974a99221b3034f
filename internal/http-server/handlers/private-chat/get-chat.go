package privatechat

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

func GetChat(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.private-chat")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("private chat service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Private chat service not available"))
			return
		}

		user := cont.GetUser(r.Context())
		if user == nil {
			response.RenderError(w, r, logger, "no user in context", entity.ErrUnauthorized)
			return
		}

		partnerID, err := param.ObjectID(r, "partnerId")
		if err != nil {
			response.RenderError(w, r, logger, "bad partner id", err)
			return
		}
		logger = logger.With(
			slog.String("user", user.Username),
			slog.String("partner", partnerID.Hex()),
		)

		view, err := handler.GetDirectConversation(r.Context(), user, partnerID)
		if err != nil {
			response.RenderError(w, r, logger, "get private chat", err)
			return
		}
		logger.With(slog.Int("messages", len(view.Messages))).Debug("private chat opened")

		render.JSON(w, r, response.Ok(view))
	}
}
