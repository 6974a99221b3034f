package user

import (
	"log/slog"
	"net/http"

	"danceschool/entity"
	"danceschool/internal/lib/api/response"
	"danceschool/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

func Login(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.user")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("auth service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Auth service not available"))
			return
		}

		var req entity.LoginRequest
		if err := render.Bind(r, &req); err != nil {
			response.RenderBindError(w, r, logger, "invalid login", err)
			return
		}

		logger = logger.With(slog.String("username", req.Username))

		token, err := handler.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			response.RenderError(w, r, logger, "login", err)
			return
		}

		render.JSON(w, r, response.Ok(token))
	}
}
