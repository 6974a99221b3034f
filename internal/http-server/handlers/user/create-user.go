package user

import (
	"log/slog"
	"net/http"

	"danceschool/entity"
	"danceschool/internal/lib/api/cont"
	"danceschool/internal/lib/api/response"
	"danceschool/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// CreateUser registers a teacher or admin account. Only admins may call it.
func CreateUser(log *slog.Logger, handler Core) http.HandlerFunc {
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

		requester := cont.GetUser(r.Context())
		if requester == nil {
			response.RenderError(w, r, logger, "no user in context", entity.ErrUnauthorized)
			return
		}

		var req entity.RegisterRequest
		if err := render.Bind(r, &req); err != nil {
			response.RenderBindError(w, r, logger, "invalid registration", err)
			return
		}

		profile, err := handler.RegisterUser(r.Context(), requester, req.Username, req.Password, req.Name, req.Role, req.Phone)
		if err != nil {
			response.RenderError(w, r, logger, "register user", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.Ok(profile))
	}
}
