package user

import (
	"log/slog"
	"net/http"

	"danceschool/entity"
	"danceschool/internal/lib/api/cont"
	"danceschool/internal/lib/api/response"
	"danceschool/internal/lib/sl"

	"github.com/go-chi/render"
)

// GetUser returns the authenticated requester.
func GetUser(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := cont.GetUser(r.Context())
		if user == nil {
			response.RenderError(w, r, log.With(sl.Module("http.handlers.user")), "no user in context", entity.ErrUnauthorized)
			return
		}

		render.JSON(w, r, response.Ok(entity.UserProfile{
			ID:       user.ID,
			Name:     user.Name,
			Username: user.Username,
			Role:     user.Role,
		}))
	}
}
