package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"danceschool/internal/lib/api/response"
	"danceschool/internal/lib/sl"

	"github.com/go-chi/render"
)

type Core interface {
	Health(ctx context.Context) error
}

type status struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// Health reports whether the store answers.
func Health(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler != nil {
			if err := handler.Health(r.Context()); err != nil {
				log.With(sl.Module("http.handlers.health")).Error("health check", sl.Err(err))
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("Store unavailable"))
				return
			}
		}
		render.JSON(w, r, response.Ok(status{Status: "ok", Time: time.Now()}))
	}
}
