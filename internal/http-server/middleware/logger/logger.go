package logger

import (
	"log/slog"
	"net/http"
	"time"

	"danceschool/internal/lib/api/cont"
	"danceschool/internal/lib/sl"

	"github.com/go-chi/chi/v5/middleware"
)

// New logs every request once it is served, with the authenticated user when there is one.
func New(log *slog.Logger) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.logger")

	return func(next http.Handler) http.Handler {

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := middleware.GetReqID(r.Context())
			remote := r.RemoteAddr
			// if the request is coming from a proxy, use the X-Forwarded-For header
			if xRemote := r.Header.Get("X-Forwarded-For"); xRemote != "" {
				remote = xRemote
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Request-ID", id)

			// the authenticate middleware runs deeper in the chain, so the user is read back
			// from a holder shared through the request context
			holder := &cont.Holder{}
			r = r.WithContext(cont.PutHolder(r.Context(), holder))

			t1 := time.Now()
			defer func() {
				logger := log.With(
					mod,
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", remote),
					slog.String("request_id", id),
					slog.Int("status", ww.Status()),
					slog.Int("size", ww.BytesWritten()),
					slog.Float64("duration", time.Since(t1).Seconds()),
				)
				if holder.User != nil {
					logger = logger.With(slog.String("user", holder.User.Username))
				}
				logger.Info("incoming request")
			}()

			next.ServeHTTP(ww, r)
		}

		return http.HandlerFunc(fn)
	}
}
