package response

import (
	"errors"
	"log/slog"
	"net/http"

	"danceschool/internal/lib/sl"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// RenderError writes err as a JSON error response. Server errors are logged with
// their detail while the client only gets a generic message.
func RenderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	status, resp := FromError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, sl.Err(err))
	} else {
		logger.With(sl.Err(err), slog.Int("status", status)).Debug(msg)
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// RenderBindError answers a failed render.Bind: field errors become a validation
// response, anything else means the body could not be decoded.
func RenderBindError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		RenderError(w, r, logger, msg, err)
		return
	}
	logger.Debug("failed to decode request body", sl.Err(err))
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error("Invalid request body"))
}
