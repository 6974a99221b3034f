package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"danceschool/entity"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Data    interface{}  `json:"data,omitempty"`
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:    data,
		Success: true,
	}
}

func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	fields := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		fields = append(fields, FieldError{
			Field:   lowerFirst(err.Field()),
			Message: fieldMessage(err),
		})
	}
	return Response{
		Success: false,
		Message: "Validation failed",
		Errors:  fields,
	}
}

// FromError maps a domain error to the status and body sent to the client.
// Anything not recognized is reported as a generic server error.
func FromError(err error) (int, Response) {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ValidationError(verr)
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest, Error(err.Error())
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, Error(err.Error())
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden, Error(err.Error())
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized, Error(err.Error())
	default:
		return http.StatusInternalServerError, Error("Server error")
	}
}

func fieldMessage(err validator.FieldError) string {
	name := lowerFirst(err.Field())
	switch err.Tag() {
	case "required":
		if name == "content" {
			return "Message content is required"
		}
		return fmt.Sprintf("%s is required", name)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, err.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, err.Param())
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
