package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names in messages.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// messageResponse is the body of every error and of plain acknowledgements.
type messageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, messageResponse{Message: msg})
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields,
// then applies the struct's validate tags.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &services.ValidationError{Msg: describeDecodeError(err)}
	}
	if dec.More() {
		return &services.ValidationError{Msg: "Request body must contain a single JSON object"}
	}
	if err := validate.Struct(dst); err != nil {
		return &services.ValidationError{Msg: describeValidationError(err)}
	}
	return nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "Request body is required"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("Field %s has the wrong type", typeErr.Field)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return "Invalid request body"
	}
}

func describeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must have at most %s entries", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", field, map[string]string{"gt": "greater than", "gte": "at least"}[fe.Tag()], fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "hexcolor":
		return field + " must be a hex color"
	default:
		return field + " is invalid"
	}
}

// writeError maps service errors onto HTTP answers. notFound is the message
// used when the resource does not exist.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondMessage(w, r, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, services.ErrValidation):
		respondMessage(w, r, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondMessage(w, r, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrIdentityExchange):
		respondMessage(w, r, http.StatusUnauthorized, "Authentication failed")
	case errors.Is(err, services.ErrForbidden):
		respondMessage(w, r, http.StatusForbidden, "Not authorized")
	case errors.Is(err, storage.ErrNotFound):
		respondMessage(w, r, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrConflict):
		respondMessage(w, r, http.StatusConflict, "User already exists with this email")
	case errors.Is(err, services.ErrInvalidResetToken):
		respondMessage(w, r, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, services.ErrDeliveryFailed):
		logServerError(r, err)
		respondMessage(w, r, http.StatusInternalServerError, "Failed to send reset email")
	case errors.Is(err, services.ErrResetUnavailable):
		respondMessage(w, r, http.StatusServiceUnavailable, "Password reset is not available")
	case errors.Is(err, services.ErrAssistantUnavailable):
		respondMessage(w, r, http.StatusServiceUnavailable, "AI assistant is not configured")
	case errors.Is(err, services.ErrAssistantFailed):
		logServerError(r, err)
		respondMessage(w, r, http.StatusInternalServerError, "Failed to get a response from the assistant")
	default:
		logServerError(r, err)
		respondMessage(w, r, http.StatusInternalServerError, "Server error")
	}
}

func logServerError(r *http.Request, err error) {
	log.Error().Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Request failed")
}
