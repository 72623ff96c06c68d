package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/isdelr/finance-tracker-be/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	resetSentMessage      = "Password reset link sent to your email"
	resetConcealedMessage = "If an account exists for that email, a password reset link has been sent"
)

// AuthHandler handles HTTP requests for accounts, sessions and password resets.
type AuthHandler struct {
	users               services.UserServiceProvider
	resets              services.PasswordResetProvider
	google              services.GoogleLoginProvider
	concealUnknownEmail bool
}

// NewAuthHandler creates a new AuthHandler. When concealUnknownEmail is set,
// forgot-password answers unknown addresses exactly like known ones.
func NewAuthHandler(users services.UserServiceProvider, resets services.PasswordResetProvider, google services.GoogleLoginProvider, concealUnknownEmail bool) *AuthHandler {
	return &AuthHandler{
		users:               users,
		resets:              resets,
		google:              google,
		concealUnknownEmail: concealUnknownEmail,
	}
}

// SignupPayload defines the structure for registration requests.
type SignupPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfilePayload defines the structure for profile updates.
type ProfilePayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// GooglePayload carries the access token obtained by the client.
type GooglePayload struct {
	Token string `json:"token" validate:"required"`
}

// ForgotPasswordPayload defines the structure for reset requests.
type ForgotPasswordPayload struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordPayload defines the structure for completing a reset.
type ResetPasswordPayload struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

type authResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    models.UserView `json:"user"`
}

type userResponse struct {
	User    models.UserView `json:"user"`
	Message string          `json:"message,omitempty"`
}

// Signup handles new user registration.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	result, err := h.users.Signup(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	respondJSON(w, r, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   result.Token,
		User:    result.User.View(),
	})
}

// Login handles user authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	result, err := h.users.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("email", storage.NormalizeEmail(payload.Email)).Msg("Failed login attempt")
		}
		writeError(w, r, err, "")
		return
	}

	respondJSON(w, r, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User.View(),
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.CurrentUser(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}
	respondJSON(w, r, http.StatusOK, userResponse{User: user.View()})
}

// UpdateProfile changes the authenticated user's name and email.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var payload ProfilePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), auth.UserIDFromContext(r.Context()), payload.Name, payload.Email)
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}
	respondJSON(w, r, http.StatusOK, userResponse{User: user.View(), Message: "Profile updated successfully"})
}

// Google signs a user in with a Google access token.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var payload GooglePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	result, err := h.google.Login(r.Context(), payload.Token)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	respondJSON(w, r, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User.View(),
	})
}

// ForgotPassword emails a reset link.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload ForgotPasswordPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	err := h.resets.RequestReset(r.Context(), payload.Email)
	switch {
	case err == nil && h.concealUnknownEmail:
		respondMessage(w, r, http.StatusOK, resetConcealedMessage)
	case err == nil:
		respondMessage(w, r, http.StatusOK, resetSentMessage)
	case errors.Is(err, storage.ErrNotFound) && h.concealUnknownEmail:
		respondMessage(w, r, http.StatusOK, resetConcealedMessage)
	default:
		writeError(w, r, err, "User not found")
	}
}

// ResetPassword consumes a reset token and sets the new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload ResetPasswordPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	if err := h.resets.CompleteReset(r.Context(), payload.Token, payload.NewPassword); err != nil {
		writeError(w, r, err, "")
		return
	}
	respondMessage(w, r, http.StatusOK, "Password has been reset successfully")
}
