package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"
)

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// SessionChecker decides whether a verified session token is still honored,
// e.g. after a password change.
type SessionChecker interface {
	SessionValid(ctx context.Context, claims *Claims) (bool, error)
}

// Middleware rejects requests without a valid session bearer token.
func Middleware(tokens *TokenManager, checker SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, r, "No token, authorization denied")
				return
			}

			claims, err := tokens.Verify(tokenStr, PurposeSession)
			if err != nil {
				unauthorized(w, r, "Token is not valid")
				return
			}

			if checker != nil {
				valid, err := checker.SessionValid(r.Context(), claims)
				if err != nil {
					log.Error().Err(err).Str("user_id", claims.Subject).Msg("Failed to check session")
					render.Status(r, http.StatusInternalServerError)
					render.JSON(w, r, map[string]string{"message": "Server error"})
					return
				}
				if !valid {
					unauthorized(w, r, "Token is not valid")
					return
				}
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// ClaimsFromContext returns the claims placed by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user id, or "" when absent.
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"message": msg})
}
