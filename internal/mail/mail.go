// Package mail delivers outbound email directly over SMTP or through a queue
// drained by cmd/mailer.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/finance-tracker-be/internal/models"
)

// ErrNotConfigured is returned by the sender used when no transport is set up.
var ErrNotConfigured = errors.New("mail transport is not configured")

// Sender delivers a message or hands it to a transport that will.
type Sender interface {
	Send(ctx context.Context, msg models.Message) error
}

// Disabled rejects every message.
type Disabled struct{}

// Send always fails with ErrNotConfigured.
func (Disabled) Send(context.Context, models.Message) error {
	return ErrNotConfigured
}

// ResetPasswordMessage builds the email carrying a password reset link for
// user. The link is appURL/reset-password/<token>.
func ResetPasswordMessage(user models.User, token, appURL string) models.Message {
	link := strings.TrimRight(appURL, "/") + "/reset-password/" + token
	return models.Message{
		To:      user.Email,
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password. "+
			"Open the link below within the next hour to choose a new one:\n\n%s\n\n"+
			"If you did not ask for this, you can ignore this email.\n", user.Name, link),
		Kind:       models.MessageKindPasswordReset,
		UserID:     user.ID,
		ResetToken: token,
	}
}
