package models

// MessageKindPasswordReset marks a message carrying a password reset link.
const MessageKindPasswordReset = "password_reset"

// Message is an outbound email, either sent directly or queued for the mailer.
// UserID and ResetToken let the mailer withdraw a reset it could not deliver.
type Message struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Kind       string `json:"kind,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	ResetToken string `json:"reset_token,omitempty"`
}
