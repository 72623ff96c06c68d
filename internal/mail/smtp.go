package mail

import (
	"context"
	"fmt"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"gopkg.in/gomail.v2"
)

// SMTP sends messages through an SMTP relay.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var _ Sender = (*SMTP)(nil)

// NewSMTP creates a sender that authenticates as username.
func NewSMTP(host string, port int, username, password string) *SMTP {
	return &SMTP{Host: host, Port: port, Username: username, Password: password, From: username}
}

// Send delivers msg. gomail has no context support, so a cancelled ctx only
// stops the caller from waiting.
func (s *SMTP) Send(ctx context.Context, msg models.Message) error {
	const op = "mail.SMTP.Send"

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	dialer := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)

	errc := make(chan error, 1)
	go func() { errc <- dialer.DialAndSend(m) }()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}
