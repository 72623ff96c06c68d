package mail

import (
	"context"
	"testing"
	"time"

	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDisabledSender(t *testing.T) {
	err := Disabled{}.Send(context.Background(), models.Message{To: "a@example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestResetPasswordMessage(t *testing.T) {
	user := models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	msg := ResetPasswordMessage(user, "abc", "http://localhost:5173/")

	assert.Equal(t, "ada@example.com", msg.To)
	assert.NotEmpty(t, msg.Subject)
	assert.Contains(t, msg.Body, "http://localhost:5173/reset-password/abc")
	assert.Contains(t, msg.Body, "Ada")
	assert.Equal(t, models.MessageKindPasswordReset, msg.Kind)
	assert.Equal(t, "u1", msg.UserID)
	assert.Equal(t, "abc", msg.ResetToken)
}

func TestSMTPSendHonorsContext(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation and never answers.
	s := NewSMTP("192.0.2.1", 25, "user", "pass")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.Send(ctx, models.Message{To: "a@example.com", Subject: "s", Body: "b"})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
