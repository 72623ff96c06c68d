package mail

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/isdelr/finance-tracker-be/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

type senderFunc func(context.Context, models.Message) error

func (f senderFunc) Send(ctx context.Context, msg models.Message) error { return f(ctx, msg) }

func delivery(t *testing.T, ack *ackRecorder, msg models.Message, redelivered bool) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body, Redelivered: redelivered}
}

func TestHandleDelivery(t *testing.T) {
	msg := ResetPasswordMessage(models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}, "tok", "http://localhost:5173")
	failing := senderFunc(func(context.Context, models.Message) error { return errors.New("smtp down") })
	working := senderFunc(func(context.Context, models.Message) error { return nil })

	t.Run("delivered", func(t *testing.T) {
		ack := &ackRecorder{}
		var dropped []models.Message
		handleDelivery(context.Background(), delivery(t, ack, msg, false), working, func(_ context.Context, m models.Message) {
			dropped = append(dropped, m)
		})
		assert.True(t, ack.acked)
		assert.Empty(t, dropped)
	})

	t.Run("first failure requeues", func(t *testing.T) {
		ack := &ackRecorder{}
		var dropped []models.Message
		handleDelivery(context.Background(), delivery(t, ack, msg, false), failing, func(_ context.Context, m models.Message) {
			dropped = append(dropped, m)
		})
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
		assert.Empty(t, dropped)
	})

	t.Run("second failure drops", func(t *testing.T) {
		ack := &ackRecorder{}
		var dropped []models.Message
		handleDelivery(context.Background(), delivery(t, ack, msg, true), failing, func(_ context.Context, m models.Message) {
			dropped = append(dropped, m)
		})
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
		require.Len(t, dropped, 1)
		assert.Equal(t, "u1", dropped[0].UserID)
		assert.Equal(t, "tok", dropped[0].ResetToken)
	})

	t.Run("nil drop callback", func(t *testing.T) {
		ack := &ackRecorder{}
		handleDelivery(context.Background(), delivery(t, ack, msg, true), failing, nil)
		assert.True(t, ack.nacked)
	})

	t.Run("undecodable body", func(t *testing.T) {
		ack := &ackRecorder{}
		d := amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("{")}
		handleDelivery(context.Background(), d, working, nil)
		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
	})
}
