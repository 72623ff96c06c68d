package websocket

import (
	"encoding/json"
	"time"
)

// Actions pushed to clients.
const (
	ActionTransactionCreated = "transaction.created"
	ActionTransactionDeleted = "transaction.deleted"
	ActionBudgetsUpdated     = "budgets.updated"
	ActionNoteCreated        = "note.created"
	ActionNoteUpdated        = "note.updated"
	ActionNoteDeleted        = "note.deleted"
	ActionPong               = "pong"
	ActionError              = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string    `json:"action"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sentAt"`
}

// NewMessage encodes a message for the wire.
func NewMessage(action string, payload any) ([]byte, error) {
	return json.Marshal(Message{Action: action, Payload: payload, SentAt: time.Now().UTC()})
}

// NewErrorMessage creates a JSON-encoded error message.
func NewErrorMessage(errorMsg string) []byte {
	msg, _ := NewMessage(ActionError, map[string]string{"error": errorMsg})
	return msg
}
