package models

// ChatRole identifies the author of a conversation turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatTurn is one message of a conversation with the assistant.
type ChatTurn struct {
	Role    ChatRole `json:"role" validate:"required,oneof=user assistant"`
	Content string   `json:"content" validate:"required"`
}

// ChatReply is what the assistant returns to the client.
type ChatReply struct {
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions"`
}
