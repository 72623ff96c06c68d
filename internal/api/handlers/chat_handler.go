package handlers

import (
	"net/http"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/services"
)

// ChatHandler handles messages for the finance assistant.
type ChatHandler struct {
	service services.ChatServiceProvider
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service services.ChatServiceProvider) *ChatHandler {
	return &ChatHandler{service: service}
}

// ChatPayload carries the user's message and the prior conversation.
type ChatPayload struct {
	Message             string            `json:"message" validate:"required"`
	ConversationHistory []models.ChatTurn `json:"conversationHistory" validate:"omitempty,max=100,dive"`
}

// Message answers a chat message.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var payload ChatPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, r, err, "")
		return
	}

	reply, err := h.service.Reply(r.Context(), auth.UserIDFromContext(r.Context()), payload.Message, payload.ConversationHistory)
	if err != nil {
		writeError(w, r, err, "User not found")
		return
	}
	respondJSON(w, r, http.StatusOK, reply)
}
