package websocket

import (
	"context"

	"github.com/rs/zerolog/log"
)

type envelope struct {
	userID  string
	message []byte
}

// Hub maintains the set of active clients and fans messages out to the
// sessions of a single user. All maps are owned by the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Clients grouped by the user they authenticated as.
	byUser map[string]map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	publish chan envelope
	done    chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		publish:    make(chan envelope, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		byUser:     make(map[string]map[*Client]bool),
	}
}

// Run processes registrations and messages until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.Register:
			h.clients[client] = true
			if h.byUser[client.UserID] == nil {
				h.byUser[client.UserID] = make(map[*Client]bool)
			}
			h.byUser[client.UserID][client] = true
			log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Str("user_id", client.UserID).Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case env := <-h.publish:
			for client := range h.byUser[env.userID] {
				select {
				case client.Send <- env.message:
				default:
					// Slow consumer; its write pump exits once Send is closed.
					h.drop(client)
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// SendToUser queues message for every open session of userID. Messages are
// dropped once the hub has stopped.
func (h *Hub) SendToUser(userID string, message []byte) {
	select {
	case h.publish <- envelope{userID: userID, message: message}:
	case <-h.done:
	}
}

// Notify encodes an event and sends it to the user's sessions.
func (h *Hub) Notify(userID, action string, payload any) {
	msg, err := NewMessage(action, payload)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return
	}
	h.SendToUser(userID, msg)
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	if subs, ok := h.byUser[client.UserID]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	close(client.Send)
}
