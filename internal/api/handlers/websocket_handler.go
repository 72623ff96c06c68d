package handlers

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/isdelr/finance-tracker-be/internal/auth"
	ws "github.com/isdelr/finance-tracker-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades authenticated connections and attaches them to the hub.
type WebSocketHandler struct {
	hub      *ws.Hub
	tokens   *auth.TokenManager
	checker  auth.SessionChecker
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. An empty origin list or
// one containing "*" accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, tokens *auth.TokenManager, checker auth.SessionChecker, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     hub,
		tokens:  tokens,
		checker: checker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Serve handles GET /ws?token=<session token>. Browsers cannot set headers on
// websocket requests, so the token travels in the query string.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Verify(r.URL.Query().Get("token"), auth.PurposeSession)
	if err != nil {
		respondMessage(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	if h.checker != nil {
		valid, err := h.checker.SessionValid(r.Context(), claims)
		if err != nil {
			writeError(w, r, err, "")
			return
		}
		if !valid {
			respondMessage(w, r, http.StatusUnauthorized, "Token is not valid")
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.Subject)
	select {
	case h.hub.Register <- client:
	case <-h.hub.Done():
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
