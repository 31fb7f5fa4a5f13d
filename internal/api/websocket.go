package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"fridge/internal/auth"
	"fridge/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub      *ws.Hub
	verifier *auth.Verifier
}

func NewWebSocketHandler(hub *ws.Hub, verifier *auth.Verifier) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, verifier: verifier}
}

func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(h.hub, conn, claims.Subject)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}
