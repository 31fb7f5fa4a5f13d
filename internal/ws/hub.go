// Package ws pushes feedback and navigation frames to connected browser
// sessions over WebSocket.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"fridge/internal/feedback"
	"fridge/internal/nav"
)

const (
	broadcastBufferSize = 64

	// maxDroppedFramesBeforeDisconnect is the threshold for disconnecting slow clients
	maxDroppedFramesBeforeDisconnect = 100
)

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Frame
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Frame, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			h.mu.Lock()
			for client := range h.clients {
				client.CloseSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			slog.Info("shutdown complete", "component", "hub")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Debug("client connected", "component", "hub", "client_id", client.id, "user_id", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.CloseSend()
			}
			h.mu.Unlock()
			slog.Debug("client disconnected", "component", "hub", "client_id", client.id)

		case frame := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				h.sendToClientLocked(client, frame)
			}
			h.mu.RUnlock()
		}
	}
}

// Caller must hold at least a read lock on h.mu.
func (h *Hub) sendToClientLocked(client *Client, frame *Frame) {
	select {
	case client.send <- frame:
	default:
		dropped := atomic.AddInt64(&client.droppedFrames, 1)
		if dropped%10 == 1 {
			slog.Warn("dropped frames for slow client", "component", "hub", "dropped", dropped, "client_id", client.id)
		}
		if dropped >= maxDroppedFramesBeforeDisconnect {
			slog.Warn("disconnecting slow client", "component", "hub", "client_id", client.id, "dropped", dropped)
			client.Close()
		}
	}
}

func (h *Hub) Broadcast(frame *Frame) {
	select {
	case h.broadcast <- frame:
	default:
		slog.Warn("broadcast buffer full, frame dropped", "component", "hub", "op", string(frame.Op))
	}
}

// SendToUser delivers a frame only to connections authenticated as userID.
func (h *Hub) SendToUser(userID string, frame *Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.userID == userID {
			h.sendToClientLocked(client, frame)
		}
	}
}

// Publish implements feedback.Sink.
func (h *Hub) Publish(msg feedback.Message) {
	payload, err := json.Marshal(ToastPayload{
		Level:      string(msg.Level),
		Text:       msg.Text,
		DurationMs: msg.DurationMs,
	})
	if err != nil {
		slog.Error("encoding toast payload", "component", "hub", "error", err)
		return
	}
	h.Broadcast(&Frame{Op: OpToast, Payload: payload})
}

// Navigate implements nav.Navigator.
func (h *Hub) Navigate(route nav.Route) {
	payload, err := json.Marshal(NavigatePayload{Route: string(route)})
	if err != nil {
		slog.Error("encoding navigate payload", "component", "hub", "error", err)
		return
	}
	h.Broadcast(&Frame{Op: OpNavigate, Payload: payload})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Shutdown() {
	close(h.shutdown)
}
