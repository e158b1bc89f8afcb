package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Hub fans per-tick records out to websocket subscribers.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// the REST layer already allows any origin
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeStream upgrades the connection and registers it for tick broadcasts.
// The subscriber is write-only; inbound messages are discarded.
func (h *Hub) ServeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade stream connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Stream subscriber connected")

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// Broadcast sends one JSON message to every subscriber, dropping any whose
// write fails.
func (h *Hub) Broadcast(v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal stream message")
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
			h.drop(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
