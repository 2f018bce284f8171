// Package alert pushes session events to connected browser clients over
// websocket. The browser owns the audio cue; match events carry a sound
// flag so the client knows to play it.
package alert

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"platewatch/internal/domain/plate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type message struct {
	Type  string                 `json:"type"`
	Entry *plate.SessionLogEntry `json:"entry,omitempty"`
	Alert *plate.Alert           `json:"alert,omitempty"`
	Sound bool                   `json:"sound,omitempty"`
}

// Hub fans session events out to every connected websocket client.
// Broadcast failures drop the client; they never propagate to the caller.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// HandleConnection upgrades the request and registers the client until its
// read loop fails.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Int("clients", count).Msg("websocket client connected")

	go h.readLoop(conn)
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// EntryLogged broadcasts a session log entry.
func (h *Hub) EntryLogged(e plate.SessionLogEntry) error {
	h.broadcast(message{Type: "log", Entry: &e})
	return nil
}

// AlertRaised broadcasts a watchlist match with the audio cue flag set.
func (h *Hub) AlertRaised(a plate.Alert) error {
	h.broadcast(message{Type: "alert", Alert: &a, Sound: true})
	return nil
}

func (h *Hub) broadcast(msg message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode websocket message")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug().Err(err).Msg("dropping websocket client")
			h.drop(conn)
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
