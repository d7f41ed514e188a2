package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/seanbenoit06/dancetrainer/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Hub fans scoring results out to WebSocket subscribers. Each client is
// keyed by the session it watches; both the pose ingest endpoint and
// the capture pipeline publish through it.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]string),
	}
}

// Publish sends the payload to every client subscribed to the session.
// The lock also serializes writes, which gorilla connections require.
func (h *Hub) Publish(sessionID string, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, id := range h.clients {
		if id != sessionID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Subscribers returns the number of clients watching the session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, id := range h.clients {
		if id == sessionID {
			n++
		}
	}
	return n
}

func (h *Hub) add(conn *websocket.Conn, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = sessionID
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// LiveHandler upgrades /ws/live?session={id} requests and subscribes
// the client to that session's result stream.
type LiveHandler struct {
	hub      *Hub
	sessions *session.Manager
}

// NewLiveHandler creates a LiveHandler over the given hub and registry.
func NewLiveHandler(hub *Hub, sessions *session.Manager) *LiveHandler {
	return &LiveHandler{hub: hub, sessions: sessions}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session query parameter is required", http.StatusBadRequest)
		return
	}
	if _, err := h.sessions.Get(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.hub.add(conn, sessionID)
	defer h.hub.remove(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
