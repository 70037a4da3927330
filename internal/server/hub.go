package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/gesture"
)

const (
	writeWait  = 2 * time.Second
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ElementState is the message pushed to browsers: the element offset and
// the current status icon.
type ElementState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Status string  `json:"status"`
	Icon   string  `json:"icon"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes the moving element and the status to every connected browser
// over WebSocket. It implements the controller's Element and StatusView.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	state   ElementState
	last    []byte
}

// NewHub creates a Hub. A nil logger uses slog.Default().
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// ShowStatus records the status sent with the next translation.
func (h *Hub) ShowStatus(name gesture.Name, icon string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Status = string(name)
	h.state.Icon = icon
}

// Translate moves the element. Unchanged states are not re-sent; browsers
// keep the last applied transform.
func (h *Hub) Translate(x, y float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.X = x
	h.state.Y = y

	msg, err := json.Marshal(h.state)
	if err != nil {
		return
	}
	if string(msg) == string(h.last) {
		return
	}
	h.last = msg

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Slow client; it catches up with a later state
		}
	}
}

// State returns the last state set on the hub.
func (h *Hub) State() ElementState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests. A new client immediately
// receives the current state.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	initial, _ := json.Marshal(h.state)
	c.send <- initial
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("state client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Keep connection alive by reading messages
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		h.logger.Debug("state client disconnected", "remote", r.RemoteAddr)
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
