package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/ports"
)

const (
	sendBuffer = 32
	writeWait  = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans state updates out to the websocket clients of each game.
type Hub struct {
	Logger *slog.Logger

	mu      sync.Mutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{Logger: logger, clients: make(map[string]map[*client]struct{})}
}

// Renderer returns the renderer that pushes updates for game id.
func (h *Hub) Renderer(id string) ports.Renderer {
	return gameRenderer{hub: h, id: id}
}

type gameRenderer struct {
	hub *Hub
	id  string
}

type wsMessage struct {
	Kind   string         `json:"kind"`
	Update *domain.Update `json:"update,omitempty"`
	State  *stateView     `json:"state,omitempty"`
}

func (g gameRenderer) Render(u domain.Update) {
	data, err := json.Marshal(wsMessage{Kind: "update", Update: &u})
	if err != nil {
		g.hub.Logger.Error("encode update", "game", g.id, "err", err)
		return
	}
	g.hub.broadcast(g.id, data)
}

func (h *Hub) register(id string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[id]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[id] = set
	}
	set[c] = struct{}{}
}

// removeLocked closes the client's queue once; the writer then exits.
func (h *Hub) removeLocked(id string, c *client) {
	set := h.clients[id]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, id)
	}
}

func (h *Hub) unregister(id string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id, c)
}

func (h *Hub) broadcast(id string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[id] {
		select {
		case c.send <- msg:
		default:
			// slow client
			h.removeLocked(id, c)
		}
	}
}

// Drop disconnects every client of game id.
func (h *Hub) Drop(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[id] {
		h.removeLocked(id, c)
	}
}

// Clients counts the connections of game id.
func (h *Hub) Clients(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[id])
}

func (c *client) writer() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// wsCommand is what the page may send over the socket.
type wsCommand struct {
	Type string `json:"type"`
	Cell int    `json:"cell"`
}

func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	if h.Hub == nil {
		writeError(w, http.StatusNotImplemented, "websocket not enabled")
		return
	}
	id := r.PathValue("id")
	svc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade", "game", id, "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.Hub.register(id, c)
	go c.writer()

	view := viewOf(svc)
	if data, err := json.Marshal(wsMessage{Kind: "state", State: &view}); err == nil {
		h.Hub.broadcast(id, data)
	}

	defer h.Hub.unregister(id, c)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd wsCommand
		if json.Unmarshal(data, &cmd) != nil {
			continue
		}
		switch cmd.Type {
		case "move":
			if _, err := svc.AttemptMove(r.Context(), cmd.Cell); err != nil {
				h.Logger.Error("move failed", "game", id, "cell", cmd.Cell, "err", err)
			}
		case "reset":
			svc.Reset(r.Context())
		}
	}
}
