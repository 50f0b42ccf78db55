package devtools

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	clientBacklog = 64
)

// HubOptions configures a Hub.
type HubOptions struct {
	// History is how many events are replayed to a client when it connects.
	// Default: 256
	History int

	// CheckOrigin validates the WebSocket handshake origin.
	// Default: allow all origins, the panel is a development tool.
	CheckOrigin func(r *http.Request) bool

	Logger *slog.Logger
}

// Hub is a Sink streaming events to WebSocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	history  *Buffer
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func NewHub(opts HubOptions) *Hub {
	if opts.History <= 0 {
		opts.History = 256
	}
	if opts.CheckOrigin == nil {
		opts.CheckOrigin = func(*http.Request) bool { return true }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Hub{
		clients: make(map[*client]struct{}),
		history: NewBuffer(opts.History),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		logger: opts.Logger.With("component", "devtools"),
	}
}

// Emit records e and forwards it to every connected client. Slow clients
// lose frames rather than blocking the store.
func (h *Hub) Emit(e Event) {
	frame, err := EncodeFrame(e)
	if err != nil {
		h.logger.Warn("dropping devtools event", "store", e.StoreName, "action", e.Action, "error", err)
		return
	}

	// recorded under the lock so a connecting client sees e either in its
	// replay or as a live frame, never both
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.history.Emit(e)

	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("devtools client too slow, dropping frame", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// History returns the events a new client would receive.
func (h *Hub) History() []Event {
	return h.history.Events()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// ServeHTTP upgrades the request to a WebSocket, replays the history and then
// streams new events until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("devtools upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	// replay under the lock so no event slips between history and live frames
	history := h.history.Events()
	c := &client{
		conn: conn,
		send: make(chan []byte, len(history)+clientBacklog),
	}
	for _, e := range history {
		frame, err := EncodeFrame(e)
		if err != nil {
			continue
		}
		c.send <- frame
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("devtools client connected", "remote", conn.RemoteAddr().String())

	go h.write(c)

	// the panel never talks back, reading only detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	h.logger.Debug("devtools client disconnected", "remote", conn.RemoteAddr().String())
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) write(c *client) {
	for frame := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.logger.Debug("devtools write failed", "error", err)
			h.remove(c)
			return
		}
	}

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.conn.Close()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.close()
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}
