package debugws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/internal/core/skill"
	"github.com/zeusync/skilltree/pkg/generic"
)

const (
	Path         = "/debug"
	sendBuffer   = 64
	writeTimeout = 2 * time.Second
)

var ErrSlowClient = errors.New("debug client too slow, dropped")

// Envelope is the wire form of every debug message.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// Hub fans debug messages out to every connected websocket client.
// It implements skill.Broadcaster.
type Hub struct {
	upgrader websocket.Upgrader
	log      log.Log
	buffers  *generic.Pool[*bytes.Buffer]

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(logger log.Log) *Hub {
	if logger == nil {
		logger = log.Nop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     logger.Named("debugws"),
		buffers: generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset),
		clients: make(map[*client]struct{}),
	}
}

// Handler serves the hub under Path.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	return mux
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.log.Debug("debug client connected", log.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readLoop discards client input and unregisters the client once the
// connection fails.
func (h *Hub) readLoop(c *client) {
	defer h.unregister(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("debug write failed", log.Error(err))
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

func (c *client) close() {
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}

// Broadcast encodes msg once and queues it for every client. Clients whose
// queue is full are disconnected.
func (h *Hub) Broadcast(msg skill.DebugMessage) error {
	buf := h.buffers.Get()
	defer h.buffers.Put(buf)
	if err := json.NewEncoder(buf).Encode(Envelope{Type: msg.Kind(), Data: msg}); err != nil {
		return fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	payload := bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n"))

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		c.close()
	}
	if len(slow) > 0 {
		return fmt.Errorf("%w: %d clients", ErrSlowClient, len(slow))
	}
	return nil
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
}
