// Package client provides a Go client for the skilltree debug stream.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/skilltree/internal/core/observability/log"
	"github.com/zeusync/skilltree/internal/core/skill"
	"github.com/zeusync/skilltree/internal/server/debugws"
)

// Client receives collider visuals from a running server.
type Client struct {
	conn *websocket.Conn

	// Message handlers
	polygonHandlers []PolygonHandler
	circleHandlers  []CircleHandler
	eventHandlers   map[EventType][]EventHandler
	handlerMutex    sync.RWMutex

	// Lifecycle
	connected int32 // atomic bool
	closed    int32 // atomic bool
	closing   int32 // atomic bool, set while Disconnect tears the socket down

	config Config
	logger log.Log

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	ServerAddr     string
	Path           string
	ConnectTimeout time.Duration
	// Logger receives client logs. Nil discards them.
	Logger log.Log
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerAddr:     "localhost:8090",
		Path:           debugws.Path,
		ConnectTimeout: 10 * time.Second,
	}
}

type (
	PolygonHandler func(msg skill.DebugPolygon) error
	CircleHandler  func(msg skill.DebugCircle) error
	EventHandler   func(event Event) error
)

// EventType represents different types of client events
type EventType string

const (
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"
)

// Event represents a client event
type Event struct {
	Type      EventType
	Timestamp time.Time
	Error     error
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = debugws.Path
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Client{
		eventHandlers: make(map[EventType][]EventHandler),
		config:        config,
		logger:        logger.With(log.String("component", "debug_client")),
	}
}

// OnPolygon registers a handler for polygon visuals.
func (c *Client) OnPolygon(h PolygonHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.polygonHandlers = append(c.polygonHandlers, h)
}

// OnCircle registers a handler for circle visuals.
func (c *Client) OnCircle(h CircleHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.circleHandlers = append(c.circleHandlers, h)
}

func (c *Client) OnEvent(t EventType, h EventHandler) {
	c.handlerMutex.Lock()
	defer c.handlerMutex.Unlock()
	c.eventHandlers[t] = append(c.eventHandlers[t], h)
}

// Connect dials the debug endpoint and starts reading messages.
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if c.config.ServerAddr == "" {
		return ErrInvalidConfig
	}
	if !atomic.CompareAndSwapInt32(&c.connected, 0, 1) {
		return ErrAlreadyConnected
	}

	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	c.logger.Info("Connecting to debug stream", log.String("url", u.String()))

	dialer := websocket.Dialer{HandshakeTimeout: c.config.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		atomic.StoreInt32(&c.connected, 0)
		c.logger.Error("Failed to connect", log.String("url", u.String()), log.Error(err))
		return err
	}
	c.conn = conn
	atomic.StoreInt32(&c.closing, 0)

	c.workerGroup.Add(1)
	go c.readLoop()

	c.emitEvent(Event{Type: EventTypeConnected, Timestamp: time.Now()})
	return nil
}

// Disconnect closes the connection and waits for the reader to finish.
func (c *Client) Disconnect() error {
	if atomic.LoadInt32(&c.connected) == 0 {
		return ErrNotConnected
	}
	atomic.StoreInt32(&c.closing, 1)
	err := c.conn.Close()
	c.workerGroup.Wait()
	return err
}

// Close disconnects and makes the client unusable.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 1 {
		return c.Disconnect()
	}
	return nil
}

func (c *Client) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

func (c *Client) readLoop() {
	defer c.workerGroup.Done()
	defer func() {
		atomic.StoreInt32(&c.connected, 0)
		c.emitEvent(Event{Type: EventTypeDisconnected, Timestamp: time.Now()})
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if atomic.LoadInt32(&c.closing) == 0 {
				c.logger.Warn("Debug stream closed", log.Error(err))
			}
			return
		}
		if err := c.dispatch(raw); err != nil {
			c.logger.Warn("Failed to handle debug message", log.Error(err))
			c.emitEvent(Event{Type: EventTypeError, Timestamp: time.Now(), Error: err})
		}
	}
}

func (c *Client) dispatch(raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	c.handlerMutex.RLock()
	defer c.handlerMutex.RUnlock()

	switch env.Type {
	case skill.DebugPolygon{}.Kind():
		var msg skill.DebugPolygon
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidMessage, env.Type, err)
		}
		for _, h := range c.polygonHandlers {
			if err := h(msg); err != nil {
				return err
			}
		}
	case skill.DebugCircle{}.Kind():
		var msg skill.DebugCircle
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidMessage, env.Type, err)
		}
		for _, h := range c.circleHandlers {
			if err := h(msg); err != nil {
				return err
			}
		}
	default:
		c.logger.Debug("Unknown debug message", log.String("type", env.Type))
	}
	return nil
}

func (c *Client) emitEvent(event Event) {
	c.handlerMutex.RLock()
	handlers := c.eventHandlers[event.Type]
	c.handlerMutex.RUnlock()

	for _, h := range handlers {
		if err := h(event); err != nil {
			c.logger.Warn("Event handler failed", log.String("event", string(event.Type)), log.Error(err))
		}
	}
}
