package service

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one live WebSocket connection tracked by the registry.
// SessionID, Identity and VideoID are filled in as the client registers,
// authenticates and joins a video.
type Client struct {
	ID   string
	Conn *websocket.Conn

	mu        sync.Mutex
	sessionID string // legacy single-viewer binding
	userID    string
	username  string
	videoID   string
	closed    bool

	send      chan []byte
	closeOnce sync.Once
	log       *zap.Logger
}

// NewClient wraps an upgraded connection. sendBuffer is the outbound
// channel capacity; a slow reader that falls behind it gets dropped frames,
// not a blocked hub.
func NewClient(id string, conn *websocket.Conn, sendBuffer int, log *zap.Logger) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  log,
	}
}

// Enqueue marshals an envelope and queues it for the write pump.
// Returns false when the client is closed or its buffer is full (frame
// dropped). A fan-out racing with eviction lands on the closed check, not
// on a closed channel.
func (c *Client) Enqueue(event string, data any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		c.log.Error("marshal event payload", zap.String("event", event), zap.Error(err))
		return false
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.log.Warn("client send buffer full, dropping frame",
			zap.String("client_id", c.ID),
			zap.String("event", event))
		return false
	}
}

// WritePump drains the send channel into the connection. Runs in its own
// goroutine per client; exits when the channel closes or a write fails.
func (c *Client) WritePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for frame := range c.send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

// Close shuts the outbound channel (ending the write pump) and closes the
// underlying connection. Safe to call more than once. The closed flag and
// the channel close happen under mu so no Enqueue can be mid-send.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

// SessionID returns the legacy session binding, if any.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) setSessionID(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// Identity returns the authenticated userID/username, empty before authenticate.
func (c *Client) Identity() (userID, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.username
}

// SetIdentity is called by the registry on authenticate.
func (c *Client) setIdentity(userID, username string) {
	c.mu.Lock()
	c.userID = userID
	c.username = username
	c.mu.Unlock()
}

// VideoID returns the joined video, empty before join_video.
func (c *Client) VideoID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videoID
}

func (c *Client) setVideoID(id string) {
	c.mu.Lock()
	c.videoID = id
	c.mu.Unlock()
}
