package service

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Target key prefixes. Legacy single-viewer sessions use the bare session id
// as key; user- and video-scoped targets are namespaced so the three
// keyspaces cannot collide in the buffer map.
const (
	userKeyPrefix  = "user:"
	videoKeyPrefix = "video:"
)

// UserKey returns the buffer target key for a user id.
func UserKey(userID string) string { return userKeyPrefix + userID }

// VideoKey returns the buffer target key for a video id.
func VideoKey(videoID string) string { return videoKeyPrefix + videoID }

// bufferedEvent is an outbound message held for a target with no live
// connection, replayed in FIFO order on the next matching registration.
type bufferedEvent struct {
	Event      string
	Data       any
	EnqueuedAt time.Time
}

// Registry maps logical targets (legacy session id, user id, video id) to
// live connections and buffers outbound events when no connection matches.
// It owns all connection maps; nothing outside this package mutates them.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Client              // legacy session id -> single client (last writer wins)
	users    map[string]map[*Client]struct{} // user id -> authenticated clients
	videos   map[string]map[*Client]struct{} // video id -> joined clients
	queues   map[string][]bufferedEvent      // target key -> FIFO queue

	queueCap   int
	upgrader   websocket.Upgrader
	maxMsgSize int64
	sendBuffer int
	log        *zap.Logger

	// onLeave is invoked for a client that had joined a video and is now
	// unregistering; wired to the playback engine at startup.
	onLeave func(*Client)
}

// NewRegistry creates a connection registry. queueCap bounds each buffered
// queue; the oldest event is dropped when a queue is full.
func NewRegistry(readBuf, writeBuf int, maxMessageSize int64, queueCap int, log *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Client),
		users:    make(map[string]map[*Client]struct{}),
		videos:   make(map[string]map[*Client]struct{}),
		queues:   make(map[string][]bufferedEvent),
		queueCap: queueCap,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			// Allow all origins for dev; in prod set CheckOrigin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		maxMsgSize: maxMessageSize,
		sendBuffer: 256,
		log:        log,
	}
}

// SetLeaveHandler wires the playback engine's leave path; called once at startup.
func (r *Registry) SetLeaveHandler(fn func(*Client)) { r.onLeave = fn }

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (r *Registry) Upgrader() *websocket.Upgrader { return &r.upgrader }

// Connect wraps an upgraded connection into a tracked client.
func (r *Registry) Connect(id string, conn *websocket.Conn) *Client {
	if r.maxMsgSize > 0 {
		conn.SetReadLimit(r.maxMsgSize)
	}
	return NewClient(id, conn, r.sendBuffer, r.log)
}

// Register binds a client to a legacy session id. A prior binding for the
// same id is forcibly closed (last writer wins), then the id's buffered
// queue is replayed FIFO to the new client and cleared.
func (r *Registry) Register(c *Client, sessionID string) {
	r.mu.Lock()
	old := r.sessions[sessionID]
	r.sessions[sessionID] = c
	queued := r.takeQueueLocked(sessionID)
	r.mu.Unlock()

	if old != nil && old != c {
		// Duplicate registration is resolved, not surfaced as a failure.
		r.log.Warn("session already has a client, disconnecting old one",
			zap.String("session_id", sessionID))
		old.Close()
	}

	c.setSessionID(sessionID)
	r.log.Info("client registered",
		zap.String("client_id", c.ID),
		zap.String("session_id", sessionID))

	for _, ev := range queued {
		c.Enqueue(ev.Event, ev.Data)
	}
}

// Authenticate binds a client to a user id and replays any events buffered
// for that user while offline.
func (r *Registry) Authenticate(c *Client, userID, username string) {
	r.mu.Lock()
	if r.users[userID] == nil {
		r.users[userID] = make(map[*Client]struct{})
	}
	r.users[userID][c] = struct{}{}
	queued := r.takeQueueLocked(UserKey(userID))
	r.mu.Unlock()

	c.setIdentity(userID, username)
	for _, ev := range queued {
		c.Enqueue(ev.Event, ev.Data)
	}
}

// AddToVideo binds a joined client into a video room and replays the room's
// buffered queue to it. Called by the playback engine only.
func (r *Registry) AddToVideo(c *Client, videoID string) {
	r.mu.Lock()
	if r.videos[videoID] == nil {
		r.videos[videoID] = make(map[*Client]struct{})
	}
	r.videos[videoID][c] = struct{}{}
	queued := r.takeQueueLocked(VideoKey(videoID))
	r.mu.Unlock()

	c.setVideoID(videoID)
	for _, ev := range queued {
		c.Enqueue(ev.Event, ev.Data)
	}
}

// RemoveFromVideo unbinds a client from its video room.
func (r *Registry) RemoveFromVideo(c *Client, videoID string) {
	r.mu.Lock()
	if m, ok := r.videos[videoID]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(r.videos, videoID)
		}
	}
	r.mu.Unlock()
	c.setVideoID("")
}

// Send delivers an event to the client bound to a legacy session id, or
// buffers it when none is connected. Buffering is the normal degraded path,
// not an error; the return reports live delivery.
func (r *Registry) Send(sessionID, event string, data any) bool {
	r.mu.RLock()
	c := r.sessions[sessionID]
	r.mu.RUnlock()

	if c == nil {
		r.log.Debug("no client for session, buffering",
			zap.String("session_id", sessionID),
			zap.String("event", event))
		r.enqueue(sessionID, event, data)
		return false
	}
	c.Enqueue(event, data)
	return true
}

// SendToUser delivers an event to every connection authenticated as userID,
// buffering under the user key when none is live. The return reports whether
// at least one connection accepted the event.
func (r *Registry) SendToUser(userID, event string, data any) bool {
	r.mu.RLock()
	targets := make([]*Client, 0, len(r.users[userID]))
	for c := range r.users[userID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		r.enqueue(UserKey(userID), event, data)
		return false
	}
	delivered := false
	for _, c := range targets {
		if c.Enqueue(event, data) {
			delivered = true
		}
	}
	return delivered
}

// Broadcast delivers an event to every client joined to a video, except an
// optional excluded one (usually the initiator). When the room is empty the
// event is buffered under the video key.
func (r *Registry) Broadcast(videoID, event string, data any, exclude *Client) {
	r.mu.RLock()
	room := r.videos[videoID]
	targets := make([]*Client, 0, len(room))
	for c := range room {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	empty := len(room) == 0
	r.mu.RUnlock()

	if empty {
		r.enqueue(VideoKey(videoID), event, data)
		return
	}
	for _, c := range targets {
		c.Enqueue(event, data)
	}
}

// UserInVideo reports whether userID has at least one live connection joined
// to videoID, returning one such client.
func (r *Registry) UserInVideo(videoID, userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.videos[videoID] {
		if id, _ := c.Identity(); id == userID {
			return c, true
		}
	}
	return nil, false
}

// Unregister removes every binding for a closing client. A client that had
// joined a video is handed to the playback engine's leave path first.
func (r *Registry) Unregister(c *Client) {
	if c.VideoID() != "" && r.onLeave != nil {
		r.onLeave(c)
	}

	userID, _ := c.Identity()
	sessionID := c.SessionID()

	r.mu.Lock()
	if sessionID != "" && r.sessions[sessionID] == c {
		delete(r.sessions, sessionID)
	}
	if userID != "" {
		if m, ok := r.users[userID]; ok {
			delete(m, c)
			if len(m) == 0 {
				delete(r.users, userID)
			}
		}
	}
	for vid, m := range r.videos {
		if _, ok := m[c]; ok {
			delete(m, c)
			if len(m) == 0 {
				delete(r.videos, vid)
			}
		}
	}
	r.mu.Unlock()

	c.Close()
	r.log.Info("client unregistered",
		zap.String("client_id", c.ID),
		zap.String("session_id", sessionID),
		zap.String("user_id", userID))
}

// ConnectionCount returns the number of distinct live clients (diagnostics).
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[*Client]struct{})
	for _, c := range r.sessions {
		seen[c] = struct{}{}
	}
	for _, m := range r.users {
		for c := range m {
			seen[c] = struct{}{}
		}
	}
	for _, m := range r.videos {
		for c := range m {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

// BufferedTargets returns how many targets currently hold queued events.
func (r *Registry) BufferedTargets() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queues)
}

// enqueue appends to a target's FIFO queue, dropping the oldest event when
// the queue is at capacity.
func (r *Registry) enqueue(target, event string, data any) {
	r.mu.Lock()
	q := r.queues[target]
	if r.queueCap > 0 && len(q) >= r.queueCap {
		r.log.Warn("buffer queue full, dropping oldest event",
			zap.String("target", target),
			zap.String("dropped_event", q[0].Event))
		q = q[1:]
	}
	r.queues[target] = append(q, bufferedEvent{Event: event, Data: data, EnqueuedAt: time.Now()})
	r.mu.Unlock()
}

// takeQueueLocked removes and returns a target's queue. Caller holds r.mu.
func (r *Registry) takeQueueLocked(target string) []bufferedEvent {
	q := r.queues[target]
	if len(q) > 0 {
		delete(r.queues, target)
		r.log.Info("replaying buffered events",
			zap.String("target", target),
			zap.Int("count", len(q)))
	}
	return q
}
