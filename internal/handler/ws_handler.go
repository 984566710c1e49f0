package handler

import (
	"encoding/json"
	"errors"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/errs"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// WSHandler handles the real-time connection at /ws. Every inbound frame is
// an {event, data} envelope; per-message failures become error events and
// never terminate the connection.
type WSHandler struct {
	registry *service.Registry
	engine   *service.PlaybackEngine
	logger   *zap.Logger
}

// NewWSHandler creates the WebSocket handler.
func NewWSHandler(registry *service.Registry, engine *service.PlaybackEngine, logger *zap.Logger) *WSHandler {
	return &WSHandler{registry: registry, engine: engine, logger: logger}
}

// ServeWS upgrades the request and runs the read loop.
func (h *WSHandler) ServeWS(c *gin.Context) {
	conn, err := h.registry.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := h.registry.Connect(uuid.New().String(), conn)
	h.logger.Info("client connected", zap.String("client_id", client.ID))

	go client.WritePump()
	h.readPump(client)
}

func (h *WSHandler) readPump(client *service.Client) {
	defer h.registry.Unregister(client)
	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.String("client_id", client.ID), zap.Error(err))
			}
			return
		}
		h.dispatch(client, raw)
	}
}

// dispatch routes one inbound frame by envelope event name. Unknown or
// malformed frames are ValidationError: rejected, connection kept open.
func (h *WSHandler) dispatch(client *service.Client, raw []byte) {
	if !gjson.ValidBytes(raw) {
		client.Enqueue(model.EventError, gin.H{"message": "invalid message format"})
		return
	}
	event := gjson.GetBytes(raw, "event").String()
	data := []byte(gjson.GetBytes(raw, "data").Raw)

	switch event {
	case model.EventRegister:
		h.handleRegister(client, data)
	case model.EventAuthenticate:
		h.handleAuthenticate(client, data)
	case model.EventJoinVideo:
		h.handleJoinVideo(client, data)
	case model.EventPlaybackControl:
		h.handlePlaybackControl(client, data)
	case model.EventGetPlaybackState:
		h.handleGetPlaybackState(client, data)
	case model.EventGrantControl:
		h.handleGrantControl(client, data)
	default:
		client.Enqueue(model.EventError, gin.H{"message": "unknown event: " + event})
	}
}

func (h *WSHandler) handleRegister(client *service.Client, data []byte) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	// Legacy clients send the session id as a bare string.
	if err := json.Unmarshal(data, &req); err != nil {
		var plain string
		if json.Unmarshal(data, &plain) != nil {
			client.Enqueue(model.EventError, gin.H{"message": "invalid session data format"})
			return
		}
		req.SessionID = plain
	}
	if req.SessionID == "" {
		client.Enqueue(model.EventError, gin.H{"message": "session ID is required"})
		return
	}
	h.registry.Register(client, req.SessionID)
	client.Enqueue(model.EventRegistered, gin.H{
		"sessionId": req.SessionID,
		"message":   "Successfully registered",
	})
}

func (h *WSHandler) handleAuthenticate(client *service.Client, data []byte) {
	var req struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
		Token    string `json:"token"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.UserID == "" || req.Username == "" {
		client.Enqueue(model.EventError, gin.H{"message": "userId and username are required"})
		return
	}
	// Token is accepted as given; identity verification lives upstream.
	h.registry.Authenticate(client, req.UserID, req.Username)
	client.Enqueue(model.EventAuthenticated, gin.H{
		"userId":   req.UserID,
		"username": req.Username,
	})
	h.logger.Info("user authenticated",
		zap.String("user_id", req.UserID),
		zap.String("username", req.Username))
}

func (h *WSHandler) handleJoinVideo(client *service.Client, data []byte) {
	userID, username := client.Identity()
	if userID == "" {
		client.Enqueue(model.EventError, gin.H{"message": "authentication required"})
		return
	}
	var req struct {
		VideoID       string              `json:"videoId"`
		VideoMetadata model.VideoMetadata `json:"videoMetadata"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.VideoID == "" {
		client.Enqueue(model.EventError, gin.H{"message": "videoId is required"})
		return
	}

	h.engine.InitializeVideo(req.VideoID, req.VideoMetadata)
	res, err := h.engine.Join(req.VideoID, client, model.Identity{UserID: userID, Username: username})
	if err != nil {
		client.Enqueue(model.EventError, gin.H{"message": "failed to join video session"})
		return
	}
	client.Enqueue(model.EventPlaybackState, res)
}

func (h *WSHandler) handlePlaybackControl(client *service.Client, data []byte) {
	var req struct {
		Action       string   `json:"action"`
		CurrentTime  *float64 `json:"currentTime"`
		PlaybackRate *float64 `json:"playbackRate"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.Action == "" {
		client.Enqueue(model.EventError, gin.H{"message": "action is required"})
		return
	}

	_, err := h.engine.ApplyControl(client, req.Action, service.ControlParams{
		CurrentTime:  req.CurrentTime,
		PlaybackRate: req.PlaybackRate,
	})
	if err != nil {
		// The engine never retries; the client must re-issue.
		client.Enqueue(model.EventControlFailed, gin.H{
			"action":  req.Action,
			"message": controlFailureMessage(err),
		})
	}
}

func (h *WSHandler) handleGetPlaybackState(client *service.Client, data []byte) {
	var req struct {
		VideoID string `json:"videoId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.VideoID == "" {
		client.Enqueue(model.EventError, gin.H{"message": "videoId is required"})
		return
	}
	snapshot, err := h.engine.PublicState(req.VideoID)
	if err != nil {
		client.Enqueue(model.EventError, gin.H{"message": "video session not found"})
		return
	}
	client.Enqueue(model.EventPlaybackState, snapshot)
}

func (h *WSHandler) handleGrantControl(client *service.Client, data []byte) {
	userID, _ := client.Identity()
	if userID == "" || client.VideoID() == "" {
		client.Enqueue(model.EventError, gin.H{"message": "not in video session"})
		return
	}
	var req struct {
		VideoID string `json:"videoId"`
		UserID  string `json:"userId"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.VideoID == "" || req.UserID == "" {
		client.Enqueue(model.EventError, gin.H{"message": "videoId and userId are required"})
		return
	}

	if err := h.engine.GrantControl(req.VideoID, req.UserID, userID); err != nil {
		client.Enqueue(model.EventControlGrantFailed, gin.H{
			"message": controlFailureMessage(err),
		})
		return
	}
	client.Enqueue(model.EventControlGrantedSuccess, gin.H{"userId": req.UserID})
}

func controlFailureMessage(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotController):
		return "you do not have permission to control playback"
	case errors.Is(err, errs.ErrNotAuthorized):
		return "you do not have permission to grant control"
	case errors.Is(err, errs.ErrNoLiveConnection):
		return "target user is not in the video session"
	case errors.Is(err, errs.ErrVideoNotFound):
		return "video session not found"
	case errors.Is(err, errs.ErrValidation):
		return "invalid control parameters"
	default:
		return "playback control failed"
	}
}
