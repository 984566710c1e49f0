package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/errs"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// Passthrough events the processing pipeline may relay through the registry.
var relayableEvents = map[string]struct{}{
	model.EventVideo:              {},
	model.EventAudio:              {},
	model.EventInstructions:       {},
	model.EventProcessingStatus:   {},
	model.EventProcessingComplete: {},
	model.EventProcessingError:    {},
}

// VideoHandler handles the playback REST fallback and the pipeline
// callback endpoint.
type VideoHandler struct {
	engine   *service.PlaybackEngine
	registry *service.Registry
}

// NewVideoHandler creates a video handler.
func NewVideoHandler(engine *service.PlaybackEngine, registry *service.Registry) *VideoHandler {
	return &VideoHandler{engine: engine, registry: registry}
}

// GetMetadata godoc
// GET /videos/:id/metadata — PlaybackState projection for polling clients.
func (h *VideoHandler) GetMetadata(c *gin.Context) {
	snapshot, err := h.engine.PublicState(c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get playback state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snapshot})
}

// UpdatePlayback godoc
// PUT /videos/:id/playback — informational only. Real mutation goes through
// the real-time channel; this endpoint just acknowledges polling clients.
func (h *VideoHandler) UpdatePlayback(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "playback updates must be sent over the real-time channel",
	})
}

// Stats godoc
// GET /stats — room and connection diagnostics.
func (h *VideoHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Stats())
}

// RelayEvent godoc
// POST /internal/sessions/:id/events — processing pipeline callback.
// The event is delivered to the session's client, or buffered until one
// reconnects.
func (h *VideoHandler) RelayEvent(c *gin.Context) {
	var req struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Event == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event is required"})
		return
	}
	if _, ok := relayableEvents[req.Event]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event is not relayable: " + req.Event})
		return
	}
	delivered := h.registry.Send(c.Param("id"), req.Event, req.Data)
	c.JSON(http.StatusOK, gin.H{"success": true, "delivered": delivered, "buffered": !delivered})
}
