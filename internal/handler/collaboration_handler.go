package handler

import (
	"errors"
	"net/http"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/errs"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// CollabHandler handles the collaboration session REST API.
type CollabHandler struct {
	svc *service.CollabService
	ws  *service.WSConfig
}

// NewCollabHandler creates a collaboration handler.
func NewCollabHandler(svc *service.CollabService, wsBaseURL string) *CollabHandler {
	return &CollabHandler{
		svc: svc,
		ws:  &service.WSConfig{BaseURL: wsBaseURL},
	}
}

// CreateSession godoc
// POST /collaboration/videos/:videoId/session — idempotent create/fetch.
func (h *CollabHandler) CreateSession(c *gin.Context) {
	videoID := c.Param("videoId")
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	sess, err := h.svc.CreateSession(c.Request.Context(), videoID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    sess,
		"ws_url":  h.ws.WSURL(),
	})
}

// GetSession godoc
// GET /collaboration/sessions/:id
func (h *CollabHandler) GetSession(c *gin.Context) {
	sess, err := h.svc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, errs.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sess})
}

// Invite godoc
// POST /collaboration/sessions/:id/invite — batch, per-item best-effort.
func (h *CollabHandler) Invite(c *gin.Context) {
	var req model.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if len(req.Invites) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invites must not be empty"})
		return
	}
	results, summary, err := h.svc.Invite(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, errs.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to invite"})
		case errors.Is(err, errs.ErrSessionClosed):
			c.JSON(http.StatusGone, gin.H{"error": "session is closed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send invites"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"results": results, "summary": summary},
	})
}

// AcceptInvite godoc
// POST /collaboration/sessions/:id/invites/:token/accept
func (h *CollabHandler) AcceptInvite(c *gin.Context) {
	var req model.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	sess, err := h.svc.AcceptInvite(c.Request.Context(), c.Param("token"), req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInviteNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
		case errors.Is(err, errs.ErrInviteExpired):
			c.JSON(http.StatusGone, gin.H{"error": "invite expired"})
		case errors.Is(err, errs.ErrInviteConsumed):
			c.JSON(http.StatusConflict, gin.H{"error": "invite already accepted"})
		case errors.Is(err, errs.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "invite was issued to a different user"})
		case errors.Is(err, errs.ErrTooManyParticipants):
			c.JSON(http.StatusConflict, gin.H{"error": "session has maximum participants"})
		case errors.Is(err, errs.ErrSessionClosed):
			c.JSON(http.StatusGone, gin.H{"error": "session is closed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept invite"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sess})
}

// RemoveParticipant godoc
// DELETE /collaboration/sessions/:id/participants/:userId?removedBy=<id>
func (h *CollabHandler) RemoveParticipant(c *gin.Context) {
	removedBy := c.Query("removedBy")
	if removedBy == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "removedBy is required"})
		return
	}
	err := h.svc.RemoveParticipant(c.Request.Context(), c.Param("id"), c.Param("userId"), removedBy)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, errs.ErrParticipantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		case errors.Is(err, errs.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to remove participants"})
		case errors.Is(err, errs.ErrOwnerImmutable):
			c.JSON(http.StatusForbidden, gin.H{"error": "session owner cannot be removed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove participant"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// CloseSession godoc
// DELETE /collaboration/sessions/:id?userId=<id>
func (h *CollabHandler) CloseSession(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	err := h.svc.CloseSession(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, errs.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can close the session"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to close session"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
