package handler

import (
	"errors"
	"net/http"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/errs"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// ContentHandler handles comments, languages and AI reviews on the
// collaboration REST surface.
type ContentHandler struct {
	svc *service.CollabService
}

// NewContentHandler creates a content handler.
func NewContentHandler(svc *service.CollabService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// AddComment godoc
// POST /collaboration/videos/:videoId/comments
func (h *ContentHandler) AddComment(c *gin.Context) {
	var req model.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), c.Param("videoId"), req)
	if err != nil {
		if errors.Is(err, errs.ErrNotAuthorized) {
			c.JSON(http.StatusForbidden, gin.H{"error": "comments are disabled for this session"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add comment"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": comment})
}

// GetComments godoc
// GET /collaboration/videos/:videoId/comments?includeResolved=&includeAI=
func (h *ContentHandler) GetComments(c *gin.Context) {
	filter := service.CommentFilter{
		IncludeResolved: c.DefaultQuery("includeResolved", "true") == "true",
		IncludeAI:       c.DefaultQuery("includeAI", "true") == "true",
	}
	comments, err := h.svc.ListComments(c.Request.Context(), c.Param("videoId"), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve comments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": comments, "count": len(comments)})
}

// UpdateComment godoc
// PUT /collaboration/comments/:commentId
func (h *ContentHandler) UpdateComment(c *gin.Context) {
	var req model.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	comment, err := h.svc.UpdateComment(c.Request.Context(), c.Param("commentId"), req)
	if err != nil {
		if errors.Is(err, errs.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": comment})
}

// DeleteComment godoc
// DELETE /collaboration/comments/:commentId
func (h *ContentHandler) DeleteComment(c *gin.Context) {
	if err := h.svc.DeleteComment(c.Request.Context(), c.Param("commentId")); err != nil {
		if errors.Is(err, errs.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "comment deleted"})
}

// ResolveComment godoc
// PATCH /collaboration/comments/:commentId/resolve
func (h *ContentHandler) ResolveComment(c *gin.Context) {
	var req model.ResolveCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	comment, err := h.svc.ResolveComment(c.Request.Context(), c.Param("commentId"), req.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": comment})
}

// DismissSuggestion godoc
// POST /collaboration/comments/:commentId/dismiss
func (h *ContentHandler) DismissSuggestion(c *gin.Context) {
	var req model.ResolveCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	comment, err := h.svc.DismissSuggestion(c.Request.Context(), c.Param("commentId"), req.UserID, req.Reason)
	if err != nil {
		if errors.Is(err, errs.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ai suggestion not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dismiss suggestion"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": comment})
}

// AddLanguage godoc
// POST /collaboration/videos/:videoId/languages
func (h *ContentHandler) AddLanguage(c *gin.Context) {
	var req model.AddLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	lang, err := h.svc.UpsertLanguage(c.Request.Context(), c.Param("videoId"), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add language"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": lang})
}

// GetLanguages godoc
// GET /collaboration/videos/:videoId/languages
func (h *ContentHandler) GetLanguages(c *gin.Context) {
	langs, err := h.svc.ListLanguages(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve languages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": langs})
}

// GetSubtitles godoc
// GET /collaboration/videos/:videoId/languages/:language/subtitles
func (h *ContentHandler) GetSubtitles(c *gin.Context) {
	lang, err := h.svc.GetSubtitles(c.Request.Context(), c.Param("videoId"), c.Param("language"))
	if err != nil {
		if errors.Is(err, errs.ErrLanguageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subtitles not found for this language"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve subtitles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": lang})
}

// CreateReview godoc
// POST /collaboration/videos/:videoId/ai-review
func (h *ContentHandler) CreateReview(c *gin.Context) {
	var req model.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	review, err := h.svc.CreateReview(c.Request.Context(), c.Param("videoId"), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ai review"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": review})
}

// GetReview godoc
// GET /collaboration/videos/:videoId/ai-review
func (h *ContentHandler) GetReview(c *gin.Context) {
	review, err := h.svc.LatestReview(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		if errors.Is(err, errs.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no ai review found for this video"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve ai review"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": review})
}

// DismissReview godoc
// PATCH /collaboration/ai-reviews/:reviewId/dismiss
func (h *ContentHandler) DismissReview(c *gin.Context) {
	var req model.ResolveCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	review, err := h.svc.DismissReview(c.Request.Context(), c.Param("reviewId"), req.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ai review not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dismiss ai review"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": review})
}

// Analytics godoc
// GET /collaboration/videos/:videoId/analytics
func (h *ContentHandler) Analytics(c *gin.Context) {
	analytics, err := h.svc.Analytics(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute analytics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": analytics})
}
