package service

import (
	"context"
	"errors"
	"time"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/errs"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommentFilter controls ListComments.
type CommentFilter struct {
	IncludeResolved bool
	IncludeAI       bool
}

// AddComment stores a timeline comment (human or AI suggestion) and fans it
// out to the video's room.
func (s *CollabService) AddComment(ctx context.Context, videoID string, req model.AddCommentRequest) (*model.Comment, error) {
	c := &model.Comment{
		ID:             uuid.New().String(),
		VideoID:        videoID,
		UserID:         req.UserID,
		Username:       req.Username,
		Timestamp:      *req.Timestamp,
		Body:           req.Comment,
		PositionX:      req.PositionX,
		PositionY:      req.PositionY,
		Status:         "open",
		AIGenerated:    req.AIGenerated,
		SuggestionType: req.SuggestionType,
	}
	if sess, err := s.sessionForVideo(ctx, videoID); err == nil {
		if !sess.AllowComments {
			return nil, errs.ErrNotAuthorized
		}
		c.SessionID = sess.ID
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	if c.SessionID != "" && !c.AIGenerated {
		s.touchParticipant(ctx, c.SessionID, c.UserID)
	}

	event := model.EventNewComment
	var payload any = c
	if c.AIGenerated {
		event = model.EventAISuggestions
		payload = map[string]any{"suggestions": []*model.Comment{c}}
	}
	s.registry.Broadcast(videoID, event, payload, nil)
	s.log.Info("comment added",
		zap.String("video_id", videoID),
		zap.String("comment_id", c.ID),
		zap.Bool("ai_generated", c.AIGenerated))
	return c, nil
}

// ListComments returns a video's comments ordered by timeline position.
func (s *CollabService) ListComments(ctx context.Context, videoID string, filter CommentFilter) ([]model.Comment, error) {
	q := s.db.WithContext(ctx).Where("video_id = ?", videoID)
	if !filter.IncludeResolved {
		q = q.Where("status = ?", "open")
	}
	if !filter.IncludeAI {
		q = q.Where("ai_generated = ?", false)
	}
	var out []model.Comment
	if err := q.Order("timestamp ASC, created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateComment edits a comment's body/position and fans out the change.
func (s *CollabService) UpdateComment(ctx context.Context, commentID string, req model.UpdateCommentRequest) (*model.Comment, error) {
	c, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if req.Comment != "" {
		updates["body"] = req.Comment
		c.Body = req.Comment
	}
	if req.PositionX != nil {
		updates["position_x"] = req.PositionX
		c.PositionX = req.PositionX
	}
	if req.PositionY != nil {
		updates["position_y"] = req.PositionY
		c.PositionY = req.PositionY
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(c).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	s.registry.Broadcast(c.VideoID, model.EventCommentUpdated, c, nil)
	return c, nil
}

// DeleteComment removes a comment.
func (s *CollabService) DeleteComment(ctx context.Context, commentID string) error {
	res := s.db.WithContext(ctx).Where("id = ?", commentID).Delete(&model.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrCommentNotFound
	}
	return nil
}

// ResolveComment marks a comment resolved and fans out the resolution.
func (s *CollabService) ResolveComment(ctx context.Context, commentID, userID string) (*model.Comment, error) {
	c, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(c).Updates(map[string]any{
		"status":      "resolved",
		"resolved_by": userID,
	}).Error; err != nil {
		return nil, err
	}
	c.Status = "resolved"
	c.ResolvedBy = userID
	s.registry.Broadcast(c.VideoID, model.EventCommentResolved, c, nil)
	s.log.Info("comment resolved",
		zap.String("comment_id", commentID),
		zap.String("resolved_by", userID))
	return c, nil
}

// DismissSuggestion resolves an AI-generated comment with a dismissal reason.
func (s *CollabService) DismissSuggestion(ctx context.Context, commentID, userID, reason string) (*model.Comment, error) {
	c, err := s.loadComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !c.AIGenerated {
		return nil, errs.ErrCommentNotFound
	}
	if err := s.db.WithContext(ctx).Model(c).Updates(map[string]any{
		"status":      "resolved",
		"resolved_by": userID,
	}).Error; err != nil {
		return nil, err
	}
	c.Status = "resolved"
	c.ResolvedBy = userID
	s.log.Info("ai suggestion dismissed",
		zap.String("comment_id", commentID),
		zap.String("dismissed_by", userID),
		zap.String("reason", reason))
	return c, nil
}

// UpsertLanguage adds or updates a translated track for a video and fans
// out language_added.
func (s *CollabService) UpsertLanguage(ctx context.Context, videoID string, req model.AddLanguageRequest) (*model.VideoLanguage, error) {
	var lang model.VideoLanguage
	err := s.db.WithContext(ctx).
		Where("video_id = ? AND language = ?", videoID, req.Language).
		First(&lang).Error
	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Model(&lang).Updates(map[string]any{
			"translated_title": req.TranslatedTitle,
			"subtitles":        req.Subtitles,
			"cta_text":         req.CTAText,
			"is_default":       req.IsDefault,
		}).Error; err != nil {
			return nil, err
		}
		lang.TranslatedTitle = req.TranslatedTitle
		lang.Subtitles = req.Subtitles
		lang.CTAText = req.CTAText
		lang.IsDefault = req.IsDefault
	case errors.Is(err, gorm.ErrRecordNotFound):
		lang = model.VideoLanguage{
			ID:              uuid.New().String(),
			VideoID:         videoID,
			Language:        req.Language,
			TranslatedTitle: req.TranslatedTitle,
			Subtitles:       req.Subtitles,
			CTAText:         req.CTAText,
			IsDefault:       req.IsDefault,
		}
		if err := s.db.WithContext(ctx).Create(&lang).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.registry.Broadcast(videoID, model.EventLanguageAdded, lang, nil)
	s.log.Info("language upserted",
		zap.String("video_id", videoID),
		zap.String("language", req.Language))
	return &lang, nil
}

// ListLanguages returns a video's languages, default first.
func (s *CollabService) ListLanguages(ctx context.Context, videoID string) ([]model.VideoLanguage, error) {
	var out []model.VideoLanguage
	if err := s.db.WithContext(ctx).Where("video_id = ?", videoID).
		Order("is_default DESC, language ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetSubtitles returns one language track for a video.
func (s *CollabService) GetSubtitles(ctx context.Context, videoID, language string) (*model.VideoLanguage, error) {
	var lang model.VideoLanguage
	if err := s.db.WithContext(ctx).
		Where("video_id = ? AND language = ?", videoID, language).
		First(&lang).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrLanguageNotFound
		}
		return nil, err
	}
	return &lang, nil
}

// CreateReview stores an AI review and fans out ai_review_generated.
func (s *CollabService) CreateReview(ctx context.Context, videoID string, req model.CreateReviewRequest) (*model.AIReview, error) {
	reviewType := req.ReviewType
	if reviewType == "" {
		reviewType = "on_demand"
	}
	r := &model.AIReview{
		ID:           uuid.New().String(),
		VideoID:      videoID,
		ReviewType:   reviewType,
		OverallScore: req.OverallScore,
		Summary:      req.Summary,
		Insights:     req.Insights,
		Status:       "active",
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	s.registry.Broadcast(videoID, model.EventAIReviewGenerated, r, nil)
	s.log.Info("ai review created",
		zap.String("video_id", videoID),
		zap.Float64("score", r.OverallScore))
	return r, nil
}

// LatestReview returns the most recent AI review for a video.
func (s *CollabService) LatestReview(ctx context.Context, videoID string) (*model.AIReview, error) {
	var r model.AIReview
	if err := s.db.WithContext(ctx).Where("video_id = ?", videoID).
		Order("created_at DESC").First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrReviewNotFound
		}
		return nil, err
	}
	return &r, nil
}

// DismissReview marks an AI review dismissed.
func (s *CollabService) DismissReview(ctx context.Context, reviewID, userID string) (*model.AIReview, error) {
	var r model.AIReview
	if err := s.db.WithContext(ctx).Where("id = ?", reviewID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrReviewNotFound
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&r).Updates(map[string]any{
		"status":       "dismissed",
		"dismissed_by": userID,
	}).Error; err != nil {
		return nil, err
	}
	r.Status = "dismissed"
	r.DismissedBy = userID
	return &r, nil
}

// Analytics aggregates comment/language/review counts for a video.
func (s *CollabService) Analytics(ctx context.Context, videoID string) (*model.VideoAnalytics, error) {
	comments, err := s.ListComments(ctx, videoID, CommentFilter{IncludeResolved: true, IncludeAI: true})
	if err != nil {
		return nil, err
	}
	languages, err := s.ListLanguages(ctx, videoID)
	if err != nil {
		return nil, err
	}
	var reviews []model.AIReview
	if err := s.db.WithContext(ctx).Where("video_id = ?", videoID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}

	out := &model.VideoAnalytics{
		VideoID:            videoID,
		TotalComments:      len(comments),
		SupportedLanguages: len(languages),
		AIReviewCount:      len(reviews),
	}
	for _, c := range comments {
		if c.AIGenerated {
			out.AISuggestions++
		} else {
			out.HumanComments++
		}
		if c.Status == "resolved" {
			out.ResolvedComments++
		} else {
			out.OpenComments++
		}
	}
	if len(reviews) > 0 {
		out.LatestScore = &reviews[0].OverallScore
	}
	return out, nil
}

func (s *CollabService) loadComment(ctx context.Context, commentID string) (*model.Comment, error) {
	var c model.Comment
	if err := s.db.WithContext(ctx).Where("id = ?", commentID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCommentNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *CollabService) sessionForVideo(ctx context.Context, videoID string) (*model.CollaborationSession, error) {
	var sess model.CollaborationSession
	if err := s.db.WithContext(ctx).Where("video_id = ?", videoID).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// touchParticipant updates last_active for a session member; failures are
// logged only.
func (s *CollabService) touchParticipant(ctx context.Context, sessionID, userID string) {
	err := s.db.WithContext(ctx).Model(&model.SessionParticipant{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Update("last_active", time.Now()).Error
	if err != nil {
		s.log.Debug("touch participant", zap.Error(err))
	}
}
