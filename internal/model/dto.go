package model

import "time"

// SessionSettings mirrors the flattened settings columns in API payloads.
type SessionSettings struct {
	AllowComments        bool `json:"allowComments"`
	AllowPlaybackControl bool `json:"allowPlaybackControl"`
	RequireApproval      bool `json:"requireApproval"`
	MaxParticipants      int  `json:"maxParticipants"`
}

// DefaultSettings returns settings applied when a create request omits them.
func DefaultSettings() SessionSettings {
	return SessionSettings{
		AllowComments:        true,
		AllowPlaybackControl: true,
		RequireApproval:      false,
		MaxParticipants:      10,
	}
}

// Session is the API view of a collaboration session (not GORM entity).
type Session struct {
	ID           string          `json:"id"`
	VideoID      string          `json:"videoId"`
	OwnerID      string          `json:"ownerId"`
	Name         string          `json:"name"`
	Settings     SessionSettings `json:"settings"`
	Status       string          `json:"status"`
	Participants []Participant   `json:"participants"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Participant is the API view of a session participant.
type Participant struct {
	UserID   string    `json:"userId"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// CreateSessionRequest is the body for POST /collaboration/videos/:videoId/session.
type CreateSessionRequest struct {
	OwnerID     string           `json:"ownerId" binding:"required"`
	SessionName string           `json:"sessionName"`
	Settings    *SessionSettings `json:"settings"`
}

// InviteTarget is one requested invite inside a batch. Capabilities, when
// non-zero, is an explicit bitmask override fixed at invite time; zero
// means "derive from role".
type InviteTarget struct {
	Email        string `json:"email" binding:"required"`
	Role         string `json:"role"`
	Capabilities int64  `json:"capabilities"`
}

// InviteRequest is the body for POST /collaboration/sessions/:id/invite.
type InviteRequest struct {
	InvitedBy string         `json:"invitedBy" binding:"required"`
	Invites   []InviteTarget `json:"invites" binding:"required"`
}

// InviteResult is the per-item outcome of a batch invite (best-effort).
type InviteResult struct {
	Email     string     `json:"email"`
	Token     string     `json:"token,omitempty"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Delivered bool       `json:"delivered"`
	Error     string     `json:"error,omitempty"`
}

// InviteSummary aggregates a batch invite response.
type InviteSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// AcceptInviteRequest is the body for accepting an invite token.
type AcceptInviteRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// AddCommentRequest is the body for POST /collaboration/videos/:videoId/comments.
type AddCommentRequest struct {
	UserID         string   `json:"userId" binding:"required"`
	Username       string   `json:"username" binding:"required"`
	Timestamp      *float64 `json:"timestamp" binding:"required"`
	Comment        string   `json:"comment" binding:"required"`
	PositionX      *float64 `json:"positionX"`
	PositionY      *float64 `json:"positionY"`
	AIGenerated    bool     `json:"aiGenerated"`
	SuggestionType string   `json:"suggestionType"`
}

// UpdateCommentRequest is the body for PUT /collaboration/comments/:commentId.
type UpdateCommentRequest struct {
	Comment   string   `json:"comment"`
	PositionX *float64 `json:"positionX"`
	PositionY *float64 `json:"positionY"`
}

// ResolveCommentRequest identifies who resolved or dismissed a comment.
type ResolveCommentRequest struct {
	UserID string `json:"userId" binding:"required"`
	Reason string `json:"reason"`
}

// AddLanguageRequest is the body for POST /collaboration/videos/:videoId/languages.
type AddLanguageRequest struct {
	Language        string `json:"language" binding:"required"`
	TranslatedTitle string `json:"translatedTitle"`
	Subtitles       string `json:"subtitles"`
	CTAText         string `json:"ctaText"`
	IsDefault       bool   `json:"isDefault"`
}

// CreateReviewRequest is the body for POST /collaboration/videos/:videoId/ai-review.
type CreateReviewRequest struct {
	ReviewType   string  `json:"reviewType"`
	OverallScore float64 `json:"overallScore"`
	Summary      string  `json:"summary"`
	Insights     string  `json:"insights"`
}

// VideoAnalytics is the aggregate view for GET /collaboration/videos/:videoId/analytics.
type VideoAnalytics struct {
	VideoID            string   `json:"videoId"`
	TotalComments      int      `json:"totalComments"`
	HumanComments      int      `json:"humanComments"`
	AISuggestions      int      `json:"aiSuggestions"`
	ResolvedComments   int      `json:"resolvedComments"`
	OpenComments       int      `json:"openComments"`
	SupportedLanguages int      `json:"supportedLanguages"`
	AIReviewCount      int      `json:"aiReviewCount"`
	LatestScore        *float64 `json:"latestScore,omitempty"`
}
