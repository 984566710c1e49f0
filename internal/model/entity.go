package model

import "time"

// Роли участников сессии совместного просмотра.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Invite statuses.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusExpired  = "expired"
)

// Session statuses.
const (
	SessionStatusActive = "active"
	SessionStatusClosed = "closed"
)

// CollaborationSession — сущность сессии совместного просмотра (GORM).
// Exactly one session per video; CreateSession is idempotent on VideoID.
type CollaborationSession struct {
	ID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VideoID string `gorm:"size:128;not null;uniqueIndex"`
	OwnerID string `gorm:"size:128;not null;index"`
	Name    string `gorm:"size:255;not null"`

	// Settings (flattened)
	AllowComments        bool `gorm:"not null;default:true"`
	AllowPlaybackControl bool `gorm:"not null;default:true"`
	RequireApproval      bool `gorm:"not null;default:false"`
	MaxParticipants      int  `gorm:"not null;default:10"`

	Status    string    `gorm:"size:20;not null;default:active"` // active, closed
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Participants []SessionParticipant `gorm:"foreignKey:SessionID"`
}

func (CollaborationSession) TableName() string { return "collaboration_sessions" }

// SessionParticipant — участник сессии (GORM).
// Capabilities == 0 means "derive from Role"; a non-zero value is an
// explicit override fixed at invite time.
type SessionParticipant struct {
	ID           string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID    string    `gorm:"type:uuid;not null;index:idx_participant_session_user,unique"`
	UserID       string    `gorm:"size:128;not null;index:idx_participant_session_user,unique"`
	Role         string    `gorm:"size:20;not null;default:viewer"`
	Capabilities int64     `gorm:"not null;default:0"`
	JoinedAt     time.Time `gorm:"column:joined_at;not null"`
	LastActive   time.Time `gorm:"column:last_active;not null"`
}

func (SessionParticipant) TableName() string { return "session_participants" }

// SessionInvite — одноразовое приглашение в сессию (GORM).
type SessionInvite struct {
	ID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID    string     `gorm:"type:uuid;not null;index"`
	InvitedBy    string     `gorm:"size:128;not null"`
	Email        string     `gorm:"size:255;not null"`
	UserID       string     `gorm:"size:128"` // resolved user, empty if the email is unknown
	Role         string     `gorm:"size:20;not null;default:viewer"`
	Capabilities int64      `gorm:"not null;default:0"`
	Token        string     `gorm:"size:64;not null;uniqueIndex"`
	Status       string     `gorm:"size:20;not null;default:pending"` // pending, accepted, expired
	ExpiresAt    time.Time  `gorm:"not null"`
	AcceptedAt   *time.Time `gorm:"column:accepted_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
}

func (SessionInvite) TableName() string { return "session_invites" }

// Comment — комментарий на таймлайне видео, человеческий или AI (GORM).
type Comment struct {
	ID             string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VideoID        string    `gorm:"size:128;not null;index"`
	SessionID      string    `gorm:"type:uuid;index"` // optional link to collaboration session
	UserID         string    `gorm:"size:128;not null"`
	Username       string    `gorm:"size:255;not null"`
	Timestamp      float64   `gorm:"not null"` // seconds on the video timeline
	Body           string    `gorm:"column:body;type:text;not null"`
	PositionX      *float64  `gorm:"column:position_x"`
	PositionY      *float64  `gorm:"column:position_y"`
	Status         string    `gorm:"size:20;not null;default:open"` // open, resolved
	AIGenerated    bool      `gorm:"column:ai_generated;not null;default:false"`
	SuggestionType string    `gorm:"size:20"` // trim, clarify, cta, pace, general
	ResolvedBy     string    `gorm:"size:128"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Comment) TableName() string { return "comments" }

// VideoLanguage — переведённая дорожка/субтитры для видео (GORM).
type VideoLanguage struct {
	ID              string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VideoID         string    `gorm:"size:128;not null;index:idx_language_video_lang,unique"`
	Language        string    `gorm:"size:16;not null;index:idx_language_video_lang,unique"`
	TranslatedTitle string    `gorm:"size:255"`
	Subtitles       string    `gorm:"type:text"`
	CTAText         string    `gorm:"column:cta_text;size:255"`
	IsDefault       bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (VideoLanguage) TableName() string { return "video_languages" }

// AIReview — сгенерированное AI ревью видео (GORM).
type AIReview struct {
	ID           string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VideoID      string    `gorm:"size:128;not null;index"`
	ReviewType   string    `gorm:"size:20;not null;default:on_demand"`
	OverallScore float64   `gorm:"not null;default:0"`
	Summary      string    `gorm:"type:text"`
	Insights     string    `gorm:"type:text"`                       // JSON blob from the AI collaborator
	Status       string    `gorm:"size:20;not null;default:active"` // active, dismissed
	DismissedBy  string    `gorm:"size:128"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (AIReview) TableName() string { return "ai_reviews" }
