package errs

import "errors"

// Доменные сентинель-ошибки для маппинга в HTTP коды и WS события в handlers.
var (
	// Not found
	ErrSessionNotFound     = errors.New("collaboration session not found")
	ErrVideoNotFound       = errors.New("video session not found")
	ErrInviteNotFound      = errors.New("invite not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrCommentNotFound     = errors.New("comment not found")
	ErrLanguageNotFound    = errors.New("language not found")
	ErrReviewNotFound      = errors.New("ai review not found")

	// Authorization
	ErrNotAuthorized = errors.New("capability check failed")
	ErrNotController = errors.New("caller does not hold playback control")

	// State
	ErrInviteExpired       = errors.New("invite expired")
	ErrInviteConsumed      = errors.New("invite already accepted")
	ErrSessionClosed       = errors.New("collaboration session is closed")
	ErrOwnerImmutable      = errors.New("session owner cannot be removed")
	ErrNoLiveConnection    = errors.New("target user has no live connection")
	ErrTooManyParticipants = errors.New("session has maximum participants")

	// Validation
	ErrValidation = errors.New("invalid request")
)
