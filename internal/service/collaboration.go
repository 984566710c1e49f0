package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/config"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/errs"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserResolver resolves an invite email to a known user id. The identity
// store is an external collaborator; a nil-safe no-op keeps every invite on
// the email path.
type UserResolver interface {
	ResolveEmail(ctx context.Context, email string) (userID string, ok bool)
}

// InviteMailer delivers invite tokens out-of-band for emails that do not
// resolve to a connected user.
type InviteMailer interface {
	SendInvite(ctx context.Context, email, sessionName, token, role string) error
}

// CollabService owns durable membership, roles and invites, and the
// comment/language/review records that fan out to rooms.
type CollabService struct {
	db       *gorm.DB
	cfg      *config.Config
	registry *Registry
	users    UserResolver
	mailer   InviteMailer
	log      *zap.Logger
}

// NewCollabService creates the collaboration service. users and mailer may
// be nil.
func NewCollabService(db *gorm.DB, cfg *config.Config, registry *Registry, users UserResolver, mailer InviteMailer, log *zap.Logger) *CollabService {
	return &CollabService{db: db, cfg: cfg, registry: registry, users: users, mailer: mailer, log: log}
}

// CreateSession returns the session bound to a video, creating it (with the
// owner auto-added as participant) when none exists. Idempotent per videoID.
func (s *CollabService) CreateSession(ctx context.Context, videoID string, req model.CreateSessionRequest) (*model.Session, error) {
	var existing model.CollaborationSession
	err := s.db.WithContext(ctx).Preload("Participants").
		Where("video_id = ?", videoID).First(&existing).Error
	if err == nil {
		return entityToSession(&existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings := model.DefaultSettings()
	settings.MaxParticipants = s.cfg.DefaultMaxParticipants
	if req.Settings != nil {
		settings = *req.Settings
		if settings.MaxParticipants <= 0 {
			settings.MaxParticipants = s.cfg.DefaultMaxParticipants
		}
	}
	name := req.SessionName
	if name == "" {
		name = "Collaboration for " + videoID
	}

	ent := &model.CollaborationSession{
		ID:                   uuid.New().String(),
		VideoID:              videoID,
		OwnerID:              req.OwnerID,
		Name:                 name,
		AllowComments:        settings.AllowComments,
		AllowPlaybackControl: settings.AllowPlaybackControl,
		RequireApproval:      settings.RequireApproval,
		MaxParticipants:      settings.MaxParticipants,
		Status:               model.SessionStatusActive,
	}
	now := time.Now()
	owner := &model.SessionParticipant{
		ID:         uuid.New().String(),
		SessionID:  ent.ID,
		UserID:     req.OwnerID,
		Role:       model.RoleOwner,
		JoinedAt:   now,
		LastActive: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ent).Error; err != nil {
			return err
		}
		return tx.Create(owner).Error
	})
	if err != nil {
		// Two concurrent creates for the same video both pass the First
		// check; the loser trips the unique video_id index. Idempotency
		// means it gets the winner's session, not an error.
		if createLostUniqueRace(err) {
			var winner model.CollaborationSession
			if rerr := s.db.WithContext(ctx).Preload("Participants").
				Where("video_id = ?", videoID).First(&winner).Error; rerr == nil {
				return entityToSession(&winner), nil
			}
		}
		return nil, err
	}
	ent.Participants = []model.SessionParticipant{*owner}
	s.log.Info("collaboration session created",
		zap.String("session_id", ent.ID),
		zap.String("video_id", videoID),
		zap.String("owner_id", req.OwnerID))
	return entityToSession(ent), nil
}

// createLostUniqueRace reports whether a session create failed because a
// concurrent request already created the row for this video. Relies on the
// connection translating unique-index violations to gorm.ErrDuplicatedKey.
func createLostUniqueRace(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// GetSession returns a session by id.
func (s *CollabService) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	ent, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return entityToSession(ent), nil
}

// Invite issues single-use, time-limited invites in a batch. A failure for
// one target never aborts the others; each target gets its own result.
// Requires the canInvite capability on the inviter.
func (s *CollabService) Invite(ctx context.Context, sessionID string, req model.InviteRequest) ([]model.InviteResult, model.InviteSummary, error) {
	ent, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, model.InviteSummary{}, err
	}
	if ent.Status != model.SessionStatusActive {
		return nil, model.InviteSummary{}, errs.ErrSessionClosed
	}
	caps, err := s.participantCaps(ctx, sessionID, req.InvitedBy)
	if err != nil {
		return nil, model.InviteSummary{}, err
	}
	if !caps.Has(CapInvite) {
		return nil, model.InviteSummary{}, errs.ErrNotAuthorized
	}

	results := make([]model.InviteResult, 0, len(req.Invites))
	summary := model.InviteSummary{Total: len(req.Invites)}
	ttl := time.Duration(s.cfg.InviteTTLDays) * 24 * time.Hour

	for _, target := range req.Invites {
		res := s.issueInvite(ctx, ent, req.InvitedBy, target, ttl)
		if res.Error != "" {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		results = append(results, res)
	}
	return results, summary, nil
}

// newInvite builds the invite record for one target. An invalid role or
// email yields a nil invite and a reason string.
func newInvite(sess *model.CollaborationSession, invitedBy string, target model.InviteTarget, resolvedUser string, expires time.Time) (*model.SessionInvite, string) {
	role := target.Role
	if role == "" {
		role = model.RoleViewer
	}
	if role == model.RoleOwner || !ValidRole(role) {
		return nil, "invalid role: " + target.Role
	}
	if !strings.Contains(target.Email, "@") {
		return nil, "invalid email"
	}
	return &model.SessionInvite{
		ID:           uuid.New().String(),
		SessionID:    sess.ID,
		InvitedBy:    invitedBy,
		Email:        target.Email,
		UserID:       resolvedUser,
		Role:         role,
		Capabilities: target.Capabilities,
		Token:        uuid.New().String(),
		Status:       model.InviteStatusPending,
		ExpiresAt:    expires,
	}, ""
}

func (s *CollabService) issueInvite(ctx context.Context, sess *model.CollaborationSession, invitedBy string, target model.InviteTarget, ttl time.Duration) model.InviteResult {
	res := model.InviteResult{Email: target.Email}

	var resolvedUser string
	if s.users != nil {
		if id, ok := s.users.ResolveEmail(ctx, target.Email); ok {
			resolvedUser = id
		}
	}

	expires := time.Now().Add(ttl)
	inv, reason := newInvite(sess, invitedBy, target, resolvedUser, expires)
	if inv == nil {
		res.Error = reason
		return res
	}
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		res.Error = "failed to store invite"
		s.log.Error("store invite", zap.String("email", target.Email), zap.Error(err))
		return res
	}

	res.Token = inv.Token
	res.Role = inv.Role
	res.ExpiresAt = &expires
	res.Delivered = s.deliverInvite(ctx, sess, inv)
	return res
}

// deliverInvite is best-effort: a known user gets a direct real-time
// notification (buffered while offline); everyone else goes through the
// email channel.
func (s *CollabService) deliverInvite(ctx context.Context, sess *model.CollaborationSession, inv *model.SessionInvite) bool {
	if inv.UserID != "" {
		return s.registry.SendToUser(inv.UserID, model.EventCollabInvite, map[string]any{
			"sessionId":   sess.ID,
			"videoId":     sess.VideoID,
			"sessionName": sess.Name,
			"invitedBy":   inv.InvitedBy,
			"role":        inv.Role,
			"token":       inv.Token,
			"expiresAt":   inv.ExpiresAt,
		})
	}
	if s.mailer == nil {
		return false
	}
	if err := s.mailer.SendInvite(ctx, inv.Email, sess.Name, inv.Token, inv.Role); err != nil {
		s.log.Warn("invite email failed",
			zap.String("email", inv.Email), zap.Error(err))
		return false
	}
	return true
}

// inviteAcceptable checks a loaded invite against the accepting user and
// the current time. Token reuse always fails, even before expiry.
func inviteAcceptable(inv *model.SessionInvite, userID string, now time.Time) error {
	if inv.Status == model.InviteStatusAccepted {
		return errs.ErrInviteConsumed
	}
	if inv.Status == model.InviteStatusExpired || now.After(inv.ExpiresAt) {
		return errs.ErrInviteExpired
	}
	if inv.UserID != "" && inv.UserID != userID {
		return errs.ErrNotAuthorized
	}
	return nil
}

// AcceptInvite consumes a token exactly once and upgrades or creates the
// participant record with the invite's role and capability override.
func (s *CollabService) AcceptInvite(ctx context.Context, token, userID string) (*model.Session, error) {
	var out *model.CollaborationSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv model.SessionInvite
		if err := tx.Where("token = ?", token).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrInviteNotFound
			}
			return err
		}
		now := time.Now()
		if err := inviteAcceptable(&inv, userID, now); err != nil {
			if errors.Is(err, errs.ErrInviteExpired) && inv.Status == model.InviteStatusPending {
				_ = tx.Model(&inv).Update("status", model.InviteStatusExpired).Error
			}
			return err
		}

		var sess model.CollaborationSession
		if err := tx.Preload("Participants").Where("id = ?", inv.SessionID).First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrSessionNotFound
			}
			return err
		}
		if sess.Status != model.SessionStatusActive {
			return errs.ErrSessionClosed
		}

		var existing *model.SessionParticipant
		for i := range sess.Participants {
			if sess.Participants[i].UserID == userID {
				existing = &sess.Participants[i]
				break
			}
		}
		if existing != nil {
			if err := tx.Model(existing).Updates(map[string]any{
				"role":         inv.Role,
				"capabilities": inv.Capabilities,
				"last_active":  now,
			}).Error; err != nil {
				return err
			}
		} else {
			if len(sess.Participants) >= sess.MaxParticipants {
				return errs.ErrTooManyParticipants
			}
			p := &model.SessionParticipant{
				ID:           uuid.New().String(),
				SessionID:    sess.ID,
				UserID:       userID,
				Role:         inv.Role,
				Capabilities: inv.Capabilities,
				JoinedAt:     now,
				LastActive:   now,
			}
			if err := tx.Create(p).Error; err != nil {
				return err
			}
			sess.Participants = append(sess.Participants, *p)
		}

		if err := tx.Model(&inv).Updates(map[string]any{
			"status":      model.InviteStatusAccepted,
			"user_id":     userID,
			"accepted_at": now,
		}).Error; err != nil {
			return err
		}
		out = &sess
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invite accepted",
		zap.String("session_id", out.ID),
		zap.String("user_id", userID))
	return entityToSession(out), nil
}

// RemoveParticipant removes a member. Requires canRemove on the remover;
// the owner can never be removed. The removed user is notified directly.
func (s *CollabService) RemoveParticipant(ctx context.Context, sessionID, targetUserID, removedBy string) error {
	ent, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	caps, err := s.participantCaps(ctx, sessionID, removedBy)
	if err != nil {
		return err
	}
	if !caps.Has(CapRemove) {
		return errs.ErrNotAuthorized
	}

	var target model.SessionParticipant
	if err := s.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, targetUserID).
		First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrParticipantNotFound
		}
		return err
	}
	if target.Role == model.RoleOwner {
		return errs.ErrOwnerImmutable
	}
	if err := s.db.WithContext(ctx).Delete(&target).Error; err != nil {
		return err
	}

	s.registry.SendToUser(targetUserID, model.EventCollabRemoved, map[string]any{
		"sessionId": sessionID,
		"videoId":   ent.VideoID,
		"removedBy": removedBy,
	})
	s.log.Info("participant removed",
		zap.String("session_id", sessionID),
		zap.String("user_id", targetUserID),
		zap.String("removed_by", removedBy))
	return nil
}

// CloseSession marks a session closed. Owner only.
func (s *CollabService) CloseSession(ctx context.Context, sessionID, userID string) error {
	caps, err := s.participantCaps(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !caps.Has(CapDeleteSession) {
		return errs.ErrNotAuthorized
	}
	res := s.db.WithContext(ctx).Model(&model.CollaborationSession{}).
		Where("id = ?", sessionID).
		Update("status", model.SessionStatusClosed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrSessionNotFound
	}
	s.log.Info("collaboration session closed", zap.String("session_id", sessionID))
	return nil
}

// CapabilityForVideo resolves the capability set a user holds for the
// session bound to a video; zero when no session or membership exists.
// Used by the playback engine for grant arbitration.
func (s *CollabService) CapabilityForVideo(videoID, userID string) Capability {
	var sess model.CollaborationSession
	if err := s.db.Where("video_id = ?", videoID).First(&sess).Error; err != nil {
		return 0
	}
	caps, err := s.participantCaps(context.Background(), sess.ID, userID)
	if err != nil {
		return 0
	}
	return caps
}

func (s *CollabService) loadSession(ctx context.Context, sessionID string) (*model.CollaborationSession, error) {
	var ent model.CollaborationSession
	if err := s.db.WithContext(ctx).Preload("Participants").
		Where("id = ?", sessionID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSessionNotFound
		}
		return nil, err
	}
	return &ent, nil
}

func (s *CollabService) participantCaps(ctx context.Context, sessionID, userID string) (Capability, error) {
	var p model.SessionParticipant
	if err := s.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errs.ErrNotAuthorized
		}
		return 0, err
	}
	return CapabilitiesFor(p.Role, p.Capabilities), nil
}

func entityToSession(ent *model.CollaborationSession) *model.Session {
	sess := &model.Session{
		ID:      ent.ID,
		VideoID: ent.VideoID,
		OwnerID: ent.OwnerID,
		Name:    ent.Name,
		Settings: model.SessionSettings{
			AllowComments:        ent.AllowComments,
			AllowPlaybackControl: ent.AllowPlaybackControl,
			RequireApproval:      ent.RequireApproval,
			MaxParticipants:      ent.MaxParticipants,
		},
		Status:    ent.Status,
		CreatedAt: ent.CreatedAt,
	}
	for _, p := range ent.Participants {
		sess.Participants = append(sess.Participants, model.Participant{
			UserID:   p.UserID,
			Role:     p.Role,
			JoinedAt: p.JoinedAt,
		})
	}
	return sess
}
