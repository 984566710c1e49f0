package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/errs"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestInviteAcceptable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	accepted := now.Add(-time.Hour)

	cases := []struct {
		name   string
		invite model.SessionInvite
		userID string
		want   error
	}{
		{
			name: "pending open invite",
			invite: model.SessionInvite{
				Status:    model.InviteStatusPending,
				ExpiresAt: now.Add(24 * time.Hour),
			},
			userID: "u1",
		},
		{
			name: "named user matches",
			invite: model.SessionInvite{
				Status:    model.InviteStatusPending,
				UserID:    "u1",
				ExpiresAt: now.Add(24 * time.Hour),
			},
			userID: "u1",
		},
		{
			name: "named user mismatch",
			invite: model.SessionInvite{
				Status:    model.InviteStatusPending,
				UserID:    "u1",
				ExpiresAt: now.Add(24 * time.Hour),
			},
			userID: "u2",
			want:   errs.ErrNotAuthorized,
		},
		{
			name: "already consumed",
			invite: model.SessionInvite{
				Status:     model.InviteStatusAccepted,
				ExpiresAt:  now.Add(24 * time.Hour),
				AcceptedAt: &accepted,
			},
			userID: "u1",
			want:   errs.ErrInviteConsumed,
		},
		{
			name: "consumed wins over expired",
			invite: model.SessionInvite{
				Status:    model.InviteStatusAccepted,
				ExpiresAt: now.Add(-time.Hour),
			},
			userID: "u1",
			want:   errs.ErrInviteConsumed,
		},
		{
			name: "deadline passed",
			invite: model.SessionInvite{
				Status:    model.InviteStatusPending,
				ExpiresAt: now.Add(-time.Minute),
			},
			userID: "u1",
			want:   errs.ErrInviteExpired,
		},
		{
			name: "marked expired",
			invite: model.SessionInvite{
				Status:    model.InviteStatusExpired,
				ExpiresAt: now.Add(24 * time.Hour),
			},
			userID: "u1",
			want:   errs.ErrInviteExpired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := inviteAcceptable(&tc.invite, tc.userID, now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("inviteAcceptable = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateLostUniqueRace(t *testing.T) {
	if !createLostUniqueRace(gorm.ErrDuplicatedKey) {
		t.Error("duplicate-key sentinel not recognized")
	}
	if !createLostUniqueRace(fmt.Errorf("create session: %w", gorm.ErrDuplicatedKey)) {
		t.Error("wrapped duplicate-key sentinel not recognized")
	}
	if createLostUniqueRace(gorm.ErrRecordNotFound) {
		t.Error("unrelated gorm error treated as a lost race")
	}
	if createLostUniqueRace(errors.New("connection refused")) {
		t.Error("arbitrary error treated as a lost race")
	}
}

func TestNewInviteCarriesCapabilityOverride(t *testing.T) {
	sess := &model.CollaborationSession{ID: "sess-1", VideoID: "vid-1"}
	expires := time.Now().Add(24 * time.Hour)

	override := int64(CapComment | CapControl)
	inv, reason := newInvite(sess, "owner-1", model.InviteTarget{
		Email:        "eve@example.com",
		Role:         model.RoleViewer,
		Capabilities: override,
	}, "", expires)
	if inv == nil {
		t.Fatalf("newInvite rejected valid target: %s", reason)
	}
	if inv.Capabilities != override {
		t.Fatalf("invite Capabilities = %d, want %d", inv.Capabilities, override)
	}
	// The override must survive acceptance: a viewer invited with explicit
	// playback control gets exactly that set, not the role table's.
	got := CapabilitiesFor(inv.Role, inv.Capabilities)
	if got != Capability(override) {
		t.Errorf("effective capabilities = %d, want override %d", got, override)
	}
	if !got.Has(CapControl) || got.Has(CapInvite) {
		t.Error("override not applied verbatim")
	}
}

func TestNewInviteDefaultsAndRejections(t *testing.T) {
	sess := &model.CollaborationSession{ID: "sess-1"}
	expires := time.Now().Add(time.Hour)

	inv, _ := newInvite(sess, "owner-1", model.InviteTarget{Email: "a@b.c"}, "u7", expires)
	if inv == nil {
		t.Fatal("newInvite rejected minimal target")
	}
	if inv.Role != model.RoleViewer {
		t.Errorf("default role = %q, want viewer", inv.Role)
	}
	if inv.Capabilities != 0 {
		t.Errorf("Capabilities = %d, want 0 (derive from role)", inv.Capabilities)
	}
	if inv.UserID != "u7" {
		t.Errorf("UserID = %q, want resolved u7", inv.UserID)
	}

	for _, target := range []model.InviteTarget{
		{Email: "a@b.c", Role: model.RoleOwner},
		{Email: "a@b.c", Role: "superuser"},
		{Email: "no-at-sign"},
	} {
		if inv, reason := newInvite(sess, "owner-1", target, "", expires); inv != nil {
			t.Errorf("newInvite(%+v) accepted, want rejection", target)
		} else if reason == "" {
			t.Errorf("newInvite(%+v) rejected without a reason", target)
		}
	}
}

// recordingMailer captures SendInvite calls for assertions.
type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) SendInvite(_ context.Context, email, _, _, _ string) error {
	m.sent = append(m.sent, email)
	return m.err
}

func TestDeliverInviteDirectToKnownUser(t *testing.T) {
	r := newTestRegistry(16)
	mail := &recordingMailer{}
	s := &CollabService{registry: r, mailer: mail, log: zap.NewNop()}

	c := newTestClient("c1")
	r.Authenticate(c, "u9", "eve")

	sess := &model.CollaborationSession{ID: "sess-1", VideoID: "vid-1", Name: "Review"}
	inv := &model.SessionInvite{
		SessionID: sess.ID,
		InvitedBy: "owner-1",
		Email:     "eve@example.com",
		UserID:    "u9",
		Role:      model.RoleEditor,
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if !s.deliverInvite(context.Background(), sess, inv) {
		t.Fatal("deliverInvite to a connected user reported not delivered")
	}
	if len(mail.sent) != 0 {
		t.Errorf("mailer used for a resolved user: %v", mail.sent)
	}

	frames := drainFrames(t, c)
	if len(frames) != 1 || frames[0].Event != model.EventCollabInvite {
		t.Fatalf("frames = %+v, want one %s", frames, model.EventCollabInvite)
	}
}

func TestDeliverInviteOfflineUserIsBuffered(t *testing.T) {
	r := newTestRegistry(16)
	s := &CollabService{registry: r, mailer: &recordingMailer{}, log: zap.NewNop()}

	sess := &model.CollaborationSession{ID: "sess-1", Name: "Review"}
	inv := &model.SessionInvite{UserID: "u9", Email: "eve@example.com", Token: "tok-1"}

	if s.deliverInvite(context.Background(), sess, inv) {
		t.Fatal("delivery to an offline user reported live")
	}

	// The notification waits in the user's queue and replays on connect.
	c := newTestClient("c1")
	r.Authenticate(c, "u9", "eve")
	frames := drainFrames(t, c)
	if len(frames) != 1 || frames[0].Event != model.EventCollabInvite {
		t.Fatalf("replayed frames = %+v, want one %s", frames, model.EventCollabInvite)
	}
}

func TestDeliverInviteFallsBackToEmail(t *testing.T) {
	r := newTestRegistry(16)
	mail := &recordingMailer{}
	s := &CollabService{registry: r, mailer: mail, log: zap.NewNop()}

	sess := &model.CollaborationSession{ID: "sess-1", Name: "Review"}
	inv := &model.SessionInvite{Email: "stranger@example.com", Token: "tok-2", Role: model.RoleViewer}

	if !s.deliverInvite(context.Background(), sess, inv) {
		t.Fatal("email delivery reported failure")
	}
	if len(mail.sent) != 1 || mail.sent[0] != "stranger@example.com" {
		t.Errorf("mailer calls = %v, want [stranger@example.com]", mail.sent)
	}

	mail.err = errors.New("smtp down")
	if s.deliverInvite(context.Background(), sess, inv) {
		t.Error("failed email delivery reported success")
	}
}
