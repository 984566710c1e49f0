package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
)

// InviteHistoryResolver maps an email to the user id that last accepted an
// invite sent to that address. The service has no identity store of its own,
// so accepted invites are the only email-to-user binding it ever observes.
type InviteHistoryResolver struct {
	db *gorm.DB
}

func NewInviteHistoryResolver(db *gorm.DB) *InviteHistoryResolver {
	return &InviteHistoryResolver{db: db}
}

// ResolveEmail returns the most recently bound user id for the email, if any.
func (r *InviteHistoryResolver) ResolveEmail(ctx context.Context, email string) (string, bool) {
	var inv model.SessionInvite
	err := r.db.WithContext(ctx).
		Where("email = ? AND user_id <> '' AND status = ?", email, model.InviteStatusAccepted).
		Order("accepted_at DESC").
		First(&inv).Error
	if err != nil || inv.UserID == "" {
		return "", false
	}
	return inv.UserID, true
}
