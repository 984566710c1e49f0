package service

import "github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"

// Capability is a bitmap representing a participant's permission set.
type Capability int64

const (
	CapInvite Capability = 1 << iota
	CapRemove
	CapControl
	CapComment
	CapResolve
	CapEdit
	CapDeleteSession
)

// Has reports whether the set contains flag.
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

// Фиксированная таблица прав по ролям; переопределяется только явным
// override в приглашении.
var roleCapabilities = map[string]Capability{
	model.RoleOwner:  CapInvite | CapRemove | CapControl | CapComment | CapResolve | CapEdit | CapDeleteSession,
	model.RoleAdmin:  CapInvite | CapRemove | CapControl | CapComment | CapResolve | CapEdit,
	model.RoleEditor: CapControl | CapComment | CapResolve,
	model.RoleViewer: CapComment,
}

// CapabilitiesFor derives a capability set from a role and an optional
// explicit override (0 means no override).
func CapabilitiesFor(role string, override int64) Capability {
	if override != 0 {
		return Capability(override)
	}
	return roleCapabilities[role]
}

// ValidRole reports whether role is one of the known participant roles.
func ValidRole(role string) bool {
	_, ok := roleCapabilities[role]
	return ok
}
