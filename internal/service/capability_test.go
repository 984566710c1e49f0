package service

import (
	"testing"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
)

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role  string
		has   []Capability
		lacks []Capability
	}{
		{
			role: model.RoleOwner,
			has:  []Capability{CapInvite, CapRemove, CapControl, CapComment, CapResolve, CapEdit, CapDeleteSession},
		},
		{
			role:  model.RoleAdmin,
			has:   []Capability{CapInvite, CapRemove, CapControl, CapComment, CapResolve, CapEdit},
			lacks: []Capability{CapDeleteSession},
		},
		{
			role:  model.RoleEditor,
			has:   []Capability{CapControl, CapComment, CapResolve},
			lacks: []Capability{CapInvite, CapRemove, CapEdit, CapDeleteSession},
		},
		{
			role:  model.RoleViewer,
			has:   []Capability{CapComment},
			lacks: []Capability{CapInvite, CapRemove, CapControl, CapResolve, CapEdit, CapDeleteSession},
		},
	}

	for _, tc := range cases {
		caps := CapabilitiesFor(tc.role, 0)
		for _, flag := range tc.has {
			if !caps.Has(flag) {
				t.Errorf("%s missing capability %b", tc.role, flag)
			}
		}
		for _, flag := range tc.lacks {
			if caps.Has(flag) {
				t.Errorf("%s unexpectedly holds capability %b", tc.role, flag)
			}
		}
	}
}

func TestCapabilitiesForOverride(t *testing.T) {
	// A non-zero override replaces the role table entirely.
	caps := CapabilitiesFor(model.RoleViewer, int64(CapControl|CapComment))
	if !caps.Has(CapControl) || !caps.Has(CapComment) {
		t.Errorf("override caps = %b, want control|comment", caps)
	}
	if caps.Has(CapInvite) {
		t.Errorf("override caps leaked invite: %b", caps)
	}

	if got := CapabilitiesFor(model.RoleViewer, 0); got != roleCapabilities[model.RoleViewer] {
		t.Errorf("zero override = %b, want role table value", got)
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{model.RoleOwner, model.RoleAdmin, model.RoleEditor, model.RoleViewer} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%s) = false", role)
		}
	}
	if ValidRole("superuser") {
		t.Error("ValidRole accepted an unknown role")
	}
}
