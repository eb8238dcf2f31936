package services

import (
	"testing"

	"github.com/freelancehub/freelancehub/internal/db/models"
)

func TestCanUpdateTeam(t *testing.T) {
	if err := CanUpdateTeam(models.RoleOwner); err != nil {
		t.Errorf("owner should update team: %v", err)
	}
	for _, r := range []models.Role{models.RoleAdmin, models.RoleMember, models.RoleNone} {
		if err := CanUpdateTeam(r); err == nil {
			t.Errorf("%q should not update team", r)
		}
	}
}

func TestCanDeleteTeam(t *testing.T) {
	if err := CanDeleteTeam(models.RoleOwner); err != nil {
		t.Errorf("owner should delete team: %v", err)
	}
	if err := CanDeleteTeam(models.RoleAdmin); err == nil {
		t.Error("admin should not delete team")
	}
}

func TestCanAddMember(t *testing.T) {
	if err := CanAddMember(models.RoleOwner, models.RoleAdmin); err != nil {
		t.Errorf("owner should assign admin: %v", err)
	}
	if err := CanAddMember(models.RoleAdmin, models.RoleMember); err != nil {
		t.Errorf("admin should assign member: %v", err)
	}
	if err := CanAddMember(models.RoleAdmin, models.RoleAdmin); err == nil {
		t.Error("admin should not assign admin")
	}
	if err := CanAddMember(models.RoleOwner, models.RoleOwner); err == nil {
		t.Error("nobody assigns owner through add")
	}
	if err := CanAddMember(models.RoleMember, models.RoleMember); err == nil {
		t.Error("member should not add members")
	}
	if err := CanAddMember(models.RoleNone, models.RoleMember); err == nil {
		t.Error("non-member should not add members")
	}
}

func TestCanRemoveMember(t *testing.T) {
	if err := CanRemoveMember(models.RoleOwner, models.RoleAdmin); err != nil {
		t.Errorf("owner should remove admin: %v", err)
	}
	if err := CanRemoveMember(models.RoleAdmin, models.RoleMember); err != nil {
		t.Errorf("admin should remove member: %v", err)
	}
	if err := CanRemoveMember(models.RoleAdmin, models.RoleAdmin); err == nil {
		t.Error("admin should not remove another admin")
	}
	if err := CanRemoveMember(models.RoleOwner, models.RoleOwner); err == nil {
		t.Error("owner must never be a removal target")
	}
	if err := CanRemoveMember(models.RoleMember, models.RoleMember); err == nil {
		t.Error("member should not remove members")
	}
}

func TestCanChangeMemberRole(t *testing.T) {
	if err := CanChangeMemberRole(models.RoleOwner, models.RoleMember); err != nil {
		t.Errorf("owner should change member roles: %v", err)
	}
	if err := CanChangeMemberRole(models.RoleAdmin, models.RoleMember); err == nil {
		t.Error("admin should not change roles")
	}
	if err := CanChangeMemberRole(models.RoleOwner, models.RoleOwner); err == nil {
		t.Error("owner's own row must never be a target")
	}
}

func TestCanLeaveTeam(t *testing.T) {
	if err := CanLeaveTeam(models.RoleMember); err != nil {
		t.Errorf("member should leave: %v", err)
	}
	if err := CanLeaveTeam(models.RoleAdmin); err != nil {
		t.Errorf("admin should leave: %v", err)
	}
	if err := CanLeaveTeam(models.RoleOwner); err == nil {
		t.Error("owner should not leave")
	}
	if err := CanLeaveTeam(models.RoleNone); err == nil {
		t.Error("non-member should not leave")
	}
}

func TestCanSendInvitation(t *testing.T) {
	if err := CanSendInvitation(models.RoleOwner); err != nil {
		t.Errorf("owner should send invitations: %v", err)
	}
	if err := CanSendInvitation(models.RoleAdmin); err != nil {
		t.Errorf("admin should send invitations: %v", err)
	}
	err := CanSendInvitation(models.RoleMember)
	if err == nil {
		t.Fatal("member should not send invitations")
	}
	if err.Error() != "Only team owners and admins can send invitations" {
		t.Errorf("unexpected denial message: %q", err.Error())
	}
	if KindOf(err) != KindForbidden {
		t.Errorf("kind = %v, want KindForbidden", KindOf(err))
	}
}

func TestCanViewTeamInvitations(t *testing.T) {
	if err := CanViewTeamInvitations(models.RoleAdmin); err != nil {
		t.Errorf("admin should view team invitations: %v", err)
	}
	if err := CanViewTeamInvitations(models.RoleMember); err == nil {
		t.Error("member should not view team invitations")
	}
}

func TestCanTransferOwnership(t *testing.T) {
	if err := CanTransferOwnership(models.RoleOwner); err != nil {
		t.Errorf("owner should transfer ownership: %v", err)
	}
	if err := CanTransferOwnership(models.RoleAdmin); err == nil {
		t.Error("admin should not transfer ownership")
	}
}
