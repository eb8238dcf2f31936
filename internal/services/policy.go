// policy.go is the role authorization policy: pure decision functions over
// (actor role, action, target role). Callers fetch the actor's role from the
// store immediately before asking, so every decision reflects current state
// rather than a snapshot taken earlier in the request. A nil return means
// allow; a non-nil return is the Forbidden error to surface verbatim.
package services

import "github.com/freelancehub/freelancehub/internal/db/models"

// CanUpdateTeam allows only the owner to change team fields.
func CanUpdateTeam(actor models.Role) error {
	if actor != models.RoleOwner {
		return ForbiddenError("Only team owner can update team details")
	}
	return nil
}

// CanDeleteTeam allows only the owner to delete the team.
func CanDeleteTeam(actor models.Role) error {
	if actor != models.RoleOwner {
		return ForbiddenError("Only team owner can delete the team")
	}
	return nil
}

// CanAddMember allows owners and admins to add members. Only the owner may
// assign the admin role; nobody assigns owner through this path (ownership
// moves only via transfer).
func CanAddMember(actor, assigned models.Role) error {
	if !actor.AtLeast(models.RoleAdmin) {
		return ForbiddenError("Only team owners and admins can add members")
	}
	if assigned == models.RoleOwner {
		return ForbiddenError("Owner role can only be granted through ownership transfer")
	}
	if assigned == models.RoleAdmin && actor != models.RoleOwner {
		return ForbiddenError("Only team owner can assign the admin role")
	}
	return nil
}

// CanRemoveMember allows owners and admins to remove members. The owner can
// never be the target; admins may only remove plain members.
func CanRemoveMember(actor, target models.Role) error {
	if !actor.AtLeast(models.RoleAdmin) {
		return ForbiddenError("Only team owners and admins can remove members")
	}
	if target == models.RoleOwner {
		return ForbiddenError("Cannot remove team owner")
	}
	if actor == models.RoleAdmin && target != models.RoleMember {
		return ForbiddenError("Admins can only remove members")
	}
	return nil
}

// CanChangeMemberRole allows only the owner to change roles, and never the
// owner's own row.
func CanChangeMemberRole(actor, target models.Role) error {
	if actor != models.RoleOwner {
		return ForbiddenError("Only team owner can change member roles")
	}
	if target == models.RoleOwner {
		return ForbiddenError("Cannot change the team owner's role")
	}
	return nil
}

// CanLeaveTeam allows any member except the owner to leave.
func CanLeaveTeam(actor models.Role) error {
	if actor == models.RoleNone {
		return ForbiddenError("You are not a member of this team")
	}
	if actor == models.RoleOwner {
		return ForbiddenError("Team owner cannot leave the team; transfer ownership or delete the team instead")
	}
	return nil
}

// CanSendInvitation allows owners and admins to invite.
func CanSendInvitation(actor models.Role) error {
	if !actor.AtLeast(models.RoleAdmin) {
		return ForbiddenError("Only team owners and admins can send invitations")
	}
	return nil
}

// CanViewTeamInvitations allows owners and admins to list a team's invitations.
func CanViewTeamInvitations(actor models.Role) error {
	if !actor.AtLeast(models.RoleAdmin) {
		return ForbiddenError("Only team owners and admins can view team invitations")
	}
	return nil
}

// CanTransferOwnership allows only the current owner to hand the team over.
func CanTransferOwnership(actor models.Role) error {
	if actor != models.RoleOwner {
		return ForbiddenError("Only team owner can transfer ownership")
	}
	return nil
}
