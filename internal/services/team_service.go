// team_service.go implements the team lifecycle: creation with its owner
// membership, owner-gated updates and deletion, membership mutation, and the
// ownership transfer that is the only path allowed to move the OWNER role.
//
// Every mutating entry point re-reads the actor's role from the store
// immediately before consulting the policy, so a just-demoted admin is
// rejected on their very next call.
package services

import (
	"context"
	"fmt"

	"github.com/freelancehub/freelancehub/internal/db/models"
	"github.com/freelancehub/freelancehub/internal/db/repositories"
)

// TeamService orchestrates team lifecycle operations
type TeamService struct {
	teams *repositories.TeamRepository
	users *repositories.UserRepository
	slugs *SlugAllocator
}

// NewTeamService creates a new team service
func NewTeamService(teams *repositories.TeamRepository, users *repositories.UserRepository, slugs *SlugAllocator) *TeamService {
	return &TeamService{teams: teams, users: users, slugs: slugs}
}

// CreateTeamInput carries the caller-supplied fields for team creation
type CreateTeamInput struct {
	Name         string
	Description  *string
	Kind         models.TeamKind
	City         *string
	AvatarURL    *string
	ParentTeamID *string
	IsMainTeam   bool
}

// UpdateTeamInput carries the mutable team fields; nil pointers leave the
// current value untouched.
type UpdateTeamInput struct {
	Name        *string
	Description *string
	Kind        *models.TeamKind
	City        *string
	AvatarURL   *string
}

// CreateTeam allocates a slug and creates the team together with its owner
// membership row in one transaction. A slug collision at commit time (two
// teams racing for the same name) is retried once with a disambiguated slug.
func (s *TeamService) CreateTeam(ctx context.Context, ownerID string, in CreateTeamInput) (*models.TeamWithOwner, error) {
	if in.Name == "" {
		return nil, InvalidError("Team name is required")
	}
	if !in.Kind.Valid() {
		return nil, InvalidError(fmt.Sprintf("Invalid team kind: %s", in.Kind))
	}

	if in.ParentTeamID != nil {
		parent, err := s.teams.GetByID(ctx, *in.ParentTeamID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, NotFoundError("Parent team not found")
		}
	}

	slug, err := s.slugs.Allocate(ctx, in.Name)
	if err != nil {
		return nil, err
	}

	team := &models.Team{
		Name:         in.Name,
		Slug:         slug,
		Description:  in.Description,
		Kind:         in.Kind,
		City:         in.City,
		AvatarURL:    in.AvatarURL,
		OwnerID:      ownerID,
		ParentTeamID: in.ParentTeamID,
		IsMainTeam:   in.IsMainTeam,
	}

	if err := s.teams.CreateWithOwner(ctx, team); err != nil {
		if !IsUniqueViolation(err) {
			return nil, err
		}
		// Lost the slug race; retry once with a forced disambiguator.
		team.Slug = s.slugs.Disambiguate(Slugify(in.Name))
		if err := s.teams.CreateWithOwner(ctx, team); err != nil {
			if IsUniqueViolation(err) {
				return nil, ConflictError("Team slug is already taken")
			}
			return nil, err
		}
	}

	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := &models.TeamWithOwner{Team: *team}
	if owner != nil {
		result.Owner = owner.Summary()
	}

	return result, nil
}

// GetTeamByID retrieves a team by ID
func (s *TeamService) GetTeamByID(ctx context.Context, teamID string) (*models.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFoundError("Team not found")
	}
	return team, nil
}

// GetTeamBySlug retrieves a team by slug
func (s *TeamService) GetTeamBySlug(ctx context.Context, slug string) (*models.Team, error) {
	team, err := s.teams.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFoundError("Team not found")
	}
	return team, nil
}

// UpdateTeam applies owner-gated field updates. A name change regenerates the
// slug, keeping the current one when the new name derives to it.
func (s *TeamService) UpdateTeam(ctx context.Context, teamID, actorID string, in UpdateTeamInput) (*models.Team, error) {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	actorRole, err := s.teams.GetMemberRole(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if err := CanUpdateTeam(actorRole); err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != team.Name {
		if *in.Name == "" {
			return nil, InvalidError("Team name is required")
		}
		slug, err := s.slugs.AllocateExcluding(ctx, *in.Name, team.ID)
		if err != nil {
			return nil, err
		}
		team.Name = *in.Name
		team.Slug = slug
	}
	if in.Description != nil {
		team.Description = in.Description
	}
	if in.Kind != nil {
		if !in.Kind.Valid() {
			return nil, InvalidError(fmt.Sprintf("Invalid team kind: %s", *in.Kind))
		}
		team.Kind = *in.Kind
	}
	if in.City != nil {
		team.City = in.City
	}
	if in.AvatarURL != nil {
		team.AvatarURL = in.AvatarURL
	}

	if err := s.teams.Update(ctx, team); err != nil {
		if !IsUniqueViolation(err) {
			return nil, err
		}
		// Slug race on rename; retry once with a forced disambiguator.
		team.Slug = s.slugs.Disambiguate(Slugify(team.Name))
		if err := s.teams.Update(ctx, team); err != nil {
			if IsUniqueViolation(err) {
				return nil, ConflictError("Team slug is already taken")
			}
			return nil, err
		}
	}

	return team, nil
}

// DeleteTeam removes a team; memberships and invitations cascade at the store
// level.
func (s *TeamService) DeleteTeam(ctx context.Context, teamID, actorID string) error {
	if _, err := s.GetTeamByID(ctx, teamID); err != nil {
		return err
	}

	actorRole, err := s.teams.GetMemberRole(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	if err := CanDeleteTeam(actorRole); err != nil {
		return err
	}

	return s.teams.Delete(ctx, teamID)
}

// AddMember adds a user directly to the team at the given role.
func (s *TeamService) AddMember(ctx context.Context, teamID, actorID, targetUserID string, role models.Role) error {
	if !role.Valid() {
		return InvalidError(fmt.Sprintf("Invalid role: %s", role))
	}

	if _, err := s.GetTeamByID(ctx, teamID); err != nil {
		return err
	}

	actorRole, err := s.teams.GetMemberRole(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	if err := CanAddMember(actorRole, role); err != nil {
		return err
	}

	target, err := s.users.GetUserByID(ctx, targetUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return NotFoundError("Recipient user not found")
	}

	existing, err := s.teams.GetMember(ctx, teamID, targetUserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ConflictError("User is already a team member")
	}

	if err := s.teams.AddMember(ctx, teamID, targetUserID, role); err != nil {
		if IsUniqueViolation(err) {
			return ConflictError("User is already a team member")
		}
		return err
	}

	return nil
}

// RemoveMember removes a user from the team. The recorded owner is hard-blocked
// as a target regardless of the actor's role, as a second line of defense
// against an owner row going missing.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, actorID, targetUserID string) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}

	if targetUserID == team.OwnerID {
		return ForbiddenError("Cannot remove team owner")
	}

	actorRole, err := s.teams.GetMemberRole(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	targetRole, err := s.teams.GetMemberRole(ctx, teamID, targetUserID)
	if err != nil {
		return err
	}
	if targetRole == models.RoleNone {
		return NotFoundError("User is not a member of this team")
	}

	if err := CanRemoveMember(actorRole, targetRole); err != nil {
		return err
	}

	return s.teams.RemoveMember(ctx, teamID, targetUserID)
}

// UpdateMemberRole changes a member's role. Owner-only, and the recorded owner
// is hard-blocked as a target independent of the policy check.
func (s *TeamService) UpdateMemberRole(ctx context.Context, teamID, actorID, targetUserID string, role models.Role) error {
	if role != models.RoleAdmin && role != models.RoleMember {
		return InvalidError(fmt.Sprintf("Invalid role: %s", role))
	}

	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}

	if targetUserID == team.OwnerID {
		return ForbiddenError("Cannot change the team owner's role")
	}

	actorRole, err := s.teams.GetMemberRole(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	targetRole, err := s.teams.GetMemberRole(ctx, teamID, targetUserID)
	if err != nil {
		return err
	}
	if targetRole == models.RoleNone {
		return NotFoundError("User is not a member of this team")
	}

	if err := CanChangeMemberRole(actorRole, targetRole); err != nil {
		return err
	}

	return s.teams.UpdateMemberRole(ctx, teamID, targetUserID, role)
}

// LeaveTeam removes the caller's own membership. The owner must transfer
// ownership or delete the team instead.
func (s *TeamService) LeaveTeam(ctx context.Context, teamID, userID string) error {
	if _, err := s.GetTeamByID(ctx, teamID); err != nil {
		return err
	}

	role, err := s.teams.GetMemberRole(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if err := CanLeaveTeam(role); err != nil {
		return err
	}

	return s.teams.RemoveMember(ctx, teamID, userID)
}

// TransferOwnership hands the team to another existing member. This is the
// only operation that moves the OWNER role; it updates the denormalized
// teams.owner_id and both membership rows atomically.
func (s *TeamService) TransferOwnership(ctx context.Context, teamID, actorID, newOwnerID string) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}

	actorRole, err := s.teams.GetMemberRole(ctx, teamID, actorID)
	if err != nil {
		return err
	}
	if err := CanTransferOwnership(actorRole); err != nil {
		return err
	}

	if newOwnerID == team.OwnerID {
		return InvalidError("User is already the team owner")
	}

	newOwnerRole, err := s.teams.GetMemberRole(ctx, teamID, newOwnerID)
	if err != nil {
		return err
	}
	if newOwnerRole == models.RoleNone {
		return NotFoundError("New owner must be an existing team member")
	}

	return s.teams.TransferOwnership(ctx, teamID, team.OwnerID, newOwnerID)
}

// GetTeamMembers lists members ordered owner first, then admins, then members.
func (s *TeamService) GetTeamMembers(ctx context.Context, teamID string) ([]*models.TeamMemberWithUser, error) {
	if _, err := s.GetTeamByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.teams.ListMembers(ctx, teamID)
}

// GetUserTeams lists the teams a user belongs to with their role in each.
func (s *TeamService) GetUserTeams(ctx context.Context, userID string) ([]*models.UserTeam, error) {
	return s.teams.GetUserTeams(ctx, userID)
}

// GetSubTeams lists a team's direct children.
func (s *TeamService) GetSubTeams(ctx context.Context, teamID string) ([]*models.TeamWithOwner, error) {
	if _, err := s.GetTeamByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.teams.GetSubTeams(ctx, teamID)
}

// ListTeams returns a paginated team directory.
func (s *TeamService) ListTeams(ctx context.Context, limit, offset int) ([]*models.TeamWithOwner, error) {
	return s.teams.List(ctx, limit, offset)
}

// SearchTeams finds teams by name or slug.
func (s *TeamService) SearchTeams(ctx context.Context, query string, limit, offset int) ([]*models.TeamWithOwner, error) {
	return s.teams.Search(ctx, query, limit, offset)
}
