// invitation_service.go implements the invitation state machine:
// pending → accepted | declined | cancelled | expired, all four terminal.
//
// Expiration is evaluated lazily on every read/accept/decline against the
// clock, with the stored status acting as a cache that this service (and the
// background sweep) refreshes. Correctness never depends on the sweep having
// run.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/freelancehub/freelancehub/internal/db/models"
	"github.com/freelancehub/freelancehub/internal/db/repositories"
)

// InvitationService orchestrates invitation lifecycle operations
type InvitationService struct {
	invitations *repositories.InvitationRepository
	teams       *repositories.TeamRepository
	users       *repositories.UserRepository

	ttl time.Duration
	now func() time.Time
}

// NewInvitationService creates a new invitation service. ttl is how long an
// invitation stays acceptable after creation.
func NewInvitationService(invitations *repositories.InvitationRepository, teams *repositories.TeamRepository, users *repositories.UserRepository, ttl time.Duration) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		teams:       teams,
		users:       users,
		ttl:         ttl,
		now:         time.Now,
	}
}

// SendInvitationInput carries the caller-supplied fields for sending an invitation
type SendInvitationInput struct {
	TeamID     string
	ReceiverID string
	Role       models.Role
	Message    *string
}

// SendInvitation creates a pending invitation after four ordered checks:
// sender authorization, receiver existence, receiver not already a member, and
// no live invitation for the pair. The partial unique index on pending
// invitations is the final arbiter for two sends racing past the last check.
func (s *InvitationService) SendInvitation(ctx context.Context, senderID string, in SendInvitationInput) (*models.InvitationWithDetails, error) {
	if in.Role != models.RoleAdmin && in.Role != models.RoleMember {
		return nil, InvalidError(fmt.Sprintf("Invalid invitation role: %s", in.Role))
	}

	team, err := s.teams.GetByID(ctx, in.TeamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFoundError("Team not found")
	}

	senderRole, err := s.teams.GetMemberRole(ctx, in.TeamID, senderID)
	if err != nil {
		return nil, err
	}
	if err := CanSendInvitation(senderRole); err != nil {
		return nil, err
	}

	receiver, err := s.users.GetUserByID(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, NotFoundError("Recipient user not found")
	}

	member, err := s.teams.GetMember(ctx, in.TeamID, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		return nil, ConflictError("User is already a team member")
	}

	pending, err := s.invitations.HasPending(ctx, in.TeamID, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ConflictError("Pending invitation already exists for this user")
	}

	inv := &models.Invitation{
		TeamID:     in.TeamID,
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Role:       in.Role,
		Message:    in.Message,
		ExpiresAt:  s.now().Add(s.ttl),
	}

	if err := s.invitations.Create(ctx, inv); err != nil {
		if IsUniqueViolation(err) {
			return nil, ConflictError("Pending invitation already exists for this user")
		}
		return nil, err
	}

	return s.invitations.GetByIDWithDetails(ctx, inv.ID)
}

// GetInvitationByID loads an invitation for its sender or receiver, flipping
// it to expired on read when its deadline has passed.
func (s *InvitationService) GetInvitationByID(ctx context.Context, id, requesterID string) (*models.InvitationWithDetails, error) {
	inv, err := s.invitations.GetByIDWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NotFoundError("Invitation not found")
	}

	if requesterID != inv.SenderID && requesterID != inv.ReceiverID {
		return nil, ForbiddenError("Unauthorized to view this invitation")
	}

	if inv.Status == models.InvitationPending && inv.IsExpired(s.now()) {
		if _, err := s.invitations.UpdateStatus(ctx, inv.ID, models.InvitationExpired); err != nil {
			return nil, err
		}
		inv.Status = models.InvitationExpired
	}

	return inv, nil
}

// AcceptInvitation moves a pending invitation to accepted and creates the
// membership row in one transaction, returning both so callers can render the
// pair without a second read. An invitation past its deadline is flipped to
// expired as a side effect of this very call, then the call fails.
func (s *InvitationService) AcceptInvitation(ctx context.Context, id, userID string) (*models.InvitationWithDetails, *models.TeamMember, error) {
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if inv == nil {
		return nil, nil, NotFoundError("Invitation not found")
	}

	if userID != inv.ReceiverID {
		return nil, nil, ForbiddenError("Only the recipient can accept this invitation")
	}

	if inv.Status != models.InvitationPending {
		return nil, nil, InvalidStateError(fmt.Sprintf("Invitation is %s, cannot accept", inv.Status))
	}

	if inv.IsExpired(s.now()) {
		if _, err := s.invitations.UpdateStatus(ctx, inv.ID, models.InvitationExpired); err != nil {
			return nil, nil, err
		}
		return nil, nil, ExpiredError("Invitation has expired")
	}

	// Defends against a stale invitation surviving a side-channel join.
	member, err := s.teams.GetMember(ctx, inv.TeamID, userID)
	if err != nil {
		return nil, nil, err
	}
	if member != nil {
		return nil, nil, ConflictError("You are already a member of this team")
	}

	accepted, err := s.invitations.Accept(ctx, inv)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, nil, ConflictError("You are already a member of this team")
		}
		return nil, nil, err
	}
	if !accepted {
		// Lost a concurrent race out of pending; report the current status.
		current, err := s.invitations.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		status := models.InvitationPending
		if current != nil {
			status = current.Status
		}
		return nil, nil, InvalidStateError(fmt.Sprintf("Invitation is %s, cannot accept", status))
	}

	details, err := s.invitations.GetByIDWithDetails(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	membership, err := s.teams.GetMember(ctx, inv.TeamID, userID)
	if err != nil {
		return nil, nil, err
	}

	return details, membership, nil
}

// DeclineInvitation moves a pending invitation to declined. Receiver-only.
func (s *InvitationService) DeclineInvitation(ctx context.Context, id, userID string) (*models.InvitationWithDetails, error) {
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NotFoundError("Invitation not found")
	}

	if userID != inv.ReceiverID {
		return nil, ForbiddenError("Only the recipient can decline this invitation")
	}

	if inv.Status != models.InvitationPending {
		return nil, InvalidStateError(fmt.Sprintf("Invitation is %s, cannot decline", inv.Status))
	}

	if inv.IsExpired(s.now()) {
		if _, err := s.invitations.UpdateStatus(ctx, inv.ID, models.InvitationExpired); err != nil {
			return nil, err
		}
		return nil, ExpiredError("Invitation has expired")
	}

	updated, err := s.invitations.UpdateStatus(ctx, inv.ID, models.InvitationDeclined)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, InvalidStateError("Invitation is no longer pending, cannot decline")
	}

	return s.invitations.GetByIDWithDetails(ctx, id)
}

// CancelInvitation moves a pending invitation to cancelled. Sender-only.
func (s *InvitationService) CancelInvitation(ctx context.Context, id, userID string) (*models.InvitationWithDetails, error) {
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NotFoundError("Invitation not found")
	}

	if userID != inv.SenderID {
		return nil, ForbiddenError("Only the sender can cancel this invitation")
	}

	if inv.Status != models.InvitationPending {
		return nil, InvalidStateError(fmt.Sprintf("Invitation is %s, cannot cancel", inv.Status))
	}

	updated, err := s.invitations.UpdateStatus(ctx, inv.ID, models.InvitationCancelled)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, InvalidStateError("Invitation is no longer pending, cannot cancel")
	}

	return s.invitations.GetByIDWithDetails(ctx, id)
}

// GetReceivedInvitations lists invitations addressed to the user, optionally
// filtered by status.
func (s *InvitationService) GetReceivedInvitations(ctx context.Context, userID string, status models.InvitationStatus) ([]*models.InvitationWithDetails, error) {
	if status != "" && !status.Valid() {
		return nil, InvalidError(fmt.Sprintf("Invalid invitation status: %s", status))
	}
	return s.invitations.ListForReceiver(ctx, userID, status)
}

// GetSentInvitations lists invitations the user has sent, optionally filtered
// by status.
func (s *InvitationService) GetSentInvitations(ctx context.Context, userID string, status models.InvitationStatus) ([]*models.InvitationWithDetails, error) {
	if status != "" && !status.Valid() {
		return nil, InvalidError(fmt.Sprintf("Invalid invitation status: %s", status))
	}
	return s.invitations.ListForSender(ctx, userID, status)
}

// GetTeamInvitations lists a team's invitations for its owner or admins.
func (s *InvitationService) GetTeamInvitations(ctx context.Context, teamID, requesterID string, status models.InvitationStatus) ([]*models.InvitationWithDetails, error) {
	if status != "" && !status.Valid() {
		return nil, InvalidError(fmt.Sprintf("Invalid invitation status: %s", status))
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, NotFoundError("Team not found")
	}

	role, err := s.teams.GetMemberRole(ctx, teamID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := CanViewTeamInvitations(role); err != nil {
		return nil, err
	}

	return s.invitations.ListForTeam(ctx, teamID, status)
}

// MarkExpiredInvitations flips every stale pending invitation to expired and
// returns the count. Purely corrective; the lazy checks above keep the engine
// correct even when this never runs.
func (s *InvitationService) MarkExpiredInvitations(ctx context.Context) (int64, error) {
	return s.invitations.MarkExpired(ctx, s.now())
}
