package services

import (
	"context"
	"fmt"

	"github.com/freelancehub/freelancehub/internal/db/models"
	"github.com/freelancehub/freelancehub/internal/db/repositories"
)

// AuditService exposes the team-scoped audit trail. Writes happen in the HTTP
// middleware; this service only gates reads behind team roles.
type AuditService struct {
	audit *repositories.AuditRepository
	teams *repositories.TeamRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(audit *repositories.AuditRepository, teams *repositories.TeamRepository) *AuditService {
	return &AuditService{audit: audit, teams: teams}
}

// GetTeamAuditLogs returns the audit entries recorded against a team.
// Only the team owner and admins may read the trail.
func (s *AuditService) GetTeamAuditLogs(ctx context.Context, teamID, actorID string, limit, offset int) ([]*models.AuditLog, int, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, 0, NotFoundError("Team not found")
	}

	role, err := s.teams.GetMemberRole(ctx, teamID, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get member role: %w", err)
	}
	if !role.AtLeast(models.RoleAdmin) {
		return nil, 0, ForbiddenError("Only team owners and admins can view the audit log")
	}

	logs, total, err := s.audit.ListAuditLogs(ctx, repositories.AuditFilters{TeamID: &teamID}, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
