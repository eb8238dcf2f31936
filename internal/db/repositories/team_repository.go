// team_repository.go implements TeamRepository, providing database queries for
// team CRUD, slug lookup, membership management, and ownership transfer.
//
// The multi-row writes that keep teams.owner_id consistent with the membership
// table (CreateWithOwner, TransferOwnership) run inside a single transaction
// here rather than in the services layer, so a caller can never observe a team
// without its owner row.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/freelancehub/freelancehub/internal/db/models"
)

// TeamRepository handles database operations for teams and team membership
type TeamRepository struct {
	db *sql.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// CreateWithOwner creates a team and its owner membership row in one transaction.
func (r *TeamRepository) CreateWithOwner(ctx context.Context, team *models.Team) error {
	team.ID = uuid.New().String()
	team.CreatedAt = time.Now()
	team.UpdatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	teamQuery := `
		INSERT INTO teams (id, name, slug, description, kind, city, avatar_url, owner_id, parent_team_id, is_main_team, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, teamQuery,
		team.ID,
		team.Name,
		team.Slug,
		team.Description,
		team.Kind,
		team.City,
		team.AvatarURL,
		team.OwnerID,
		team.ParentTeamID,
		team.IsMainTeam,
		team.CreatedAt,
		team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	memberQuery := `
		INSERT INTO team_members (team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = tx.ExecContext(ctx, memberQuery, team.ID, team.OwnerID, models.RoleOwner, team.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create owner membership: %w", err)
	}

	return tx.Commit()
}

// GetByID retrieves a team by ID
func (r *TeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	query := `
		SELECT id, name, slug, description, kind, city, avatar_url, owner_id, parent_team_id, is_main_team, created_at, updated_at
		FROM teams
		WHERE id = $1
	`

	return r.scanTeam(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves a team by its slug
func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (*models.Team, error) {
	query := `
		SELECT id, name, slug, description, kind, city, avatar_url, owner_id, parent_team_id, is_main_team, created_at, updated_at
		FROM teams
		WHERE slug = $1
	`

	return r.scanTeam(r.db.QueryRowContext(ctx, query, slug))
}

func (r *TeamRepository) scanTeam(row *sql.Row) (*models.Team, error) {
	team := &models.Team{}
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Slug,
		&team.Description,
		&team.Kind,
		&team.City,
		&team.AvatarURL,
		&team.OwnerID,
		&team.ParentTeamID,
		&team.IsMainTeam,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return team, nil
}

// SlugExists reports whether any team already holds the given slug.
func (r *TeamRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE slug = $1)`
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return exists, nil
}

// Update updates a team's mutable fields
func (r *TeamRepository) Update(ctx context.Context, team *models.Team) error {
	team.UpdatedAt = time.Now()

	query := `
		UPDATE teams
		SET name = $2, slug = $3, description = $4, kind = $5, city = $6, avatar_url = $7, updated_at = $8
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		team.ID,
		team.Name,
		team.Slug,
		team.Description,
		team.Kind,
		team.City,
		team.AvatarURL,
		team.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}

	return nil
}

// Delete deletes a team (cascades to memberships and invitations)
func (r *TeamRepository) Delete(ctx context.Context, teamID string) error {
	query := `DELETE FROM teams WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	return nil
}

// List retrieves a paginated list of teams with their owner details
func (r *TeamRepository) List(ctx context.Context, limit, offset int) ([]*models.TeamWithOwner, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.description, t.kind, t.city, t.avatar_url, t.owner_id, t.parent_team_id, t.is_main_team, t.created_at, t.updated_at,
		       u.id, u.username, u.name, u.avatar_url
		FROM teams t
		INNER JOIN users u ON t.owner_id = u.id
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	return r.collectTeamsWithOwner(rows)
}

// Search searches for teams by name or slug
func (r *TeamRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.TeamWithOwner, error) {
	searchQuery := `
		SELECT t.id, t.name, t.slug, t.description, t.kind, t.city, t.avatar_url, t.owner_id, t.parent_team_id, t.is_main_team, t.created_at, t.updated_at,
		       u.id, u.username, u.name, u.avatar_url
		FROM teams t
		INNER JOIN users u ON t.owner_id = u.id
		WHERE t.name ILIKE $1 OR t.slug ILIKE $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`

	searchPattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, searchQuery, searchPattern, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search teams: %w", err)
	}
	defer rows.Close()

	return r.collectTeamsWithOwner(rows)
}

// GetSubTeams retrieves the direct children of a team
func (r *TeamRepository) GetSubTeams(ctx context.Context, teamID string) ([]*models.TeamWithOwner, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.description, t.kind, t.city, t.avatar_url, t.owner_id, t.parent_team_id, t.is_main_team, t.created_at, t.updated_at,
		       u.id, u.username, u.name, u.avatar_url
		FROM teams t
		INNER JOIN users u ON t.owner_id = u.id
		WHERE t.parent_team_id = $1
		ORDER BY t.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sub-teams: %w", err)
	}
	defer rows.Close()

	return r.collectTeamsWithOwner(rows)
}

func (r *TeamRepository) collectTeamsWithOwner(rows *sql.Rows) ([]*models.TeamWithOwner, error) {
	teams := make([]*models.TeamWithOwner, 0)
	for rows.Next() {
		t := &models.TeamWithOwner{}
		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Slug,
			&t.Description,
			&t.Kind,
			&t.City,
			&t.AvatarURL,
			&t.OwnerID,
			&t.ParentTeamID,
			&t.IsMainTeam,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.Owner.ID,
			&t.Owner.Username,
			&t.Owner.Name,
			&t.Owner.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

// === Membership Operations ===

// AddMember adds a user to a team with the given role
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID string, role models.Role) error {
	query := `
		INSERT INTO team_members (team_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, NOW())
	`

	_, err := r.db.ExecContext(ctx, query, teamID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a team
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// UpdateMemberRole changes a member's role within a team
func (r *TeamRepository) UpdateMemberRole(ctx context.Context, teamID, userID string, role models.Role) error {
	query := `
		UPDATE team_members
		SET role = $3
		WHERE team_id = $1 AND user_id = $2
	`

	_, err := r.db.ExecContext(ctx, query, teamID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}

	return nil
}

// GetMember retrieves a user's membership in a team
func (r *TeamRepository) GetMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	query := `
		SELECT team_id, user_id, role, joined_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`

	member := &models.TeamMember{}
	err := r.db.QueryRowContext(ctx, query, teamID, userID).Scan(
		&member.TeamID,
		&member.UserID,
		&member.Role,
		&member.JoinedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// GetMemberRole returns the user's role in the team, or RoleNone if the user is
// not a member. Authorization decisions always re-read the role through this
// query rather than trusting anything carried in the request.
func (r *TeamRepository) GetMemberRole(ctx context.Context, teamID, userID string) (models.Role, error) {
	member, err := r.GetMember(ctx, teamID, userID)
	if err != nil {
		return models.RoleNone, err
	}

	if member == nil {
		return models.RoleNone, nil
	}

	return member.Role, nil
}

// ListMembers retrieves all members of a team with user details, owner first,
// then admins, then members, oldest join first within each role.
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]*models.TeamMemberWithUser, error) {
	query := `
		SELECT tm.team_id, tm.user_id, tm.role, tm.joined_at,
		       u.username, u.name, u.avatar_url
		FROM team_members tm
		INNER JOIN users u ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY CASE tm.role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, tm.joined_at
	`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.TeamMemberWithUser, 0)
	for rows.Next() {
		member := &models.TeamMemberWithUser{}
		err := rows.Scan(
			&member.TeamID,
			&member.UserID,
			&member.Role,
			&member.JoinedAt,
			&member.Username,
			&member.Name,
			&member.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// CountMembers returns the number of members in a team
func (r *TeamRepository) CountMembers(ctx context.Context, teamID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM team_members WHERE team_id = $1`
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}

	return count, nil
}

// GetUserTeams retrieves all teams a user belongs to, with the user's role in each
func (r *TeamRepository) GetUserTeams(ctx context.Context, userID string) ([]*models.UserTeam, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.description, t.kind, t.city, t.avatar_url, t.owner_id, t.parent_team_id, t.is_main_team, t.created_at, t.updated_at,
		       tm.role
		FROM teams t
		INNER JOIN team_members tm ON t.id = tm.team_id
		WHERE tm.user_id = $1
		ORDER BY t.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.UserTeam, 0)
	for rows.Next() {
		t := &models.UserTeam{}
		err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Slug,
			&t.Description,
			&t.Kind,
			&t.City,
			&t.AvatarURL,
			&t.OwnerID,
			&t.ParentTeamID,
			&t.IsMainTeam,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

// TransferOwnership moves ownership of a team to another existing member in one
// transaction: teams.owner_id is repointed, the new owner's membership is
// promoted, and the previous owner is demoted to admin.
func (r *TeamRepository) TransferOwnership(ctx context.Context, teamID, currentOwnerID, newOwnerID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE teams SET owner_id = $2, updated_at = NOW() WHERE id = $1`,
		teamID, newOwnerID)
	if err != nil {
		return fmt.Errorf("failed to update team owner: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE team_members SET role = $3 WHERE team_id = $1 AND user_id = $2`,
		teamID, newOwnerID, models.RoleOwner)
	if err != nil {
		return fmt.Errorf("failed to promote new owner: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE team_members SET role = $3 WHERE team_id = $1 AND user_id = $2`,
		teamID, currentOwnerID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to demote previous owner: %w", err)
	}

	return tx.Commit()
}
