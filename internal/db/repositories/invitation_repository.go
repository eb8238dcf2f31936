// invitation_repository.go implements InvitationRepository over sqlx, providing
// queries for the invitation lifecycle.
//
// Status transitions use a compare-and-set guard (WHERE status = 'pending') so
// two concurrent actors can never both move the same invitation out of pending.
// Accept runs the status flip and the membership insert in one transaction.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/freelancehub/freelancehub/internal/db/models"
)

// invitationDetailsSelect aliases joined columns into the nested shapes sqlx
// scans into InvitationWithDetails.
const invitationDetailsSelect = `
	SELECT i.id, i.team_id, i.sender_id, i.receiver_id, i.role, i.message, i.status, i.expires_at, i.created_at, i.updated_at,
	       s.id AS "sender.id", s.username AS "sender.username", s.name AS "sender.name", s.avatar_url AS "sender.avatar_url",
	       r.id AS "receiver.id", r.username AS "receiver.username", r.name AS "receiver.name", r.avatar_url AS "receiver.avatar_url",
	       t.name AS team_name, t.slug AS team_slug
	FROM invitations i
	INNER JOIN users s ON i.sender_id = s.id
	INNER JOIN users r ON i.receiver_id = r.id
	INNER JOIN teams t ON i.team_id = t.id
`

// InvitationRepository handles database operations for invitations
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create inserts a new pending invitation
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	inv.ID = uuid.New().String()
	inv.Status = models.InvitationPending
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt

	query := `
		INSERT INTO invitations (id, team_id, sender_id, receiver_id, role, message, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID,
		inv.TeamID,
		inv.SenderID,
		inv.ReceiverID,
		inv.Role,
		inv.Message,
		inv.Status,
		inv.ExpiresAt,
		inv.CreatedAt,
		inv.UpdatedAt,
	)

	return err
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	query := `
		SELECT id, team_id, sender_id, receiver_id, role, message, status, expires_at, created_at, updated_at
		FROM invitations
		WHERE id = $1
	`

	inv := &models.Invitation{}
	err := r.db.GetContext(ctx, inv, query, id)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// GetByIDWithDetails retrieves an invitation with sender, receiver, and team details
func (r *InvitationRepository) GetByIDWithDetails(ctx context.Context, id string) (*models.InvitationWithDetails, error) {
	query := invitationDetailsSelect + ` WHERE i.id = $1`

	inv := &models.InvitationWithDetails{}
	err := r.db.GetContext(ctx, inv, query, id)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// ListForReceiver retrieves a user's received invitations, optionally filtered
// by status, newest first.
func (r *InvitationRepository) ListForReceiver(ctx context.Context, userID string, status models.InvitationStatus) ([]*models.InvitationWithDetails, error) {
	query := invitationDetailsSelect + ` WHERE i.receiver_id = $1`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND i.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY i.created_at DESC`

	invitations := make([]*models.InvitationWithDetails, 0)
	if err := r.db.SelectContext(ctx, &invitations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list received invitations: %w", err)
	}

	return invitations, nil
}

// ListForSender retrieves the invitations a user has sent, optionally filtered
// by status, newest first.
func (r *InvitationRepository) ListForSender(ctx context.Context, userID string, status models.InvitationStatus) ([]*models.InvitationWithDetails, error) {
	query := invitationDetailsSelect + ` WHERE i.sender_id = $1`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND i.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY i.created_at DESC`

	invitations := make([]*models.InvitationWithDetails, 0)
	if err := r.db.SelectContext(ctx, &invitations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sent invitations: %w", err)
	}

	return invitations, nil
}

// ListForTeam retrieves a team's sent invitations, optionally filtered by
// status, newest first.
func (r *InvitationRepository) ListForTeam(ctx context.Context, teamID string, status models.InvitationStatus) ([]*models.InvitationWithDetails, error) {
	query := invitationDetailsSelect + ` WHERE i.team_id = $1`
	args := []interface{}{teamID}

	if status != "" {
		query += ` AND i.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY i.created_at DESC`

	invitations := make([]*models.InvitationWithDetails, 0)
	if err := r.db.SelectContext(ctx, &invitations, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list team invitations: %w", err)
	}

	return invitations, nil
}

// HasPending reports whether a pending invitation already exists for the
// (team, receiver) pair.
func (r *InvitationRepository) HasPending(ctx context.Context, teamID, receiverID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM invitations WHERE team_id = $1 AND receiver_id = $2 AND status = 'pending')`
	err := r.db.QueryRowContext(ctx, query, teamID, receiverID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending invitation: %w", err)
	}

	return exists, nil
}

// UpdateStatus moves a pending invitation to the given terminal status. It
// returns false when the invitation was not pending anymore, without error.
func (r *InvitationRepository) UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) (bool, error) {
	query := `
		UPDATE invitations
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return false, fmt.Errorf("failed to update invitation status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// Accept marks a pending invitation accepted and inserts the membership row in
// a single transaction. It returns false when the invitation lost a concurrent
// race out of pending; in that case nothing was written.
func (r *InvitationRepository) Accept(ctx context.Context, inv *models.Invitation) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE invitations SET status = $2, updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
		inv.ID, models.InvitationAccepted)
	if err != nil {
		return false, fmt.Errorf("failed to accept invitation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES ($1, $2, $3, NOW())`,
		inv.TeamID, inv.ReceiverID, inv.Role)
	if err != nil {
		return false, fmt.Errorf("failed to create membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}

// MarkExpired flips every pending invitation whose deadline has passed to
// expired and returns how many rows changed. Used by the background sweep.
func (r *InvitationRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE invitations
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < $1
	`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark expired invitations: %w", err)
	}

	return res.RowsAffected()
}
