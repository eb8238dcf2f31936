package services

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/freelancehub/freelancehub/internal/db/models"
	"github.com/freelancehub/freelancehub/internal/db/repositories"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var svcInvitationCols = []string{"id", "team_id", "sender_id", "receiver_id", "role", "message", "status", "expires_at", "created_at", "updated_at"}
var svcInvitationDetailsCols = []string{
	"id", "team_id", "sender_id", "receiver_id", "role", "message", "status", "expires_at", "created_at", "updated_at",
	"sender.id", "sender.username", "sender.name", "sender.avatar_url",
	"receiver.id", "receiver.username", "receiver.name", "receiver.avatar_url",
	"team_name", "team_slug",
}

func invitationRow(status models.InvitationStatus, expiresAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(svcInvitationCols).
		AddRow("inv-1", "team-1", "user-1", "user-2", "member", nil, string(status), expiresAt, time.Now(), time.Now())
}

func invitationDetailsRow(status models.InvitationStatus, expiresAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(svcInvitationDetailsCols).
		AddRow("inv-1", "team-1", "user-1", "user-2", "member", nil, string(status), expiresAt, time.Now(), time.Now(),
			"user-1", "alice", "Alice", nil,
			"user-2", "bob", "Bob", nil,
			"Design Collective", "design-collective")
}

func newInvitationService(t *testing.T) (*InvitationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	invitations := repositories.NewInvitationRepository(sqlx.NewDb(db, "sqlmock"))
	teams := repositories.NewTeamRepository(db)
	users := repositories.NewUserRepository(db)
	return NewInvitationService(invitations, teams, users, 7*24*time.Hour), mock
}

// ---------------------------------------------------------------------------
// SendInvitation
// ---------------------------------------------------------------------------

func TestSendInvitation_Success(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE id").
		WillReturnRows(teamRow("user-1"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WithArgs("team-1", "user-1").
		WillReturnRows(memberRow("user-1", models.RoleOwner))
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WithArgs("user-2").
		WillReturnRows(userRow("user-2", "bob"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WithArgs("team-1", "user-2").
		WillReturnRows(noMemberRow())
	mock.ExpectQuery("SELECT EXISTS.*FROM invitations").
		WithArgs("team-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO invitations").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT.*FROM invitations.*INNER JOIN users").
		WillReturnRows(invitationDetailsRow(models.InvitationPending, time.Now().Add(7*24*time.Hour)))

	inv, err := svc.SendInvitation(context.Background(), "user-1", SendInvitationInput{TeamID: "team-1", ReceiverID: "user-2", Role: models.RoleMember})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != models.InvitationPending {
		t.Errorf("Status = %s, want pending", inv.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSendInvitation_MemberSender_Forbidden(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE id").
		WillReturnRows(teamRow("user-1"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WithArgs("team-1", "user-3").
		WillReturnRows(memberRow("user-3", models.RoleMember))

	_, err := svc.SendInvitation(context.Background(), "user-3", SendInvitationInput{TeamID: "team-1", ReceiverID: "user-2", Role: models.RoleMember})
	if KindOf(err) != KindForbidden {
		t.Fatalf("kind = %v, want KindForbidden (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Only team owners and admins can send invitations" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSendInvitation_ReceiverMissing_NotFound(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE id").
		WillReturnRows(teamRow("user-1"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(memberRow("user-1", models.RoleOwner))
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WillReturnRows(sqlmock.NewRows(svcUserCols))

	_, err := svc.SendInvitation(context.Background(), "user-1", SendInvitationInput{TeamID: "team-1", ReceiverID: "ghost", Role: models.RoleMember})
	if KindOf(err) != KindNotFound {
		t.Fatalf("kind = %v, want KindNotFound (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Recipient user not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSendInvitation_AlreadyMember_Conflict(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE id").
		WillReturnRows(teamRow("user-1"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(memberRow("user-1", models.RoleOwner))
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WillReturnRows(userRow("user-2", "bob"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(memberRow("user-2", models.RoleMember))

	_, err := svc.SendInvitation(context.Background(), "user-1", SendInvitationInput{TeamID: "team-1", ReceiverID: "user-2", Role: models.RoleMember})
	if KindOf(err) != KindConflict {
		t.Fatalf("kind = %v, want KindConflict (err: %v)", KindOf(err), err)
	}
	if err.Error() != "User is already a team member" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSendInvitation_DuplicatePending_Conflict(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE id").
		WillReturnRows(teamRow("user-1"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(memberRow("user-1", models.RoleOwner))
	mock.ExpectQuery("SELECT.*FROM users.*WHERE id").
		WillReturnRows(userRow("user-2", "bob"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(noMemberRow())
	mock.ExpectQuery("SELECT EXISTS.*FROM invitations").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.SendInvitation(context.Background(), "user-1", SendInvitationInput{TeamID: "team-1", ReceiverID: "user-2", Role: models.RoleMember})
	if KindOf(err) != KindConflict {
		t.Fatalf("kind = %v, want KindConflict (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Pending invitation already exists for this user" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSendInvitation_OwnerRole_Invalid(t *testing.T) {
	svc, _ := newInvitationService(t)

	_, err := svc.SendInvitation(context.Background(), "user-1", SendInvitationInput{TeamID: "team-1", ReceiverID: "user-2", Role: models.RoleOwner})
	if KindOf(err) != KindInvalid {
		t.Errorf("kind = %v, want KindInvalid (err: %v)", KindOf(err), err)
	}
}

// ---------------------------------------------------------------------------
// GetInvitationByID
// ---------------------------------------------------------------------------

func TestGetInvitationByID_ThirdParty_Forbidden(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM invitations.*INNER JOIN users").
		WillReturnRows(invitationDetailsRow(models.InvitationPending, time.Now().Add(time.Hour)))

	_, err := svc.GetInvitationByID(context.Background(), "inv-1", "user-9")
	if KindOf(err) != KindForbidden {
		t.Fatalf("kind = %v, want KindForbidden (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Unauthorized to view this invitation" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestGetInvitationByID_ExpiredOnRead_Flips(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM invitations.*INNER JOIN users").
		WillReturnRows(invitationDetailsRow(models.InvitationPending, time.Now().Add(-time.Hour)))
	mock.ExpectExec("UPDATE invitations").
		WithArgs("inv-1", models.InvitationExpired).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inv, err := svc.GetInvitationByID(context.Background(), "inv-1", "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != models.InvitationExpired {
		t.Errorf("Status = %s, want expired", inv.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// AcceptInvitation
// ---------------------------------------------------------------------------

func TestAcceptInvitation_Success(t *testing.T) {
	svc, mock := newInvitationService(t)
	future := time.Now().Add(time.Hour)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, future))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WithArgs("team-1", "user-2").
		WillReturnRows(noMemberRow())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invitations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO team_members").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT.*FROM invitations.*INNER JOIN users").
		WillReturnRows(invitationDetailsRow(models.InvitationAccepted, future))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WithArgs("team-1", "user-2").
		WillReturnRows(memberRow("user-2", models.RoleMember))

	inv, membership, err := svc.AcceptInvitation(context.Background(), "inv-1", "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != models.InvitationAccepted {
		t.Errorf("Status = %s, want accepted", inv.Status)
	}
	if membership == nil || membership.Role != models.RoleMember {
		t.Errorf("membership = %+v, want member row", membership)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAcceptInvitation_WrongRecipient_Forbidden(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, time.Now().Add(time.Hour)))

	_, _, err := svc.AcceptInvitation(context.Background(), "inv-1", "user-9")
	if KindOf(err) != KindForbidden {
		t.Fatalf("kind = %v, want KindForbidden (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Only the recipient can accept this invitation" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestAcceptInvitation_Terminal_InvalidState(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationDeclined, time.Now().Add(time.Hour)))

	_, _, err := svc.AcceptInvitation(context.Background(), "inv-1", "user-2")
	if KindOf(err) != KindInvalidState {
		t.Fatalf("kind = %v, want KindInvalidState (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Invitation is declined, cannot accept" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestAcceptInvitation_Expired_FlipsAndFails(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, time.Now().Add(-time.Hour)))
	mock.ExpectExec("UPDATE invitations").
		WithArgs("inv-1", models.InvitationExpired).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, _, err := svc.AcceptInvitation(context.Background(), "inv-1", "user-2")
	if KindOf(err) != KindExpired {
		t.Fatalf("kind = %v, want KindExpired (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Invitation has expired" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAcceptInvitation_AlreadyMember_Conflict(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, time.Now().Add(time.Hour)))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(memberRow("user-2", models.RoleMember))

	_, _, err := svc.AcceptInvitation(context.Background(), "inv-1", "user-2")
	if KindOf(err) != KindConflict {
		t.Fatalf("kind = %v, want KindConflict (err: %v)", KindOf(err), err)
	}
	if err.Error() != "You are already a member of this team" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestAcceptInvitation_LostRace_ReportsCurrentStatus(t *testing.T) {
	svc, mock := newInvitationService(t)
	future := time.Now().Add(time.Hour)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, future))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(noMemberRow())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invitations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationCancelled, future))

	_, _, err := svc.AcceptInvitation(context.Background(), "inv-1", "user-2")
	if KindOf(err) != KindInvalidState {
		t.Fatalf("kind = %v, want KindInvalidState (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Invitation is cancelled, cannot accept" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

// ---------------------------------------------------------------------------
// DeclineInvitation / CancelInvitation
// ---------------------------------------------------------------------------

func TestDeclineInvitation_Success(t *testing.T) {
	svc, mock := newInvitationService(t)
	future := time.Now().Add(time.Hour)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, future))
	mock.ExpectExec("UPDATE invitations").
		WithArgs("inv-1", models.InvitationDeclined).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT.*FROM invitations.*INNER JOIN users").
		WillReturnRows(invitationDetailsRow(models.InvitationDeclined, future))

	inv, err := svc.DeclineInvitation(context.Background(), "inv-1", "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != models.InvitationDeclined {
		t.Errorf("Status = %s, want declined", inv.Status)
	}
}

func TestDeclineInvitation_SenderNotAllowed(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, time.Now().Add(time.Hour)))

	_, err := svc.DeclineInvitation(context.Background(), "inv-1", "user-1")
	if KindOf(err) != KindForbidden {
		t.Errorf("kind = %v, want KindForbidden (err: %v)", KindOf(err), err)
	}
}

func TestCancelInvitation_Success(t *testing.T) {
	svc, mock := newInvitationService(t)
	future := time.Now().Add(time.Hour)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, future))
	mock.ExpectExec("UPDATE invitations").
		WithArgs("inv-1", models.InvitationCancelled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT.*FROM invitations.*INNER JOIN users").
		WillReturnRows(invitationDetailsRow(models.InvitationCancelled, future))

	inv, err := svc.CancelInvitation(context.Background(), "inv-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != models.InvitationCancelled {
		t.Errorf("Status = %s, want cancelled", inv.Status)
	}
}

func TestCancelInvitation_ReceiverNotAllowed(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM invitations.*WHERE id").
		WillReturnRows(invitationRow(models.InvitationPending, time.Now().Add(time.Hour)))

	_, err := svc.CancelInvitation(context.Background(), "inv-1", "user-2")
	if KindOf(err) != KindForbidden {
		t.Fatalf("kind = %v, want KindForbidden (err: %v)", KindOf(err), err)
	}
	if err.Error() != "Only the sender can cancel this invitation" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

// ---------------------------------------------------------------------------
// Team invitation listing / sweep
// ---------------------------------------------------------------------------

func TestGetTeamInvitations_MemberForbidden(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE id").
		WillReturnRows(teamRow("user-1"))
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(memberRow("user-3", models.RoleMember))

	_, err := svc.GetTeamInvitations(context.Background(), "team-1", "user-3", "")
	if KindOf(err) != KindForbidden {
		t.Errorf("kind = %v, want KindForbidden (err: %v)", KindOf(err), err)
	}
}

func TestMarkExpiredInvitations_ReturnsCount(t *testing.T) {
	svc, mock := newInvitationService(t)
	mock.ExpectExec("UPDATE invitations.*SET status = 'expired'").
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := svc.MarkExpiredInvitations(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Errorf("n = %d, want 5", n)
	}
}
