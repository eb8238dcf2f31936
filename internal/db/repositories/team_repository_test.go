package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/freelancehub/freelancehub/internal/db/models"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var teamCols = []string{"id", "name", "slug", "description", "kind", "city", "avatar_url", "owner_id", "parent_team_id", "is_main_team", "created_at", "updated_at"}
var teamWithOwnerCols = append(append([]string{}, teamCols...), "owner_id", "owner_username", "owner_name", "owner_avatar_url")
var teamMemberCols = []string{"team_id", "user_id", "role", "joined_at"}
var teamMemberWithUserCols = []string{"team_id", "user_id", "role", "joined_at", "username", "name", "avatar_url"}

// ---------------------------------------------------------------------------
// Row builders
// ---------------------------------------------------------------------------

func sampleTeamRow() *sqlmock.Rows {
	return sqlmock.NewRows(teamCols).
		AddRow("team-1", "Design Collective", "design-collective", nil, "agency", nil, nil, "user-1", nil, false, time.Now(), time.Now())
}

func emptyTeamRow() *sqlmock.Rows {
	return sqlmock.NewRows(teamCols)
}

func sampleTeamWithOwnerRow() *sqlmock.Rows {
	return sqlmock.NewRows(teamWithOwnerCols).
		AddRow("team-1", "Design Collective", "design-collective", nil, "agency", nil, nil, "user-1", nil, false, time.Now(), time.Now(),
			"user-1", "alice", "Alice", nil)
}

func sampleMemberRow(role models.Role) *sqlmock.Rows {
	return sqlmock.NewRows(teamMemberCols).
		AddRow("team-1", "user-2", string(role), time.Now())
}

func emptyMemberRow() *sqlmock.Rows {
	return sqlmock.NewRows(teamMemberCols)
}

func newTeamRepo(t *testing.T) (*TeamRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTeamRepository(db), mock
}

// ---------------------------------------------------------------------------
// CreateWithOwner
// ---------------------------------------------------------------------------

func TestCreateWithOwner_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO teams").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO team_members").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	team := &models.Team{Name: "Design Collective", Slug: "design-collective", Kind: models.TeamKindAgency, OwnerID: "user-1"}
	if err := repo.CreateWithOwner(context.Background(), team); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if team.ID == "" {
		t.Error("expected generated ID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateWithOwner_MemberInsertFails_RollsBack(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO teams").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO team_members").
		WillReturnError(errDB)
	mock.ExpectRollback()

	team := &models.Team{Name: "Design Collective", Slug: "design-collective", Kind: models.TeamKindAgency, OwnerID: "user-1"}
	if err := repo.CreateWithOwner(context.Background(), team); err == nil {
		t.Error("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// GetByID / GetBySlug / SlugExists
// ---------------------------------------------------------------------------

func TestGetTeamByID_Found(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE id").
		WithArgs("team-1").
		WillReturnRows(sampleTeamRow())

	team, err := repo.GetByID(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if team == nil {
		t.Fatal("expected team, got nil")
	}
	if team.Slug != "design-collective" {
		t.Errorf("Slug = %s, want design-collective", team.Slug)
	}
}

func TestGetTeamByID_NotFound(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE id").
		WillReturnRows(emptyTeamRow())

	team, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if team != nil {
		t.Error("expected nil, got non-nil")
	}
}

func TestGetTeamBySlug_Found(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE slug").
		WithArgs("design-collective").
		WillReturnRows(sampleTeamRow())

	team, err := repo.GetBySlug(context.Background(), "design-collective")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if team == nil {
		t.Fatal("expected team, got nil")
	}
}

func TestSlugExists(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("design-collective").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.SlugExists(context.Background(), "design-collective")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected slug to exist")
	}
}

// ---------------------------------------------------------------------------
// Update / Delete
// ---------------------------------------------------------------------------

func TestUpdateTeam_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectExec("UPDATE teams").
		WillReturnResult(sqlmock.NewResult(1, 1))

	team := &models.Team{ID: "team-1", Name: "Renamed", Slug: "renamed", Kind: models.TeamKindAgency}
	if err := repo.Update(context.Background(), team); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteTeam_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectExec("DELETE FROM teams").
		WithArgs("team-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Delete(context.Background(), "team-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Membership
// ---------------------------------------------------------------------------

func TestAddMember_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectExec("INSERT INTO team_members").
		WithArgs("team-1", "user-2", models.RoleMember).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.AddMember(context.Background(), "team-1", "user-2", models.RoleMember); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRemoveMember_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectExec("DELETE FROM team_members").
		WithArgs("team-1", "user-2").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.RemoveMember(context.Background(), "team-1", "user-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateMemberRole_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectExec("UPDATE team_members").
		WithArgs("team-1", "user-2", models.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.UpdateMemberRole(context.Background(), "team-1", "user-2", models.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetMemberRole_Member(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT.*FROM team_members").
		WithArgs("team-1", "user-2").
		WillReturnRows(sampleMemberRow(models.RoleAdmin))

	role, err := repo.GetMemberRole(context.Background(), "team-1", "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != models.RoleAdmin {
		t.Errorf("role = %s, want admin", role)
	}
}

func TestGetMemberRole_NotAMember(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT.*FROM team_members").
		WillReturnRows(emptyMemberRow())

	role, err := repo.GetMemberRole(context.Background(), "team-1", "stranger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if role != models.RoleNone {
		t.Errorf("role = %q, want RoleNone", role)
	}
}

func TestListMembers_OrderedByRole(t *testing.T) {
	repo, mock := newTeamRepo(t)
	rows := sqlmock.NewRows(teamMemberWithUserCols).
		AddRow("team-1", "user-1", "owner", time.Now(), "alice", "Alice", nil).
		AddRow("team-1", "user-2", "member", time.Now(), "bob", "Bob", nil)
	mock.ExpectQuery("SELECT.*FROM team_members.*INNER JOIN users").
		WithArgs("team-1").
		WillReturnRows(rows)

	members, err := repo.ListMembers(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len(members) = %d, want 2", len(members))
	}
	if members[0].Role != models.RoleOwner {
		t.Errorf("first member role = %s, want owner", members[0].Role)
	}
}

func TestCountMembers(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM team_members").
		WithArgs("team-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountMembers(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestGetUserTeams_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	rows := sqlmock.NewRows(append(append([]string{}, teamCols...), "role")).
		AddRow("team-1", "Design Collective", "design-collective", nil, "agency", nil, nil, "user-1", nil, false, time.Now(), time.Now(), "owner")
	mock.ExpectQuery("SELECT.*FROM teams.*INNER JOIN team_members").
		WithArgs("user-1").
		WillReturnRows(rows)

	teams, err := repo.GetUserTeams(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(teams) != 1 {
		t.Fatalf("len(teams) = %d, want 1", len(teams))
	}
	if teams[0].Role != models.RoleOwner {
		t.Errorf("role = %s, want owner", teams[0].Role)
	}
}

// ---------------------------------------------------------------------------
// TransferOwnership
// ---------------------------------------------------------------------------

func TestTransferOwnership_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE teams SET owner_id").
		WithArgs("team-1", "user-2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE team_members SET role").
		WithArgs("team-1", "user-2", models.RoleOwner).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE team_members SET role").
		WithArgs("team-1", "user-1", models.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.TransferOwnership(context.Background(), "team-1", "user-1", "user-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransferOwnership_PromoteFails_RollsBack(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE teams SET owner_id").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE team_members SET role").
		WillReturnError(errDB)
	mock.ExpectRollback()

	if err := repo.TransferOwnership(context.Background(), "team-1", "user-1", "user-2"); err == nil {
		t.Error("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// ---------------------------------------------------------------------------
// List / Search / GetSubTeams
// ---------------------------------------------------------------------------

func TestListTeams_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT.*FROM teams.*INNER JOIN users").
		WithArgs(20, 0).
		WillReturnRows(sampleTeamWithOwnerRow())

	teams, err := repo.List(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(teams) != 1 {
		t.Fatalf("len(teams) = %d, want 1", len(teams))
	}
	if teams[0].Owner.Username != "alice" {
		t.Errorf("owner username = %s, want alice", teams[0].Owner.Username)
	}
}

func TestSearchTeams_Success(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT.*FROM teams.*ILIKE").
		WithArgs("%design%", 20, 0).
		WillReturnRows(sampleTeamWithOwnerRow())

	teams, err := repo.Search(context.Background(), "design", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(teams) != 1 {
		t.Errorf("len(teams) = %d, want 1", len(teams))
	}
}

func TestGetSubTeams_Empty(t *testing.T) {
	repo, mock := newTeamRepo(t)
	mock.ExpectQuery("SELECT.*FROM teams.*WHERE t.parent_team_id").
		WithArgs("team-1").
		WillReturnRows(sqlmock.NewRows(teamWithOwnerCols))

	teams, err := repo.GetSubTeams(context.Background(), "team-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(teams) != 0 {
		t.Errorf("len(teams) = %d, want 0", len(teams))
	}
}
