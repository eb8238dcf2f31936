// team.go defines the Team model: a collaborative group with a URL-safe slug,
// a denormalized owner pointer, and optional nesting under a parent team.
package models

import "time"

// TeamKind enumerates the kinds of teams the marketplace supports
type TeamKind string

const (
	TeamKindProject TeamKind = "project"
	TeamKindAgency  TeamKind = "agency"
	TeamKindStartup TeamKind = "startup"
)

// Valid reports whether k is one of the known team kinds.
func (k TeamKind) Valid() bool {
	switch k {
	case TeamKindProject, TeamKindAgency, TeamKindStartup:
		return true
	}
	return false
}

// Team represents a team/namespace on the marketplace.
//
// OwnerID is denormalized: the same user always also holds a team_members row
// with role owner. The two writes are only ever performed together inside
// TeamRepository.CreateWithOwner and TeamRepository.TransferOwnership so they
// cannot diverge.
type Team struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Description  *string   `json:"description" db:"description"`
	Kind         TeamKind  `json:"kind" db:"kind"`
	City         *string   `json:"city" db:"city"`
	AvatarURL    *string   `json:"avatar_url" db:"avatar_url"`
	OwnerID      string    `json:"owner_id" db:"owner_id"`
	ParentTeamID *string   `json:"parent_team_id" db:"parent_team_id"`
	IsMainTeam   bool      `json:"is_main_team" db:"is_main_team"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// TeamWithOwner includes the owner's display details for list/detail responses
type TeamWithOwner struct {
	Team
	Owner UserSummary `json:"owner"`
}
