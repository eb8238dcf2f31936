// team_member.go defines models for user-to-team membership and the role
// hierarchy used by the authorization policy.
package models

import "time"

// Role is a member's standing within a team
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"

	// RoleNone is never stored; it represents the absence of a membership row
	// when a role is fed into the authorization policy.
	RoleNone Role = ""
)

// Valid reports whether r is a storable role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Rank orders roles by authority: owner > admin > member > none.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	}
	return 0
}

// AtLeast reports whether r carries at least the authority of other.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// ParseRole converts a request string into a Role, returning false for
// anything that is not a storable role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// TeamMember represents a user's membership in a team (one row per (team, user) pair)
type TeamMember struct {
	TeamID   string    `json:"team_id" db:"team_id"`
	UserID   string    `json:"user_id" db:"user_id"`
	Role     Role      `json:"role" db:"role"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// TeamMemberWithUser includes user details for member-list rendering
type TeamMemberWithUser struct {
	TeamMember
	Username  string  `json:"username" db:"username"`
	Name      string  `json:"name" db:"name"`
	AvatarURL *string `json:"avatar_url" db:"avatar_url"`
}

// UserTeam includes the member's role alongside team details for a user's
// team list.
type UserTeam struct {
	Team
	Role Role `json:"role" db:"role"`
}
