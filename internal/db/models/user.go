// Package models defines the database entities for the FreelanceHub collaboration
// backend: users, teams, team memberships, invitations, and audit logs.
// Models carry no query logic; all database access lives in the repositories package.
package models

import "time"

// User represents a registered marketplace user
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	AvatarURL    *string    `json:"avatar_url" db:"avatar_url"`
	City         *string    `json:"city" db:"city"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// UserSummary is the compact user shape embedded in invitation and membership
// responses (enough for the frontend to render a name + avatar without a second fetch).
type UserSummary struct {
	ID        string  `json:"id" db:"id"`
	Username  string  `json:"username" db:"username"`
	Name      string  `json:"name" db:"name"`
	AvatarURL *string `json:"avatar_url" db:"avatar_url"`
}

// Summary returns the compact display shape for this user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
	}
}
