// invitation.go defines the Invitation model and its status machine:
// pending → accepted | declined | cancelled | expired, all four terminal.
package models

import "time"

// InvitationStatus is the lifecycle state of an invitation
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationCancelled InvitationStatus = "cancelled"
	InvitationExpired   InvitationStatus = "expired"
)

// Valid reports whether s is a known invitation status.
func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationDeclined,
		InvitationCancelled, InvitationExpired:
		return true
	}
	return false
}

// Terminal reports whether s is a final state. Every status except pending is
// terminal; no transition ever leaves a terminal state.
func (s InvitationStatus) Terminal() bool {
	return s.Valid() && s != InvitationPending
}

// Invitation is a time-bounded offer for a user to join a team at a given role.
// Invitations are never deleted; cancellation, decline, and expiry are terminal
// statuses, not row removal.
type Invitation struct {
	ID         string           `json:"id" db:"id"`
	TeamID     string           `json:"team_id" db:"team_id"`
	SenderID   string           `json:"sender_id" db:"sender_id"`
	ReceiverID string           `json:"receiver_id" db:"receiver_id"`
	Role       Role             `json:"role" db:"role"`
	Message    *string          `json:"message" db:"message"`
	Status     InvitationStatus `json:"status" db:"status"`
	ExpiresAt  time.Time        `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the invitation's deadline has passed at the given
// instant. This is the derived predicate; the stored Status field is only a
// cache of it that the lazy-expiration paths and the background sweep refresh.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// InvitationWithDetails carries the nested sender/receiver/team summaries the
// frontend renders in invitation lists.
type InvitationWithDetails struct {
	Invitation
	Sender   UserSummary `json:"sender"`
	Receiver UserSummary `json:"receiver"`
	TeamName string      `json:"team_name" db:"team_name"`
	TeamSlug string      `json:"team_slug" db:"team_slug"`
}
