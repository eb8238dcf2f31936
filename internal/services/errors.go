// Package services implements the business logic of FreelanceHub: slug
// allocation, the role authorization policy, the team lifecycle, and the
// invitation state machine. Services coordinate across repositories; the API
// layer maps the error kinds defined here onto HTTP status codes and never
// issues SQL of its own.
package services

import (
	"errors"

	"github.com/lib/pq"
)

// Kind classifies a service failure so the transport layer can pick a status
// code without parsing messages.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidState
	KindExpired
)

// Error is a user-facing service failure. Message is shown to the caller
// verbatim, so it names the specific rule that was violated rather than a
// generic denial.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFoundError reports an absent team, user, or invitation.
func NotFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// ForbiddenError reports that the actor lacks the role or relationship the
// action requires.
func ForbiddenError(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// ConflictError reports a uniqueness violation (duplicate pending invitation,
// already-a-member, slug collision).
func ConflictError(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// InvalidError reports malformed or out-of-range input.
func InvalidError(msg string) error {
	return &Error{Kind: KindInvalid, Message: msg}
}

// InvalidStateError reports an action against an invitation that already left
// the state the action requires.
func InvalidStateError(msg string) error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

// ExpiredError reports the expiry sub-case of InvalidState; raising it is
// always paired with the status flip to expired.
func ExpiredError(msg string) error {
	return &Error{Kind: KindExpired, Message: msg}
}

// KindOf extracts the kind from a service error, returning KindInternal for
// anything else.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// uniqueViolation is the PostgreSQL error code for unique-constraint breaks.
// The store's constraints are the final arbiter for every race the read-side
// checks cannot close; detecting 23505 lets services turn those races into
// Conflict errors instead of 500s.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
