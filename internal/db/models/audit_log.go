// audit_log.go defines the AuditLog model for recording security-relevant
// events, capturing actor, action, affected resource, client IP, and arbitrary metadata.
package models

import "time"

// AuditLog represents an audit log entry for tracking user actions
type AuditLog struct {
	ID           string                 `json:"id"`
	UserID       *string                `json:"user_id"` // Nullable for system actions
	TeamID       *string                `json:"team_id"`
	Action       string                 `json:"action"`        // "team.created", "member.removed", "invitation.accepted"
	ResourceType *string                `json:"resource_type"` // "team", "member", "invitation", "user"
	ResourceID   *string                `json:"resource_id"`   // UUID of affected resource
	Metadata     map[string]interface{} `json:"metadata"`      // JSONB: additional context
	IPAddress    *string                `json:"ip_address"`
	CreatedAt    time.Time              `json:"created_at"`
}
