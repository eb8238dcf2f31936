// audit.go provides Gin middleware that records authenticated write operations
// to the audit log table.
package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/freelancehub/freelancehub/internal/audit"
	"github.com/freelancehub/freelancehub/internal/config"
	"github.com/freelancehub/freelancehub/internal/db/models"
	"github.com/freelancehub/freelancehub/internal/db/repositories"
	"github.com/freelancehub/freelancehub/internal/safego"
)

// AuditMiddleware logs authenticated actions to the database with default settings.
func AuditMiddleware(auditRepo *repositories.AuditRepository) gin.HandlerFunc {
	return AuditMiddlewareWithConfig(auditRepo, nil)
}

// AuditMiddlewareWithConfig logs actions according to the audit configuration.
// With a nil config only successful write operations are recorded.
func AuditMiddlewareWithConfig(auditRepo *repositories.AuditRepository, auditCfg *config.AuditConfig) gin.HandlerFunc {
	return AuditMiddlewareWithShipper(auditRepo, auditCfg, nil)
}

// AuditMiddlewareWithShipper additionally mirrors each recorded entry to an
// external shipper. The database write stays the system of record; shipping
// failures are logged and never affect the request.
func AuditMiddlewareWithShipper(auditRepo *repositories.AuditRepository, auditCfg *config.AuditConfig, shipper audit.Shipper) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request first
		c.Next()

		// Skip OPTIONS always
		if c.Request.Method == "OPTIONS" {
			return
		}

		logReadOps := auditCfg != nil && auditCfg.LogReadOperations
		logFailedReqs := auditCfg != nil && auditCfg.LogFailedRequests

		isReadOp := c.Request.Method == "GET"
		isFailed := c.Writer.Status() >= 400

		if isReadOp && !logReadOps {
			return
		}
		if isFailed && !logFailedReqs {
			return
		}

		path := c.Request.URL.Path
		ipAddress := c.ClientIP()

		auditLog := &models.AuditLog{
			Action:    auditAction(c.Request.Method, path),
			IPAddress: &ipAddress,
			CreatedAt: time.Now(),
		}

		if userID := CurrentUserID(c); userID != "" {
			uid := userID
			auditLog.UserID = &uid
		}

		if rt := resourceTypeFromPath(path); rt != "" {
			auditLog.ResourceType = &rt
		}

		// Team-scoped routes carry the team ID as a path parameter.
		if teamID := c.Param("id"); teamID != "" && strings.Contains(path, "/teams/") {
			tid := teamID
			auditLog.TeamID = &tid
		}

		status := c.Writer.Status()
		metadata := map[string]interface{}{
			"status_code": status,
		}
		if rid, exists := c.Get(RequestIDKey); exists {
			metadata["request_id"] = rid
		}
		auditLog.Metadata = metadata

		// Write asynchronously so audit persistence never adds latency to the
		// response path. Best-effort: a failed insert is logged and dropped.
		safego.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := auditRepo.CreateAuditLog(ctx, auditLog); err != nil {
				slog.Error("failed to create audit log", "action", auditLog.Action, "error", err)
			}

			if shipper != nil {
				entry := &audit.LogEntry{
					Timestamp:  auditLog.CreatedAt,
					Action:     auditLog.Action,
					IPAddress:  ipAddress,
					StatusCode: status,
					Metadata:   metadata,
				}
				if auditLog.UserID != nil {
					entry.UserID = *auditLog.UserID
				}
				if auditLog.TeamID != nil {
					entry.TeamID = *auditLog.TeamID
				}
				if auditLog.ResourceType != nil {
					entry.ResourceType = *auditLog.ResourceType
				}
				if err := shipper.Ship(ctx, entry); err != nil {
					slog.Error("failed to ship audit log", "action", entry.Action, "error", err)
				}
			}
		})
	}
}

// auditAction names the recorded action. Invitation and membership transitions
// get domain verbs; everything else falls back to "METHOD /path".
func auditAction(method, path string) string {
	switch {
	case strings.HasSuffix(path, "/accept"):
		return "invitation.accepted"
	case strings.HasSuffix(path, "/decline"):
		return "invitation.declined"
	case strings.Contains(path, "/invitations") && method == "DELETE":
		return "invitation.cancelled"
	case strings.Contains(path, "/invitations") && method == "POST":
		return "invitation.sent"
	case strings.HasSuffix(path, "/transfer-ownership"):
		return "team.ownership_transferred"
	case strings.HasSuffix(path, "/leave"):
		return "team.member_left"
	case strings.Contains(path, "/members") && method == "POST":
		return "team.member_added"
	case strings.Contains(path, "/members") && method == "DELETE":
		return "team.member_removed"
	case strings.Contains(path, "/members") && method == "PUT":
		return "team.member_role_changed"
	case strings.HasSuffix(path, "/teams") && method == "POST":
		return "team.created"
	case strings.Contains(path, "/teams") && method == "PUT":
		return "team.updated"
	case strings.Contains(path, "/teams") && method == "DELETE":
		return "team.deleted"
	default:
		return method + " " + path
	}
}

// resourceTypeFromPath classifies the request target for audit filtering.
func resourceTypeFromPath(path string) string {
	switch {
	case strings.Contains(path, "/invitations"):
		return "invitation"
	case strings.Contains(path, "/members") || strings.HasSuffix(path, "/leave") ||
		strings.HasSuffix(path, "/transfer-ownership"):
		return "membership"
	case strings.Contains(path, "/teams"):
		return "team"
	case strings.Contains(path, "/users") || strings.Contains(path, "/auth"):
		return "user"
	default:
		return ""
	}
}
