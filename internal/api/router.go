// Package api wires together all HTTP routes for the FreelanceHub collaboration backend.
//
// Route grouping philosophy:
//   - Team discovery routes (directory, search, profile, member roster) are
//     public with optional authentication, because the marketplace renders team
//     pages to logged-out visitors.
//   - Everything that creates or mutates state (teams, memberships,
//     invitations, profiles) requires a valid JWT, and successful mutations are
//     recorded in the audit trail.
//   - Auth endpoints carry a tighter rate limit than the rest of the API to
//     slow down credential stuffing.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/freelancehub/freelancehub/internal/api/invitations"
	"github.com/freelancehub/freelancehub/internal/audit"
	"github.com/freelancehub/freelancehub/internal/api/teams"
	"github.com/freelancehub/freelancehub/internal/api/users"
	"github.com/freelancehub/freelancehub/internal/config"
	"github.com/freelancehub/freelancehub/internal/db/repositories"
	"github.com/freelancehub/freelancehub/internal/jobs"
	"github.com/freelancehub/freelancehub/internal/middleware"
	"github.com/freelancehub/freelancehub/internal/safego"
	"github.com/freelancehub/freelancehub/internal/services"
)

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	expirySweeper *jobs.InvitationExpirySweeper
	sweeperCancel context.CancelFunc
	rateLimiters  []middleware.ClientLimiter
	auditShipper  *audit.MultiShipper
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.expirySweeper != nil {
		bg.expirySweeper.Stop()
	}
	if bg.sweeperCancel != nil {
		bg.sweeperCancel()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	if bg.auditShipper != nil {
		if err := bg.auditShipper.Close(); err != nil {
			slog.Error("failed to close audit shipper", "error", err)
		}
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	// Initialize repositories. The invitation repository runs its accept
	// transaction through sqlx, so it wraps the shared pool rather than
	// opening a second one.
	userRepo := repositories.NewUserRepository(db)
	teamRepo := repositories.NewTeamRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	invitationRepo := repositories.NewInvitationRepository(sqlx.NewDb(db, "postgres"))

	// Initialize services
	slugAllocator := services.NewSlugAllocator(teamRepo)
	teamService := services.NewTeamService(teamRepo, userRepo, slugAllocator)
	invitationService := services.NewInvitationService(invitationRepo, teamRepo, userRepo, cfg.Invitations.Expiry())
	auditService := services.NewAuditService(auditRepo, teamRepo)

	// Initialize handlers
	userHandlers := users.NewHandlers(cfg, userRepo, teamService)
	teamHandlers := teams.NewHandlers(teamService, auditService)
	invitationHandlers := invitations.NewHandlers(invitationService)

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Rate limiters. The general limiter backend comes from config so
	// multi-replica deployments can share a Redis budget; the auth limiter is
	// always in-process because login abuse is per-instance noise anyway.
	var generalLimiter middleware.ClientLimiter
	if cfg.Security.RateLimiting.Enabled {
		var err error
		generalLimiter, err = middleware.NewLimiterFromConfig(cfg.Security.RateLimiting)
		if err != nil {
			log.Fatalf("Failed to initialize rate limiter: %v", err)
		}
		bg.rateLimiters = append(bg.rateLimiters, generalLimiter)
	}

	authLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	bg.rateLimiters = append(bg.rateLimiters, authLimiter)

	// System endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db))
	router.GET("/version", versionHandler())

	api := router.Group("/api/v1")
	if generalLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(generalLimiter))
	}

	// Auth endpoints: registration and login are public but tightly limited.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(authLimiter))
	{
		authGroup.POST("/register", userHandlers.RegisterHandler())
		authGroup.POST("/login", userHandlers.LoginHandler())
		authGroup.GET("/me", middleware.AuthMiddleware(userRepo), userHandlers.MeHandler())
	}

	// Public discovery endpoints. Optional auth so a future personalized
	// ranking can see who is asking without forcing a login.
	public := api.Group("")
	public.Use(middleware.OptionalAuthMiddleware(userRepo))
	{
		public.GET("/teams", teamHandlers.ListTeamsHandler())
		public.GET("/teams/search", teamHandlers.SearchTeamsHandler())
		public.GET("/teams/slug/:slug", teamHandlers.GetTeamBySlugHandler())
		public.GET("/teams/:id", teamHandlers.GetTeamHandler())
		public.GET("/teams/:id/members", teamHandlers.ListMembersHandler())
		public.GET("/teams/:id/subteams", teamHandlers.SubTeamsHandler())
		public.GET("/users/:id", userHandlers.GetUserHandler())
	}

	// Authenticated endpoints. Mutations flow through the audit middleware;
	// what it records is controlled by the audit config section.
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(userRepo))
	if cfg.Audit.Enabled {
		var shipper *audit.MultiShipper
		if len(cfg.Audit.Shippers) > 0 {
			var err error
			shipper, err = audit.NewMultiShipper(cfg.Audit.Shippers)
			if err != nil {
				log.Fatalf("Failed to initialize audit shippers: %v", err)
			}
			bg.auditShipper = shipper
		}
		if shipper != nil {
			authed.Use(middleware.AuditMiddlewareWithShipper(auditRepo, &cfg.Audit, shipper))
		} else {
			authed.Use(middleware.AuditMiddlewareWithConfig(auditRepo, &cfg.Audit))
		}
	}
	{
		// Teams
		authed.POST("/teams", teamHandlers.CreateTeamHandler())
		authed.PUT("/teams/:id", teamHandlers.UpdateTeamHandler())
		authed.DELETE("/teams/:id", teamHandlers.DeleteTeamHandler())
		authed.GET("/teams/:id/audit-logs", teamHandlers.AuditLogsHandler())

		// Membership
		authed.POST("/teams/:id/members", teamHandlers.AddMemberHandler())
		authed.DELETE("/teams/:id/members/:user_id", teamHandlers.RemoveMemberHandler())
		authed.PUT("/teams/:id/members/:user_id", teamHandlers.UpdateMemberRoleHandler())
		authed.POST("/teams/:id/leave", teamHandlers.LeaveTeamHandler())
		authed.POST("/teams/:id/transfer-ownership", teamHandlers.TransferOwnershipHandler())

		// Invitations
		authed.POST("/teams/:id/invitations", invitationHandlers.SendInvitationHandler())
		authed.GET("/teams/:id/invitations", invitationHandlers.TeamInvitationsHandler())
		authed.GET("/invitations/received", invitationHandlers.ReceivedInvitationsHandler())
		authed.GET("/invitations/sent", invitationHandlers.SentInvitationsHandler())
		authed.GET("/invitations/:id", invitationHandlers.GetInvitationHandler())
		authed.POST("/invitations/:id/accept", invitationHandlers.AcceptInvitationHandler())
		authed.POST("/invitations/:id/decline", invitationHandlers.DeclineInvitationHandler())
		authed.DELETE("/invitations/:id", invitationHandlers.CancelInvitationHandler())

		// Profiles
		authed.GET("/users/search", userHandlers.SearchUsersHandler())
		authed.PUT("/users/me", userHandlers.UpdateMeHandler())
		authed.GET("/users/me/teams", userHandlers.MyTeamsHandler())
	}

	// Start the invitation expiry sweep. The engine stays correct without it
	// because every read path performs the same lazy check; the sweep keeps
	// listings and counters honest for invitations nobody touches.
	sweeper := jobs.NewInvitationExpirySweeper(invitationService, cfg.Invitations.SweepIntervalMinutes)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	bg.expirySweeper = sweeper
	bg.sweeperCancel = sweepCancel
	safego.Go(func() {
		sweeper.Start(sweepCtx)
	})

	return router, bg
}

// @Summary      Health check
// @Description  Returns the health status of the service. Checks database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error: database not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service
func readinessHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the global
	// handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
