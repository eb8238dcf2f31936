// Package teams implements team lifecycle and membership endpoints: team CRUD
// with slug allocation, the member roster, role changes, leaving, ownership
// transfer, and the team-scoped audit trail.
package teams

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freelancehub/freelancehub/internal/api/httperr"
	"github.com/freelancehub/freelancehub/internal/db/models"
	"github.com/freelancehub/freelancehub/internal/middleware"
	"github.com/freelancehub/freelancehub/internal/services"
)

// Handlers handles team and membership endpoints
type Handlers struct {
	teams *services.TeamService
	audit *services.AuditService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(teams *services.TeamService, audit *services.AuditService) *Handlers {
	return &Handlers{teams: teams, audit: audit}
}

// pagination parses the shared page/per_page query parameters.
func pagination(c *gin.Context) (page, perPage, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage, (page - 1) * perPage
}

type createTeamRequest struct {
	Name         string  `json:"name" binding:"required"`
	Description  *string `json:"description"`
	Kind         string  `json:"kind" binding:"required"`
	City         *string `json:"city"`
	AvatarURL    *string `json:"avatar_url"`
	ParentTeamID *string `json:"parent_team_id"`
	IsMainTeam   bool    `json:"is_main_team"`
}

// @Summary      Create team
// @Description  Create a team; the caller becomes its owner and the slug is derived from the name.
// @Tags         Teams
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  createTeamRequest  true  "Team details"
// @Success      201  {object}  map[string]interface{}  "team: models.TeamWithOwner"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      409  {object}  map[string]interface{}  "Slug conflict"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams [post]
// CreateTeamHandler creates a team owned by the caller
// POST /api/v1/teams
func (h *Handlers) CreateTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTeamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		team, err := h.teams.CreateTeam(c.Request.Context(), middleware.CurrentUserID(c), services.CreateTeamInput{
			Name:         req.Name,
			Description:  req.Description,
			Kind:         models.TeamKind(req.Kind),
			City:         req.City,
			AvatarURL:    req.AvatarURL,
			ParentTeamID: req.ParentTeamID,
			IsMainTeam:   req.IsMainTeam,
		})
		if err != nil {
			httperr.Respond(c, err, "Failed to create team")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"team": team})
	}
}

// @Summary      List teams
// @Description  Get a paginated directory of teams.
// @Tags         Teams
// @Produce      json
// @Param        page      query  int  false  "Page number (default 1)"
// @Param        per_page  query  int  false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "teams: []models.TeamWithOwner"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams [get]
// ListTeamsHandler lists teams with pagination
// GET /api/v1/teams?page=1&per_page=20
func (h *Handlers) ListTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, perPage, offset := pagination(c)

		teams, err := h.teams.ListTeams(c.Request.Context(), perPage, offset)
		if err != nil {
			httperr.Respond(c, err, "Failed to list teams")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"teams": teams,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
			},
		})
	}
}

// @Summary      Search teams
// @Description  Search teams by name or slug.
// @Tags         Teams
// @Produce      json
// @Param        q         query  string  true   "Search query"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "teams: []models.TeamWithOwner"
// @Failure      400  {object}  map[string]interface{}  "Missing query"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/search [get]
// SearchTeamsHandler searches teams by name or slug
// GET /api/v1/teams/search?q=design
func (h *Handlers) SearchTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
			return
		}

		page, perPage, offset := pagination(c)

		teams, err := h.teams.SearchTeams(c.Request.Context(), query, perPage, offset)
		if err != nil {
			httperr.Respond(c, err, "Failed to search teams")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"teams": teams,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
			},
		})
	}
}

// @Summary      Get team
// @Description  Retrieve a team by ID.
// @Tags         Teams
// @Produce      json
// @Param        id  path  string  true  "Team ID"
// @Success      200  {object}  map[string]interface{}  "team: models.Team"
// @Failure      404  {object}  map[string]interface{}  "Team not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id} [get]
// GetTeamHandler retrieves a team by ID
// GET /api/v1/teams/:id
func (h *Handlers) GetTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		team, err := h.teams.GetTeamByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Respond(c, err, "Failed to retrieve team")
			return
		}

		c.JSON(http.StatusOK, gin.H{"team": team})
	}
}

// @Summary      Get team by slug
// @Description  Retrieve a team by its URL slug.
// @Tags         Teams
// @Produce      json
// @Param        slug  path  string  true  "Team slug"
// @Success      200  {object}  map[string]interface{}  "team: models.Team"
// @Failure      404  {object}  map[string]interface{}  "Team not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/slug/{slug} [get]
// GetTeamBySlugHandler retrieves a team by slug
// GET /api/v1/teams/slug/:slug
func (h *Handlers) GetTeamBySlugHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		team, err := h.teams.GetTeamBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			httperr.Respond(c, err, "Failed to retrieve team")
			return
		}

		c.JSON(http.StatusOK, gin.H{"team": team})
	}
}

type updateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Kind        *string `json:"kind"`
	City        *string `json:"city"`
	AvatarURL   *string `json:"avatar_url"`
}

// @Summary      Update team
// @Description  Update team fields; renaming regenerates the slug. Owner only.
// @Tags         Teams
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Team ID"
// @Param        body  body  updateTeamRequest  true  "Fields to change"
// @Success      200  {object}  map[string]interface{}  "team: models.Team"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Not the team owner"
// @Failure      404  {object}  map[string]interface{}  "Team not found"
// @Failure      409  {object}  map[string]interface{}  "Slug conflict"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id} [put]
// UpdateTeamHandler updates a team
// PUT /api/v1/teams/:id
func (h *Handlers) UpdateTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateTeamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		var kind *models.TeamKind
		if req.Kind != nil {
			k := models.TeamKind(*req.Kind)
			kind = &k
		}

		team, err := h.teams.UpdateTeam(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), services.UpdateTeamInput{
			Name:        req.Name,
			Description: req.Description,
			Kind:        kind,
			City:        req.City,
			AvatarURL:   req.AvatarURL,
		})
		if err != nil {
			httperr.Respond(c, err, "Failed to update team")
			return
		}

		c.JSON(http.StatusOK, gin.H{"team": team})
	}
}

// @Summary      Delete team
// @Description  Delete a team and its memberships. Owner only.
// @Tags         Teams
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Team ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Not the team owner"
// @Failure      404  {object}  map[string]interface{}  "Team not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id} [delete]
// DeleteTeamHandler deletes a team
// DELETE /api/v1/teams/:id
func (h *Handlers) DeleteTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.teams.DeleteTeam(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c)); err != nil {
			httperr.Respond(c, err, "Failed to delete team")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Team deleted"})
	}
}

// @Summary      List sub-teams
// @Description  List a team's direct child teams.
// @Tags         Teams
// @Produce      json
// @Param        id  path  string  true  "Team ID"
// @Success      200  {object}  map[string]interface{}  "teams: []models.TeamWithOwner"
// @Failure      404  {object}  map[string]interface{}  "Team not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/subteams [get]
// SubTeamsHandler lists a team's direct children
// GET /api/v1/teams/:id/subteams
func (h *Handlers) SubTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		subTeams, err := h.teams.GetSubTeams(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Respond(c, err, "Failed to list sub-teams")
			return
		}

		c.JSON(http.StatusOK, gin.H{"teams": subTeams})
	}
}

// @Summary      List members
// @Description  List a team's members, owner first, with user details.
// @Tags         Members
// @Produce      json
// @Param        id  path  string  true  "Team ID"
// @Success      200  {object}  map[string]interface{}  "members: []models.TeamMemberWithUser"
// @Failure      404  {object}  map[string]interface{}  "Team not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/members [get]
// ListMembersHandler lists a team's members
// GET /api/v1/teams/:id/members
func (h *Handlers) ListMembersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		members, err := h.teams.GetTeamMembers(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Respond(c, err, "Failed to list members")
			return
		}

		c.JSON(http.StatusOK, gin.H{"members": members})
	}
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// @Summary      Add member
// @Description  Add a user to the team directly. Owner and admins only; only the owner may grant admin.
// @Tags         Members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "Team ID"
// @Param        body  body  addMemberRequest  true  "User and role"
// @Success      201  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body or role"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Team or user not found"
// @Failure      409  {object}  map[string]interface{}  "Already a member"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/members [post]
// AddMemberHandler adds a member to a team
// POST /api/v1/teams/:id/members
func (h *Handlers) AddMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addMemberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		role, ok := models.ParseRole(req.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}

		err := h.teams.AddMember(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), req.UserID, role)
		if err != nil {
			httperr.Respond(c, err, "Failed to add member")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "Member added"})
	}
}

// @Summary      Remove member
// @Description  Remove a member from the team. Owner and admins only; admins cannot remove other admins.
// @Tags         Members
// @Security     Bearer
// @Produce      json
// @Param        id       path  string  true  "Team ID"
// @Param        user_id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Team or member not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/members/{user_id} [delete]
// RemoveMemberHandler removes a member
// DELETE /api/v1/teams/:id/members/:user_id
func (h *Handlers) RemoveMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.teams.RemoveMember(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), c.Param("user_id"))
		if err != nil {
			httperr.Respond(c, err, "Failed to remove member")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
	}
}

type updateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// @Summary      Change member role
// @Description  Promote or demote a member between admin and member. Owner only.
// @Tags         Members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Team ID"
// @Param        user_id  path  string                   true  "User ID"
// @Param        body     body  updateMemberRoleRequest  true  "New role"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Invalid role"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Not the team owner"
// @Failure      404  {object}  map[string]interface{}  "Team or member not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/members/{user_id} [put]
// UpdateMemberRoleHandler changes a member's role
// PUT /api/v1/teams/:id/members/:user_id
func (h *Handlers) UpdateMemberRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateMemberRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		role, ok := models.ParseRole(req.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}

		err := h.teams.UpdateMemberRole(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), c.Param("user_id"), role)
		if err != nil {
			httperr.Respond(c, err, "Failed to update member role")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Member role updated"})
	}
}

// @Summary      Leave team
// @Description  Leave a team. The owner cannot leave; ownership must be transferred first.
// @Tags         Members
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Team ID"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Owner cannot leave"
// @Failure      404  {object}  map[string]interface{}  "Team not found or not a member"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/leave [post]
// LeaveTeamHandler removes the caller's own membership
// POST /api/v1/teams/:id/leave
func (h *Handlers) LeaveTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.teams.LeaveTeam(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c)); err != nil {
			httperr.Respond(c, err, "Failed to leave team")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Left team"})
	}
}

type transferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id" binding:"required"`
}

// @Summary      Transfer ownership
// @Description  Hand the team to another existing member; the previous owner becomes an admin.
// @Tags         Members
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "Team ID"
// @Param        body  body  transferOwnershipRequest  true  "New owner"
// @Success      200  {object}  map[string]interface{}  "message"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Not the team owner"
// @Failure      404  {object}  map[string]interface{}  "Team or member not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/transfer-ownership [post]
// TransferOwnershipHandler transfers team ownership
// POST /api/v1/teams/:id/transfer-ownership
func (h *Handlers) TransferOwnershipHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transferOwnershipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		err := h.teams.TransferOwnership(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), req.NewOwnerID)
		if err != nil {
			httperr.Respond(c, err, "Failed to transfer ownership")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Ownership transferred"})
	}
}

// @Summary      Team audit log
// @Description  Read the team's audit trail. Owner and admins only.
// @Tags         Teams
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true   "Team ID"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "logs: []models.AuditLog, pagination: {page, per_page, total}"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Team not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/audit-logs [get]
// AuditLogsHandler returns the team's audit trail
// GET /api/v1/teams/:id/audit-logs
func (h *Handlers) AuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, perPage, offset := pagination(c)

		logs, total, err := h.audit.GetTeamAuditLogs(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), perPage, offset)
		if err != nil {
			httperr.Respond(c, err, "Failed to retrieve audit logs")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"logs": logs,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}
