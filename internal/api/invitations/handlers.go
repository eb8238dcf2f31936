// Package invitations implements the invitation lifecycle endpoints: sending,
// listing, and the accept/decline/cancel transitions out of pending.
package invitations

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/freelancehub/freelancehub/internal/api/httperr"
	"github.com/freelancehub/freelancehub/internal/db/models"
	"github.com/freelancehub/freelancehub/internal/middleware"
	"github.com/freelancehub/freelancehub/internal/services"
	"github.com/freelancehub/freelancehub/internal/telemetry"
)

// Handlers handles invitation endpoints
type Handlers struct {
	invitations *services.InvitationService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(invitations *services.InvitationService) *Handlers {
	return &Handlers{invitations: invitations}
}

type sendInvitationRequest struct {
	ReceiverID string  `json:"receiver_id" binding:"required"`
	Role       string  `json:"role" binding:"required"`
	Message    *string `json:"message"`
}

// @Summary      Send invitation
// @Description  Invite a user to join the team at a given role. Owner and admins only; only the owner may offer admin.
// @Tags         Invitations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "Team ID"
// @Param        body  body  sendInvitationRequest  true  "Receiver and role"
// @Success      201  {object}  map[string]interface{}  "invitation: models.InvitationWithDetails"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body or role"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Team or user not found"
// @Failure      409  {object}  map[string]interface{}  "Already a member or already invited"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/invitations [post]
// SendInvitationHandler creates a pending invitation
// POST /api/v1/teams/:id/invitations
func (h *Handlers) SendInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendInvitationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		role, ok := models.ParseRole(req.Role)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}

		invitation, err := h.invitations.SendInvitation(c.Request.Context(), middleware.CurrentUserID(c), services.SendInvitationInput{
			TeamID:     c.Param("id"),
			ReceiverID: req.ReceiverID,
			Role:       role,
			Message:    req.Message,
		})
		if err != nil {
			httperr.Respond(c, err, "Failed to send invitation")
			return
		}

		telemetry.InvitationsSentTotal.Inc()
		c.JSON(http.StatusCreated, gin.H{"invitation": invitation})
	}
}

// @Summary      Team invitations
// @Description  List a team's invitations, optionally filtered by status. Owner and admins only.
// @Tags         Invitations
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "Team ID"
// @Param        status  query  string  false  "Filter by status (pending, accepted, declined, cancelled, expired)"
// @Success      200  {object}  map[string]interface{}  "invitations: []models.InvitationWithDetails"
// @Failure      400  {object}  map[string]interface{}  "Invalid status"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Insufficient role"
// @Failure      404  {object}  map[string]interface{}  "Team not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/teams/{id}/invitations [get]
// TeamInvitationsHandler lists a team's invitations
// GET /api/v1/teams/:id/invitations?status=pending
func (h *Handlers) TeamInvitationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.InvitationStatus(c.Query("status"))

		list, err := h.invitations.GetTeamInvitations(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c), status)
		if err != nil {
			httperr.Respond(c, err, "Failed to list invitations")
			return
		}

		c.JSON(http.StatusOK, gin.H{"invitations": list})
	}
}

// @Summary      Get invitation
// @Description  Retrieve an invitation. Visible to its sender, its receiver, and the team's owner or admins.
// @Tags         Invitations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Invitation ID"
// @Success      200  {object}  map[string]interface{}  "invitation: models.InvitationWithDetails"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Not a party to the invitation"
// @Failure      404  {object}  map[string]interface{}  "Invitation not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/invitations/{id} [get]
// GetInvitationHandler retrieves a single invitation
// GET /api/v1/invitations/:id
func (h *Handlers) GetInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invitation, err := h.invitations.GetInvitationByID(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
		if err != nil {
			httperr.Respond(c, err, "Failed to retrieve invitation")
			return
		}

		c.JSON(http.StatusOK, gin.H{"invitation": invitation})
	}
}

// @Summary      Accept invitation
// @Description  Accept a pending invitation; the membership row is created in the same transaction as the status flip.
// @Tags         Invitations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Invitation ID"
// @Success      200  {object}  map[string]interface{}  "invitation, membership"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Not the receiver"
// @Failure      404  {object}  map[string]interface{}  "Invitation not found"
// @Failure      409  {object}  map[string]interface{}  "Already resolved or already a member"
// @Failure      410  {object}  map[string]interface{}  "Invitation has expired"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/invitations/{id}/accept [post]
// AcceptInvitationHandler accepts a pending invitation
// POST /api/v1/invitations/:id/accept
func (h *Handlers) AcceptInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invitation, membership, err := h.invitations.AcceptInvitation(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
		if err != nil {
			if services.KindOf(err) == services.KindExpired {
				telemetry.InvitationsExpiredTotal.Inc()
			}
			httperr.Respond(c, err, "Failed to accept invitation")
			return
		}

		telemetry.InvitationsAcceptedTotal.Inc()
		c.JSON(http.StatusOK, gin.H{
			"invitation": invitation,
			"membership": membership,
		})
	}
}

// @Summary      Decline invitation
// @Description  Decline a pending invitation. Receiver only.
// @Tags         Invitations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Invitation ID"
// @Success      200  {object}  map[string]interface{}  "invitation: models.InvitationWithDetails"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Not the receiver"
// @Failure      404  {object}  map[string]interface{}  "Invitation not found"
// @Failure      409  {object}  map[string]interface{}  "Already resolved"
// @Failure      410  {object}  map[string]interface{}  "Invitation has expired"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/invitations/{id}/decline [post]
// DeclineInvitationHandler declines a pending invitation
// POST /api/v1/invitations/:id/decline
func (h *Handlers) DeclineInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invitation, err := h.invitations.DeclineInvitation(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
		if err != nil {
			if services.KindOf(err) == services.KindExpired {
				telemetry.InvitationsExpiredTotal.Inc()
			}
			httperr.Respond(c, err, "Failed to decline invitation")
			return
		}

		telemetry.InvitationsDeclinedTotal.Inc()
		c.JSON(http.StatusOK, gin.H{"invitation": invitation})
	}
}

// @Summary      Cancel invitation
// @Description  Cancel a pending invitation. Sender only.
// @Tags         Invitations
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Invitation ID"
// @Success      200  {object}  map[string]interface{}  "invitation: models.InvitationWithDetails"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      403  {object}  map[string]interface{}  "Not the sender"
// @Failure      404  {object}  map[string]interface{}  "Invitation not found"
// @Failure      409  {object}  map[string]interface{}  "Already resolved"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/invitations/{id} [delete]
// CancelInvitationHandler cancels a pending invitation
// DELETE /api/v1/invitations/:id
func (h *Handlers) CancelInvitationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invitation, err := h.invitations.CancelInvitation(c.Request.Context(), c.Param("id"), middleware.CurrentUserID(c))
		if err != nil {
			httperr.Respond(c, err, "Failed to cancel invitation")
			return
		}

		telemetry.InvitationsCancelledTotal.Inc()
		c.JSON(http.StatusOK, gin.H{"invitation": invitation})
	}
}

// @Summary      Received invitations
// @Description  List invitations addressed to the caller, optionally filtered by status.
// @Tags         Invitations
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  map[string]interface{}  "invitations: []models.InvitationWithDetails"
// @Failure      400  {object}  map[string]interface{}  "Invalid status"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/invitations/received [get]
// ReceivedInvitationsHandler lists the caller's incoming invitations
// GET /api/v1/invitations/received?status=pending
func (h *Handlers) ReceivedInvitationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.InvitationStatus(c.Query("status"))

		list, err := h.invitations.GetReceivedInvitations(c.Request.Context(), middleware.CurrentUserID(c), status)
		if err != nil {
			httperr.Respond(c, err, "Failed to list invitations")
			return
		}

		c.JSON(http.StatusOK, gin.H{"invitations": list})
	}
}

// @Summary      Sent invitations
// @Description  List invitations the caller has sent, optionally filtered by status.
// @Tags         Invitations
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  map[string]interface{}  "invitations: []models.InvitationWithDetails"
// @Failure      400  {object}  map[string]interface{}  "Invalid status"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/invitations/sent [get]
// SentInvitationsHandler lists the caller's outgoing invitations
// GET /api/v1/invitations/sent?status=pending
func (h *Handlers) SentInvitationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.InvitationStatus(c.Query("status"))

		list, err := h.invitations.GetSentInvitations(c.Request.Context(), middleware.CurrentUserID(c), status)
		if err != nil {
			httperr.Respond(c, err, "Failed to list invitations")
			return
		}

		c.JSON(http.StatusOK, gin.H{"invitations": list})
	}
}
