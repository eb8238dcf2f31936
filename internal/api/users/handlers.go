// Package users implements account endpoints: registration, login, profile
// reads and updates, and user search for invitation pickers.
package users

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freelancehub/freelancehub/internal/api/httperr"
	"github.com/freelancehub/freelancehub/internal/auth"
	"github.com/freelancehub/freelancehub/internal/config"
	"github.com/freelancehub/freelancehub/internal/db/models"
	"github.com/freelancehub/freelancehub/internal/db/repositories"
	"github.com/freelancehub/freelancehub/internal/middleware"
	"github.com/freelancehub/freelancehub/internal/services"
)

// Handlers handles account and profile endpoints
type Handlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	teams    *services.TeamService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(cfg *config.Config, userRepo *repositories.UserRepository, teams *services.TeamService) *Handlers {
	return &Handlers{
		cfg:      cfg,
		userRepo: userRepo,
		teams:    teams,
	}
}

type registerRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Username string  `json:"username" binding:"required,min=3,max=39"`
	Name     string  `json:"name" binding:"required"`
	Password string  `json:"password" binding:"required"`
	City     *string `json:"city"`
}

// @Summary      Register
// @Description  Create a new user account and return a signed JWT.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  registerRequest  true  "Account details"
// @Success      201  {object}  map[string]interface{}  "token: string, user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      409  {object}  map[string]interface{}  "Email or username already registered"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/register [post]
// RegisterHandler creates a new account
// POST /api/v1/auth/register
func (h *Handlers) RegisterHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BCryptCost)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user := &models.User{
			Email:        strings.ToLower(req.Email),
			Username:     req.Username,
			Name:         req.Name,
			PasswordHash: hash,
			City:         req.City,
		}

		if err := h.userRepo.CreateUser(c.Request.Context(), user); err != nil {
			if services.IsUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Email or username is already registered"})
				return
			}
			httperr.Respond(c, err, "Failed to create user")
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, h.cfg.Auth.TokenExpiry())
		if err != nil {
			httperr.Respond(c, err, "Failed to generate token")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// @Summary      Login
// @Description  Authenticate with email and password and return a signed JWT.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body  loginRequest  true  "Credentials"
// @Success      200  {object}  map[string]interface{}  "token: string, user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "Invalid credentials"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/auth/login [post]
// LoginHandler authenticates a user
// POST /api/v1/auth/login
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		user, err := h.userRepo.GetUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
		if err != nil {
			httperr.Respond(c, err, "Failed to authenticate")
			return
		}

		// Same response for unknown email and wrong password so the endpoint
		// cannot be used to probe which addresses have accounts.
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Email, h.cfg.Auth.TokenExpiry())
		if err != nil {
			httperr.Respond(c, err, "Failed to generate token")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  user,
		})
	}
}

// @Summary      Current user
// @Description  Return the authenticated user's profile.
// @Tags         Auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Router       /api/v1/auth/me [get]
// MeHandler returns the authenticated user
// GET /api/v1/auth/me
func (h *Handlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := c.Get("user")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

type updateProfileRequest struct {
	Name      *string `json:"name"`
	City      *string `json:"city"`
	AvatarURL *string `json:"avatar_url"`
}

// @Summary      Update profile
// @Description  Update the authenticated user's display name, city, or avatar.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  updateProfileRequest  true  "Fields to change"
// @Success      200  {object}  map[string]interface{}  "user: models.User"
// @Failure      400  {object}  map[string]interface{}  "Invalid request body"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/users/me [put]
// UpdateMeHandler updates the authenticated user's profile
// PUT /api/v1/users/me
func (h *Handlers) UpdateMeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		userID := middleware.CurrentUserID(c)
		user, err := h.userRepo.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			httperr.Respond(c, err, "Failed to load user")
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Name cannot be empty"})
				return
			}
			user.Name = *req.Name
		}
		if req.City != nil {
			user.City = req.City
		}
		if req.AvatarURL != nil {
			user.AvatarURL = req.AvatarURL
		}

		if err := h.userRepo.UpdateUser(c.Request.Context(), user); err != nil {
			httperr.Respond(c, err, "Failed to update user")
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// @Summary      Get user
// @Description  Retrieve a user's public profile by ID.
// @Tags         Users
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "user: public profile"
// @Failure      404  {object}  map[string]interface{}  "User not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/users/{id} [get]
// GetUserHandler retrieves a public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.userRepo.GetUserByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httperr.Respond(c, err, "Failed to retrieve user")
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		// Public view: no email, no timestamps beyond join date.
		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":         user.ID,
				"username":   user.Username,
				"name":       user.Name,
				"avatar_url": user.AvatarURL,
				"city":       user.City,
				"created_at": user.CreatedAt,
			},
		})
	}
}

// @Summary      Search users
// @Description  Search users by username or name, for invitation pickers.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        q         query  string  true   "Search query"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "users: []models.UserSummary"
// @Failure      400  {object}  map[string]interface{}  "Missing query"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/users/search [get]
// SearchUsersHandler searches users by username or name
// GET /api/v1/users/search?q=ada&page=1&per_page=20
func (h *Handlers) SearchUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
			return
		}

		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}
		offset := (page - 1) * perPage

		found, err := h.userRepo.Search(c.Request.Context(), query, perPage, offset)
		if err != nil {
			httperr.Respond(c, err, "Failed to search users")
			return
		}

		summaries := make([]models.UserSummary, 0, len(found))
		for _, u := range found {
			summaries = append(summaries, u.Summary())
		}

		c.JSON(http.StatusOK, gin.H{
			"users": summaries,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
			},
		})
	}
}

// @Summary      My teams
// @Description  List the teams the authenticated user belongs to, with their role in each.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "teams: []models.UserTeam"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/users/me/teams [get]
// MyTeamsHandler lists the caller's teams
// GET /api/v1/users/me/teams
func (h *Handlers) MyTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.CurrentUserID(c)

		teams, err := h.teams.GetUserTeams(c.Request.Context(), userID)
		if err != nil {
			httperr.Respond(c, err, "Failed to list teams")
			return
		}

		c.JSON(http.StatusOK, gin.H{"teams": teams})
	}
}
