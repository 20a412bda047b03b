package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sudhanshu-m21/task-tracker-api/internal/dto"
	"github.com/sudhanshu-m21/task-tracker-api/internal/httperr"
	"github.com/sudhanshu-m21/task-tracker-api/internal/middleware"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"github.com/sudhanshu-m21/task-tracker-api/internal/services"
)

// UserHandler coordinates roster and profile HTTP handlers.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns the full roster. Admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List()
	if err != nil {
		httperr.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// GetUser returns one user by ID. Admin only.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.Get(id)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// CreateUser adds a user to the roster. Admin only.
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Email    string          `json:"email" binding:"required,email"`
		Password string          `json:"password" binding:"required"`
		Role     models.UserRole `json:"role"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.Create(services.CreateInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// UpdateUser applies admin edits to a user.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Email *string          `json:"email"`
		Role  *models.UserRole `json:"role"`
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.Update(id, services.UpdateInput{
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// DeleteUser removes a user from the roster. Admin only.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(id); err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetMe returns the authenticated caller's account.
func (h *UserHandler) GetMe(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "")
		return
	}

	user, err := h.userService.Get(identity.UserID)
	if err != nil {
		respondUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateMe lets the caller edit their own profile. A password change
// requires the current password.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "")
		return
	}

	type UpdateProfileRequest struct {
		Email           *string `json:"email"`
		CurrentPassword string  `json:"currentPassword"`
		NewPassword     string  `json:"newPassword"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(identity.UserID, services.UpdateProfileInput{
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		respondUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func respondUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		httperr.NotFound(c, "User not found")
	case errors.Is(err, services.ErrEmailTaken):
		httperr.Conflict(c, "User already exists")
	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrPasswordTooShort):
		httperr.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrWrongCurrentPassword):
		httperr.Unauthorized(c, "Current password is incorrect")
	default:
		httperr.Internal(c, err)
	}
}

// parseIDParam parses a numeric path parameter, responding 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}
