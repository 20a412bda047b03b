package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sudhanshu-m21/task-tracker-api/internal/constants"
	"github.com/sudhanshu-m21/task-tracker-api/internal/dto"
	"github.com/sudhanshu-m21/task-tracker-api/internal/httperr"
	"github.com/sudhanshu-m21/task-tracker-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates an account and returns a token with the user's public
// fields.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "Please provide email and password")
		return
	}

	user, token, err := h.authService.Register(services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		Success: true,
		Token:   token,
		User:    dto.ToUserDTO(*user),
	})
}

// Login verifies credentials and returns a fresh token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "Please provide email and password")
		return
	}

	user, token, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Success: true,
		Token:   token,
		User:    dto.ToUserDTO(*user),
	})
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		httperr.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrEmailTaken):
		httperr.Conflict(c, "User already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		httperr.Unauthorized(c, "Invalid credentials")
	case errors.Is(err, services.ErrUserNotFound):
		httperr.NotFound(c, "User not found")
	default:
		httperr.Internal(c, err)
	}
}
