package dto

import (
	"time"

	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
)

// UserDTO represents a user in API responses. The password hash never
// leaves the model layer.
type UserDTO struct {
	ID        uint64          `json:"id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserRefDTO is the minimal public view embedded in task responses.
type UserRefDTO struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success bool    `json:"success"`
	Token   string  `json:"token"`
	User    UserDTO `json:"user"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserRefDTO converts a User model to its minimal public view
func ToUserRefDTO(user models.User) UserRefDTO {
	return UserRefDTO{
		ID:    user.ID,
		Email: user.Email,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}
