package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sudhanshu-m21/task-tracker-api/internal/constants"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"github.com/sudhanshu-m21/task-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidRole          = errors.New("invalid role")
	ErrEmailRequired        = errors.New("email is required")
	ErrWrongCurrentPassword = errors.New("current password is incorrect")
)

// UserService handles roster management and profile updates.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List returns all users, newest first.
func (s *UserService) List() ([]models.User, error) {
	return s.userRepo.List()
}

// Get retrieves a user by ID.
func (s *UserService) Get(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateInput represents an admin-created account.
type CreateInput struct {
	Email    string
	Password string
	Role     models.UserRole
}

// Create adds a user to the roster. The role defaults to member.
func (s *UserService) Create(input CreateInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UpdateInput carries optional admin edits to a user.
type UpdateInput struct {
	Email *string
	Role  *models.UserRole
}

// Update applies admin edits to a user.
func (s *UserService) Update(id uint64, input UpdateInput) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, ErrEmailRequired
		}
		user.Email = email
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput carries a self-service profile update. Changing the
// password requires the current one.
type UpdateProfileInput struct {
	Email           *string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile lets a user edit their own account.
func (s *UserService) UpdateProfile(id uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			return nil, ErrEmailRequired
		}
		user.Email = email
	}

	if input.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
			return nil, ErrWrongCurrentPassword
		}
		if len(input.NewPassword) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, ErrFailedToHashPassword
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// Delete removes a user from the roster. Tasks assigned to or created by
// the user keep their references.
func (s *UserService) Delete(id uint64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.userRepo.Delete(id)
}
