package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sudhanshu-m21/task-tracker-api/internal/auth"
	"github.com/sudhanshu-m21/task-tracker-api/internal/constants"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"github.com/sudhanshu-m21/task-tracker-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles registration, login and token verification.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RegisterInput represents the required information to create a new account.
type RegisterInput struct {
	Email    string
	Password string
}

// Register creates a user with the member role and returns the user
// together with a signed token.
func (s *AuthService) Register(input RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, "", ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleMember,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email and wrong password both yield ErrInvalidCredentials so
// callers cannot enumerate accounts.
func (s *AuthService) Login(input LoginInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// Verify parses a bearer token and resolves the caller identity from the
// user row, so a deleted user's token stops working immediately.
func (s *AuthService) Verify(tokenString string) (auth.Identity, error) {
	identity, err := s.tokens.Parse(tokenString)
	if err != nil {
		return auth.Identity{}, err
	}

	user, err := s.userRepo.FindByID(identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return auth.Identity{}, auth.ErrInvalidToken
		}
		return auth.Identity{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	return auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
