package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
)

var (
	ErrMissingSigningKey = errors.New("token manager requires a signing key")
	ErrInvalidToken      = errors.New("invalid or expired token")
)

// Identity is the authenticated caller decoded from a bearer token.
type Identity struct {
	UserID uint64
	Email  string
	Role   models.UserRole
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	key    []byte
	expiry time.Duration
}

// NewTokenManager creates a TokenManager with the given signing key and
// token lifetime.
func NewTokenManager(key string, expiry time.Duration) (*TokenManager, error) {
	if key == "" {
		return nil, ErrMissingSigningKey
	}
	return &TokenManager{key: []byte(key), expiry: expiry}, nil
}

// Generate issues a signed token embedding the user's identity.
func (tm *TokenManager) Generate(user *models.User) (string, error) {
	now := time.Now()
	c := claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			// A fresh jti makes every issued token distinct even within
			// the same second.
			ID:        gonanoid.Must(16),
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(tm.key)
}

// Parse verifies a token string and returns the embedded identity.
// Malformed, expired, or foreign-key tokens all map to ErrInvalidToken.
func (tm *TokenManager) Parse(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.key, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		UserID: userID,
		Email:  c.Email,
		Role:   models.UserRole(c.Role),
	}, nil
}
