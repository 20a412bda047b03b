package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// IsValid reports whether the role is one of the known values.
func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	AssignedTasks []Task `gorm:"foreignKey:AssignedToID" json:"-"`
	CreatedTasks  []Task `gorm:"foreignKey:CreatedByID" json:"-"`
}
