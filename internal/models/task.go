package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress || s == TaskStatusCompleted
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid reports whether the priority is one of the known values.
func (p TaskPriority) IsValid() bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}

type Task struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	Title        string       `gorm:"not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority     TaskPriority `gorm:"type:varchar(20);not null;default:'medium';index" json:"priority"`
	DueDate      time.Time    `gorm:"not null;index" json:"due_date"`
	AssignedToID uint64       `gorm:"not null;index" json:"assigned_to_id"`
	CreatedByID  uint64       `gorm:"not null;index" json:"created_by_id"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relations
	AssignedTo User       `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	CreatedBy  User       `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Documents  []Document `gorm:"foreignKey:TaskID" json:"documents"`
}
