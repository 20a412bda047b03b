package models

import "time"

// Document is owned by its parent task; it has no lifecycle of its own.
// Rows are ordered by ID, which preserves upload order within a batch.
type Document struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	TaskID       uint64    `gorm:"not null;index" json:"task_id"`
	OriginalName string    `gorm:"type:varchar(255);not null" json:"original_name"`
	StoredName   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"stored_name"`
	ContentType  string    `gorm:"type:varchar(100);not null" json:"content_type"`
	Size         int64     `gorm:"not null" json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}
