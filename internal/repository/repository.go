package repository

import (
	"time"

	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task together with any attached documents
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering, sorting and pagination,
	// returning the page and the total count over the filtered set
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete removes a task and its document metadata
	Delete(id uint64) error

	// AppendDocuments adds document records to a task in the given order
	AppendDocuments(taskID uint64, docs []models.Document) error

	// RemoveDocument removes a single document record from a task
	RemoveDocument(taskID, documentID uint64) error
}

// TaskFilter holds filtering options for listing tasks.
//
// When AssignedToID is set it is an explicit scope and VisibleToUserID is
// ignored, mirroring the query semantics the API documents. Otherwise a
// non-zero VisibleToUserID restricts results to tasks the user is assigned
// to or created.
type TaskFilter struct {
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	DueFrom        *time.Time
	DueTo          *time.Time
	AssignedToID   *uint64
	VisibleToUserID uint64
	SortBy         string
	SortDesc       bool
	Page           int
	PageSize       int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List lists all users, newest first
	List() ([]models.User, error)

	// Update updates a user
	Update(user *models.User) error

	// Delete removes a user
	Delete(id uint64) error
}
