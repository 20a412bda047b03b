package dto

import (
	"time"

	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"github.com/sudhanshu-m21/task-tracker-api/internal/services"
)

// DocumentDTO represents an attached document in API responses.
type DocumentDTO struct {
	ID           uint64    `json:"id"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}

// TaskDTO represents a task in API responses.
type TaskDTO struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     time.Time           `json:"due_date"`
	AssignedTo  *UserRefDTO         `json:"assigned_to,omitempty"`
	CreatedBy   *UserRefDTO         `json:"created_by,omitempty"`
	Documents   []DocumentDTO       `json:"documents"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// PaginationDTO is the pagination envelope of list responses.
type PaginationDTO struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// TaskListResponse represents a paginated list of tasks.
type TaskListResponse struct {
	Tasks      []TaskDTO     `json:"tasks"`
	Pagination PaginationDTO `json:"pagination"`
}

// ToDocumentDTO converts a Document model to DocumentDTO
func ToDocumentDTO(doc models.Document) DocumentDTO {
	return DocumentDTO{
		ID:           doc.ID,
		OriginalName: doc.OriginalName,
		ContentType:  doc.ContentType,
		Size:         doc.Size,
		CreatedAt:    doc.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include user references if preloaded
	if task.AssignedTo.ID != 0 {
		ref := ToUserRefDTO(task.AssignedTo)
		dto.AssignedTo = &ref
	}
	if task.CreatedBy.ID != 0 {
		ref := ToUserRefDTO(task.CreatedBy)
		dto.CreatedBy = &ref
	}

	dto.Documents = make([]DocumentDTO, len(task.Documents))
	for i, doc := range task.Documents {
		dto.Documents[i] = ToDocumentDTO(doc)
	}

	return dto
}

// ToTaskListResponse converts a task page to the list response
func ToTaskListResponse(page *services.Page) TaskListResponse {
	items := make([]TaskDTO, len(page.Tasks))
	for i, task := range page.Tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Pagination: PaginationDTO{
			Total: page.Total,
			Page:  page.Page,
			Pages: page.Pages,
		},
	}
}
