package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sudhanshu-m21/task-tracker-api/internal/auth"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"github.com/sudhanshu-m21/task-tracker-api/internal/policy"
	"github.com/sudhanshu-m21/task-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskForbidden    = errors.New("not authorized to access this task")
	ErrTitleRequired    = errors.New("title is required")
	ErrDueDateRequired  = errors.New("due date is required")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrAssigneeNotFound = errors.New("assigned user does not exist")
)

const taskPreloads = "AssignedTo,CreatedBy,Documents"

// TaskService handles task business logic, including the visibility rules
// applied when listing.
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	documents *DocumentService
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, documents *DocumentService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		documents: documents,
	}
}

// ListTasksInput represents request-level filters for listing tasks.
type ListTasksInput struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time // start of the requested calendar day
	AssignedToID *uint64
	SortBy       string
	SortOrder    string
	Page         int
	Limit        int
}

// Page bundles a task page with its pagination metadata.
type Page struct {
	Tasks []models.Task
	Total int64
	Page  int
	Pages int
}

// ListTasks returns the tasks visible to the caller under the given
// filters. Without an explicit assignee filter, non-admin callers only see
// tasks they are assigned to or created. An explicit assignee filter is an
// explicit scope and is honored for any caller.
func (s *TaskService) ListTasks(identity auth.Identity, input ListTasksInput) (*Page, error) {
	filter := repository.TaskFilter{
		Status:       input.Status,
		Priority:     input.Priority,
		AssignedToID: input.AssignedToID,
		SortBy:       input.SortBy,
		Page:         input.Page,
		PageSize:     input.Limit,
	}

	if input.DueDate != nil {
		d := *input.DueDate
		dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		dayEnd := dayStart.Add(24 * time.Hour)
		filter.DueFrom = &dayStart
		filter.DueTo = &dayEnd
	}

	if input.AssignedToID == nil && !identity.IsAdmin() {
		filter.VisibleToUserID = identity.UserID
	}

	if input.SortBy == "" {
		// Newest first when no sort is requested.
		filter.SortBy = "createdAt"
		filter.SortDesc = true
	} else {
		filter.SortDesc = input.SortOrder == "desc"
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	pages := 0
	if input.Limit > 0 {
		pages = int((total + int64(input.Limit) - 1) / int64(input.Limit))
	}

	return &Page{
		Tasks: tasks,
		Total: total,
		Page:  input.Page,
		Pages: pages,
	}, nil
}

// Get returns a task if the caller may view it.
func (s *TaskService) Get(taskID uint64, identity auth.Identity) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if !policy.DecideTask(identity.Role, identity.UserID, task, policy.ActionView) {
		return nil, ErrTaskForbidden
	}

	return task, nil
}

// CreateTaskInput represents input for creating a task. Documents, if any,
// must already be staged in blob storage.
type CreateTaskInput struct {
	Title        string
	Description  string
	Status       models.TaskStatus
	Priority     models.TaskPriority
	DueDate      time.Time
	AssignedToID uint64
}

// Create validates input, verifies the assignee exists, and persists the
// task with its staged documents in one write.
func (s *TaskService) Create(identity auth.Identity, input CreateTaskInput, docs []models.Document) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.DueDate.IsZero() {
		return nil, ErrDueDateRequired
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusPending
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	if _, err := s.userRepo.FindByID(input.AssignedToID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to verify assignee: %w", err)
	}

	task := &models.Task{
		Title:        title,
		Description:  input.Description,
		Status:       status,
		Priority:     priority,
		DueDate:      input.DueDate,
		AssignedToID: input.AssignedToID,
		CreatedByID:  identity.UserID,
		Documents:    docs,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.findTask(task.ID)
}

// UpdateTaskInput represents a partial task update.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	AssignedToID *uint64
}

// Update applies a partial update if the caller may modify the task.
// Reassignment does not re-check that the new assignee exists.
func (s *TaskService) Update(taskID uint64, identity auth.Identity, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if !policy.DecideTask(identity.Role, identity.UserID, task, policy.ActionUpdate) {
		return nil, ErrTaskForbidden
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.AssignedToID != nil {
		task.AssignedToID = *input.AssignedToID
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.findTask(task.ID)
}

// Delete removes a task and all its document blobs. Only the creator or an
// admin may delete.
func (s *TaskService) Delete(taskID uint64, identity auth.Identity) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if !policy.DecideTask(identity.Role, identity.UserID, task, policy.ActionDelete) {
		return ErrTaskForbidden
	}

	s.documents.PurgeAll(task)

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

func (s *TaskService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, strings.Split(taskPreloads, ",")...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
