package repository

import (
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns maps client-supplied sort keys to real columns. Anything
// outside this table falls back to created_at rather than reaching the
// query verbatim.
var sortColumns = map[string]string{
	"title":      "tasks.title",
	"status":     "tasks.status",
	"priority":   "tasks.priority",
	"dueDate":    "tasks.due_date",
	"due_date":   "tasks.due_date",
	"createdAt":  "tasks.created_at",
	"created_at": "tasks.created_at",
	"updatedAt":  "tasks.updated_at",
	"updated_at": "tasks.updated_at",
}

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		if p == "Documents" {
			// Batch order is the document ID order.
			query = query.Preload("Documents", func(db *gorm.DB) *gorm.DB {
				return db.Order("documents.id ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.DueFrom != nil {
		query = query.Where("tasks.due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("tasks.due_date < ?", *filter.DueTo)
	}

	// An explicit assignee filter takes precedence over the default
	// visibility scope.
	if filter.AssignedToID != nil {
		query = query.Where("tasks.assigned_to_id = ?", *filter.AssignedToID)
	} else if filter.VisibleToUserID != 0 {
		query = query.Where("tasks.assigned_to_id = ? OR tasks.created_by_id = ?",
			filter.VisibleToUserID, filter.VisibleToUserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "tasks.created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	listQuery := query.Order(column + " " + direction)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.
		Preload("AssignedTo").
		Preload("CreatedBy").
		Preload("Documents", func(db *gorm.DB) *gorm.DB {
			return db.Order("documents.id ASC")
		}).
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update updates a task's own columns. Associations are not written back,
// so a preloaded AssignedTo cannot undo an explicit reassignment.
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Omit(clause.Associations).Save(task).Error
}

// Delete removes a task together with its document metadata
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AppendDocuments adds document records to a task, preserving slice order
func (r *GormTaskRepository) AppendDocuments(taskID uint64, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for i := range docs {
		docs[i].TaskID = taskID
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		// Created one at a time so autoincrement IDs follow batch order.
		for i := range docs {
			if err := tx.Create(&docs[i]).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Task{}).Where("id = ?", taskID).
			Update("updated_at", tx.NowFunc()).Error
	})
}

// RemoveDocument removes a single document record from a task
func (r *GormTaskRepository) RemoveDocument(taskID, documentID uint64) error {
	return r.db.Where("task_id = ? AND id = ?", taskID, documentID).
		Delete(&models.Document{}).Error
}
