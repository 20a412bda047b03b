// Package policy is the single source of truth for role and ownership
// based access decisions. Every mutating store operation must be gated
// by a Decide call made before the write, never after.
package policy

import "github.com/sudhanshu-m21/task-tracker-api/internal/models"

// Action is a request-level operation on a task or one of its documents.
type Action string

const (
	ActionView   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// Document actions follow the task rules noted on each constant.
	ActionDocumentView   Action = "document:view"   // same rule as task update
	ActionDocumentDelete Action = "document:delete" // same rule as task update
)

// Owners carries the two ownership references of a task.
type Owners struct {
	AssignedToID uint64
	CreatedByID  uint64
}

// Decide reports whether an actor may perform action on a task with the
// given owners. It is total: unknown actions deny.
//
// Admins may do anything. For everyone else, view and update require the
// actor to be the assignee or the creator, while delete requires the actor
// to be the creator. The assignee deliberately cannot delete.
func Decide(role models.UserRole, actorID uint64, owners Owners, action Action) bool {
	if role == models.RoleAdmin {
		return true
	}

	switch action {
	case ActionView, ActionUpdate, ActionDocumentView, ActionDocumentDelete:
		return actorID == owners.AssignedToID || actorID == owners.CreatedByID
	case ActionDelete:
		return actorID == owners.CreatedByID
	default:
		return false
	}
}

// DecideTask is a convenience wrapper taking the task directly.
func DecideTask(role models.UserRole, actorID uint64, task *models.Task, action Action) bool {
	return Decide(role, actorID, Owners{
		AssignedToID: task.AssignedToID,
		CreatedByID:  task.CreatedByID,
	}, action)
}
