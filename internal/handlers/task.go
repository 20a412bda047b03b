package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sudhanshu-m21/task-tracker-api/internal/auth"
	"github.com/sudhanshu-m21/task-tracker-api/internal/constants"
	"github.com/sudhanshu-m21/task-tracker-api/internal/dto"
	"github.com/sudhanshu-m21/task-tracker-api/internal/httperr"
	"github.com/sudhanshu-m21/task-tracker-api/internal/middleware"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"github.com/sudhanshu-m21/task-tracker-api/internal/services"
	"github.com/sudhanshu-m21/task-tracker-api/internal/utils"
)

// TaskHandler coordinates task and document HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
	docService  *services.DocumentService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, docService *services.DocumentService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		docService:  docService,
	}
}

// ListTasks returns the caller's visible tasks under the requested
// filters, sorted and paginated.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      params.Page,
		Limit:     params.Limit,
	}

	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		input.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}
	if v := c.Query("dueDate"); v != "" {
		day, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			httperr.BadRequest(c, "Invalid due date")
			return
		}
		input.DueDate = &day
	}
	if v := c.Query("assignedTo"); v != "" {
		assignedTo, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			httperr.BadRequest(c, "Invalid assignedTo")
			return
		}
		input.AssignedToID = &assignedTo
	}

	page, err := h.taskService.ListTasks(identity, input)
	if err != nil {
		httperr.Internal(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(page))
}

// GetTask returns a single task if the caller may view it.
func (h *TaskHandler) GetTask(c *gin.Context) {
	identity, taskID, ok := h.taskRequest(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(taskID, identity)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a task, optionally with up to 3 PDF attachments sent
// as a multipart field named "documents". Blobs are staged before the task
// row is written and discarded again if that write fails.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
		Status      string `json:"status" form:"status"`
		Priority    string `json:"priority" form:"priority"`
		DueDate     string `json:"dueDate" form:"dueDate"`
		AssignedTo  string `json:"assignedTo" form:"assignedTo"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		httperr.BadRequest(c, "Invalid request body")
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		httperr.BadRequest(c, "Invalid due date")
		return
	}

	assignedTo, err := parseUserRef(req.AssignedTo)
	if err != nil {
		httperr.BadRequest(c, "Task must be assigned to a user")
		return
	}

	files := uploadedFiles(c)
	docs, err := h.docService.Stage(files)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.taskService.Create(identity, services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       models.TaskStatus(req.Status),
		Priority:     models.TaskPriority(req.Priority),
		DueDate:      dueDate,
		AssignedToID: assignedTo,
	}, docs)
	if err != nil {
		h.docService.Discard(docs)
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update and appends any uploaded documents.
// The upload batch is validated before any field changes are persisted.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	identity, taskID, ok := h.taskRequest(c)
	if !ok {
		return
	}

	input, err := parseTaskUpdate(c)
	if err != nil {
		httperr.BadRequest(c, err.Error())
		return
	}

	files := uploadedFiles(c)
	if err := h.docService.ValidateBatch(files); err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.taskService.Update(taskID, identity, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	if len(files) > 0 {
		task, err = h.docService.Attach(taskID, identity, files)
		if err != nil {
			respondTaskError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a task and all its document blobs.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	identity, taskID, ok := h.taskRequest(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(taskID, identity); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetDocument streams a document's bytes.
func (h *TaskHandler) GetDocument(c *gin.Context) {
	identity, taskID, ok := h.taskRequest(c)
	if !ok {
		return
	}
	docID, ok := parseIDParam(c, "docId")
	if !ok {
		return
	}

	doc, rc, err := h.docService.Retrieve(taskID, docID, identity)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	defer rc.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": `inline; filename="` + strings.ReplaceAll(doc.OriginalName, `"`, "") + `"`,
	}
	c.DataFromReader(http.StatusOK, doc.Size, doc.ContentType, rc, extraHeaders)
}

// DeleteDocument removes one document from a task.
func (h *TaskHandler) DeleteDocument(c *gin.Context) {
	identity, taskID, ok := h.taskRequest(c)
	if !ok {
		return
	}
	docID, ok := parseIDParam(c, "docId")
	if !ok {
		return
	}

	if _, err := h.docService.Remove(taskID, docID, identity); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// taskRequest resolves the caller identity and the task ID path parameter.
func (h *TaskHandler) taskRequest(c *gin.Context) (auth.Identity, uint64, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		httperr.Unauthorized(c, "")
		return auth.Identity{}, 0, false
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return auth.Identity{}, 0, false
	}
	return identity, taskID, true
}

// parseTaskUpdate extracts the optional fields of a task update from a
// JSON body or multipart form, keeping absent fields nil.
func parseTaskUpdate(c *gin.Context) (services.UpdateTaskInput, error) {
	var input services.UpdateTaskInput

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			return input, errors.New("Invalid request body")
		}
		get := func(key string) *string {
			if vs, ok := form.Value[key]; ok && len(vs) > 0 {
				return &vs[0]
			}
			return nil
		}
		input.Title = get("title")
		input.Description = get("description")
		if v := get("status"); v != nil {
			status := models.TaskStatus(*v)
			input.Status = &status
		}
		if v := get("priority"); v != nil {
			priority := models.TaskPriority(*v)
			input.Priority = &priority
		}
		if v := get("dueDate"); v != nil {
			dueDate, err := parseDueDate(*v)
			if err != nil {
				return input, errors.New("Invalid due date")
			}
			input.DueDate = &dueDate
		}
		if v := get("assignedTo"); v != nil {
			assignedTo, err := parseUserRef(*v)
			if err != nil {
				return input, errors.New("Invalid assignedTo")
			}
			input.AssignedToID = &assignedTo
		}
		return input, nil
	}

	type UpdateTaskRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		DueDate     *string `json:"dueDate"`
		AssignedTo  *string `json:"assignedTo"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return input, errors.New("Invalid request body")
	}

	input.Title = req.Title
	input.Description = req.Description
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(*req.DueDate)
		if err != nil {
			return input, errors.New("Invalid due date")
		}
		input.DueDate = &dueDate
	}
	if req.AssignedTo != nil {
		assignedTo, err := parseUserRef(*req.AssignedTo)
		if err != nil {
			return input, errors.New("Invalid assignedTo")
		}
		input.AssignedToID = &assignedTo
	}

	return input, nil
}

// uploadedFiles returns the "documents" multipart files, if any.
func uploadedFiles(c *gin.Context) []*multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[constants.UploadFieldName]
}

// parseDueDate accepts a calendar date or an RFC 3339 timestamp.
func parseDueDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

func parseUserRef(v string) (uint64, error) {
	if v == "" {
		return 0, errors.New("empty user reference")
	}
	return strconv.ParseUint(v, 10, 64)
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		httperr.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrDocumentNotFound):
		httperr.NotFound(c, "Document not found")
	case errors.Is(err, services.ErrTaskForbidden):
		httperr.Forbidden(c, "Not authorized to access this task")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrDueDateRequired),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrAssigneeNotFound),
		errors.Is(err, services.ErrTooManyFiles),
		errors.Is(err, services.ErrUnsupportedType):
		httperr.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrFileTooLarge):
		httperr.PayloadTooLarge(c, "File too large (max 5MB)")
	default:
		httperr.Internal(c, err)
	}
}
