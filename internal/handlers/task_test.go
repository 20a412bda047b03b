package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/sudhanshu-m21/task-tracker-api/internal/dto"
)

type pdfFile struct {
	filename    string
	contentType string
	content     []byte
}

func pdf(filename, content string) pdfFile {
	return pdfFile{
		filename:    filename,
		contentType: "application/pdf",
		content:     []byte("%PDF-1.4\n" + content),
	}
}

type TaskHandlerSuite struct {
	suite.Suite
	env        *testEnv
	aliceToken string
	bobToken   string
	carolToken string
	adminToken string
	alice      dto.UserDTO
	bob        dto.UserDTO
	carol      dto.UserDTO
}

func TestTaskHandlerSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerSuite))
}

func (s *TaskHandlerSuite) SetupTest() {
	s.env = newTestEnv(s.T())
	s.aliceToken, s.alice = s.env.signUp(s.T(), "alice@example.com", "supersecret")
	s.bobToken, s.bob = s.env.signUp(s.T(), "bob@example.com", "supersecret")
	s.carolToken, s.carol = s.env.signUp(s.T(), "carol@example.com", "supersecret")
	s.adminToken, _ = s.env.signUpAdmin(s.T(), "admin@example.com", "supersecret")
}

// multipartBody builds a multipart request body with form fields and
// "documents" file parts.
func (s *TaskHandlerSuite) multipartBody(fields map[string]string, files ...pdfFile) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		s.Require().NoError(w.WriteField(key, value))
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name="documents"; filename=%q`, f.filename))
		header.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(header)
		s.Require().NoError(err)
		_, err = part.Write(f.content)
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	return &buf, w.FormDataContentType()
}

func (s *TaskHandlerSuite) decodeTask(w *httptest.ResponseRecorder) dto.TaskDTO {
	var task dto.TaskDTO
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

// createTask creates a task owned by alice and assigned to bob.
func (s *TaskHandlerSuite) createTask(title string) dto.TaskDTO {
	w := s.env.postJSON(s.T(), "/api/tasks", s.aliceToken, gin.H{
		"title":      title,
		"dueDate":    "2026-09-15",
		"assignedTo": fmt.Sprint(s.bob.ID),
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	return s.decodeTask(w)
}

func (s *TaskHandlerSuite) TestCreateTaskJSON() {
	w := s.env.postJSON(s.T(), "/api/tasks", s.aliceToken, gin.H{
		"title":       "Write report",
		"description": "quarterly numbers",
		"priority":    "high",
		"dueDate":     "2026-09-15",
		"assignedTo":  fmt.Sprint(s.bob.ID),
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	task := s.decodeTask(w)
	s.Equal("Write report", task.Title)
	s.Equal("quarterly numbers", task.Description)
	s.EqualValues("pending", task.Status)
	s.EqualValues("high", task.Priority)
	s.Require().NotNil(task.AssignedTo)
	s.Equal(s.bob.ID, task.AssignedTo.ID)
	s.Require().NotNil(task.CreatedBy)
	s.Equal(s.alice.ID, task.CreatedBy.ID)
	s.NotNil(task.Documents)
	s.Empty(task.Documents)
}

func (s *TaskHandlerSuite) TestCreateTaskValidation() {
	cases := []struct {
		name    string
		payload gin.H
		message string
	}{
		{
			"missing title",
			gin.H{"dueDate": "2026-09-15", "assignedTo": fmt.Sprint(s.bob.ID)},
			"title is required",
		},
		{
			"missing due date",
			gin.H{"title": "No due", "assignedTo": fmt.Sprint(s.bob.ID)},
			"due date is required",
		},
		{
			"missing assignee",
			gin.H{"title": "Nobody", "dueDate": "2026-09-15"},
			"Task must be assigned to a user",
		},
		{
			"unknown assignee",
			gin.H{"title": "Ghost", "dueDate": "2026-09-15", "assignedTo": "99999"},
			"assigned user does not exist",
		},
		{
			"bad status",
			gin.H{"title": "Bad", "dueDate": "2026-09-15", "assignedTo": fmt.Sprint(s.bob.ID), "status": "archived"},
			"invalid status",
		},
		{
			"bad due date",
			gin.H{"title": "Bad", "dueDate": "tomorrow", "assignedTo": fmt.Sprint(s.bob.ID)},
			"Invalid due date",
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			w := s.env.postJSON(s.T(), "/api/tasks", s.aliceToken, tc.payload)
			s.Require().Equal(http.StatusBadRequest, w.Code)
			s.Equal(tc.message, errorMessage(s.T(), w))
		})
	}
}

func (s *TaskHandlerSuite) TestCreateTaskWithDocuments() {
	body, contentType := s.multipartBody(map[string]string{
		"title":      "With attachments",
		"dueDate":    "2026-09-15",
		"assignedTo": fmt.Sprint(s.bob.ID),
	}, pdf("first.pdf", "one"), pdf("second.pdf", "two"))

	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", s.aliceToken, body, contentType)
	s.Require().Equal(http.StatusCreated, w.Code)

	task := s.decodeTask(w)
	s.Require().Len(task.Documents, 2)
	s.Equal("first.pdf", task.Documents[0].OriginalName)
	s.Equal("second.pdf", task.Documents[1].OriginalName)
	s.Equal("application/pdf", task.Documents[0].ContentType)

	entries, err := os.ReadDir(s.env.blobs.Dir())
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *TaskHandlerSuite) TestCreateTaskRejectsNonPDF() {
	body, contentType := s.multipartBody(map[string]string{
		"title":      "Sneaky",
		"dueDate":    "2026-09-15",
		"assignedTo": fmt.Sprint(s.bob.ID),
	}, pdfFile{filename: "script.sh", contentType: "text/x-shellscript", content: []byte("#!/bin/sh")})

	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", s.aliceToken, body, contentType)
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Equal("only PDF files are allowed", errorMessage(s.T(), w))

	// Nothing staged, nothing listed.
	entries, err := os.ReadDir(s.env.blobs.Dir())
	s.Require().NoError(err)
	s.Empty(entries)

	list := s.env.get(s.T(), "/api/tasks", s.aliceToken)
	s.Require().Equal(http.StatusOK, list.Code)
	var resp dto.TaskListResponse
	s.Require().NoError(json.Unmarshal(list.Body.Bytes(), &resp))
	s.Empty(resp.Tasks)
}

func (s *TaskHandlerSuite) TestCreateTaskTooManyFiles() {
	body, contentType := s.multipartBody(map[string]string{
		"title":      "Pile",
		"dueDate":    "2026-09-15",
		"assignedTo": fmt.Sprint(s.bob.ID),
	}, pdf("a.pdf", "a"), pdf("b.pdf", "b"), pdf("c.pdf", "c"), pdf("d.pdf", "d"))

	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", s.aliceToken, body, contentType)
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Equal("too many files", errorMessage(s.T(), w))
}

func (s *TaskHandlerSuite) TestListVisibilityAndPagination() {
	for i := 0; i < 3; i++ {
		s.createTask(fmt.Sprintf("shared %d", i))
	}
	// A task carol cannot see.
	w := s.env.postJSON(s.T(), "/api/tasks", s.bobToken, gin.H{
		"title":      "bob private",
		"dueDate":    "2026-09-16",
		"assignedTo": fmt.Sprint(s.bob.ID),
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var resp dto.TaskListResponse

	list := s.env.get(s.T(), "/api/tasks?limit=2&page=2", s.aliceToken)
	s.Require().Equal(http.StatusOK, list.Code)
	s.Require().NoError(json.Unmarshal(list.Body.Bytes(), &resp))
	s.Len(resp.Tasks, 1)
	s.EqualValues(3, resp.Pagination.Total)
	s.Equal(2, resp.Pagination.Page)
	s.Equal(2, resp.Pagination.Pages)

	list = s.env.get(s.T(), "/api/tasks", s.carolToken)
	s.Require().Equal(http.StatusOK, list.Code)
	s.Require().NoError(json.Unmarshal(list.Body.Bytes(), &resp))
	s.Empty(resp.Tasks)

	list = s.env.get(s.T(), "/api/tasks", s.adminToken)
	s.Require().Equal(http.StatusOK, list.Code)
	s.Require().NoError(json.Unmarshal(list.Body.Bytes(), &resp))
	s.EqualValues(4, resp.Pagination.Total)
}

func (s *TaskHandlerSuite) TestListFilters() {
	s.createTask("due earlier")
	w := s.env.postJSON(s.T(), "/api/tasks", s.aliceToken, gin.H{
		"title":      "due later",
		"dueDate":    "2026-09-20",
		"assignedTo": fmt.Sprint(s.bob.ID),
		"status":     "in-progress",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var resp dto.TaskListResponse

	list := s.env.get(s.T(), "/api/tasks?dueDate=2026-09-20", s.aliceToken)
	s.Require().Equal(http.StatusOK, list.Code)
	s.Require().NoError(json.Unmarshal(list.Body.Bytes(), &resp))
	s.Require().Len(resp.Tasks, 1)
	s.Equal("due later", resp.Tasks[0].Title)

	list = s.env.get(s.T(), "/api/tasks?status=in-progress", s.aliceToken)
	s.Require().Equal(http.StatusOK, list.Code)
	s.Require().NoError(json.Unmarshal(list.Body.Bytes(), &resp))
	s.Require().Len(resp.Tasks, 1)
	s.Equal("due later", resp.Tasks[0].Title)

	list = s.env.get(s.T(), "/api/tasks?sortBy=dueDate&sortOrder=asc", s.aliceToken)
	s.Require().Equal(http.StatusOK, list.Code)
	s.Require().NoError(json.Unmarshal(list.Body.Bytes(), &resp))
	s.Require().Len(resp.Tasks, 2)
	s.Equal("due earlier", resp.Tasks[0].Title)

	list = s.env.get(s.T(), "/api/tasks?dueDate=not-a-date", s.aliceToken)
	s.Equal(http.StatusBadRequest, list.Code)
}

func (s *TaskHandlerSuite) TestGetTaskAuthorization() {
	task := s.createTask("restricted")
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	s.Equal(http.StatusOK, s.env.get(s.T(), path, s.bobToken).Code)
	s.Equal(http.StatusOK, s.env.get(s.T(), path, s.adminToken).Code)

	w := s.env.get(s.T(), path, s.carolToken)
	s.Require().Equal(http.StatusForbidden, w.Code)
	s.Equal("Not authorized to access this task", errorMessage(s.T(), w))

	s.Equal(http.StatusNotFound, s.env.get(s.T(), "/api/tasks/99999", s.aliceToken).Code)
	s.Equal(http.StatusBadRequest, s.env.get(s.T(), "/api/tasks/abc", s.aliceToken).Code)
}

func (s *TaskHandlerSuite) TestUpdateTask() {
	task := s.createTask("to update")
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	// The assignee may update.
	w := s.env.putJSON(s.T(), path, s.bobToken, gin.H{"status": "completed"})
	s.Require().Equal(http.StatusOK, w.Code)
	updated := s.decodeTask(w)
	s.EqualValues("completed", updated.Status)
	s.Equal("to update", updated.Title)

	w = s.env.putJSON(s.T(), path, s.carolToken, gin.H{"title": "hijacked"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.putJSON(s.T(), path, s.aliceToken, gin.H{"status": "archived"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TaskHandlerSuite) TestUpdateTaskAttachesDocuments() {
	task := s.createTask("gets attachment")
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	body, contentType := s.multipartBody(
		map[string]string{"priority": "low"},
		pdf("late.pdf", "added later"))
	w := s.env.request(s.T(), http.MethodPut, path, s.bobToken, body, contentType)
	s.Require().Equal(http.StatusOK, w.Code)

	updated := s.decodeTask(w)
	s.EqualValues("low", updated.Priority)
	s.Require().Len(updated.Documents, 1)
	s.Equal("late.pdf", updated.Documents[0].OriginalName)
}

func (s *TaskHandlerSuite) TestDeleteTask() {
	task := s.createTask("to delete")
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	// The assignee cannot delete; only the creator or an admin can.
	w := s.env.delete(s.T(), path, s.bobToken)
	s.Require().Equal(http.StatusForbidden, w.Code)

	w = s.env.delete(s.T(), path, s.aliceToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"success": true}`, w.Body.String())

	s.Equal(http.StatusNotFound, s.env.get(s.T(), path, s.aliceToken).Code)
}

func (s *TaskHandlerSuite) TestDocumentLifecycle() {
	body, contentType := s.multipartBody(map[string]string{
		"title":      "carrier",
		"dueDate":    "2026-09-15",
		"assignedTo": fmt.Sprint(s.bob.ID),
	}, pdf("payload.pdf", "document bytes"))

	w := s.env.request(s.T(), http.MethodPost, "/api/tasks", s.aliceToken, body, contentType)
	s.Require().Equal(http.StatusCreated, w.Code)
	task := s.decodeTask(w)
	s.Require().Len(task.Documents, 1)

	docPath := fmt.Sprintf("/api/tasks/%d/documents/%d", task.ID, task.Documents[0].ID)

	// The assignee may download it.
	dl := s.env.get(s.T(), docPath, s.bobToken)
	s.Require().Equal(http.StatusOK, dl.Code)
	s.Equal("application/pdf", dl.Header().Get("Content-Type"))
	s.Contains(dl.Header().Get("Content-Disposition"), `filename="payload.pdf"`)
	s.Equal("%PDF-1.4\ndocument bytes", dl.Body.String())

	// A stranger may not.
	s.Equal(http.StatusForbidden, s.env.get(s.T(), docPath, s.carolToken).Code)

	// Delete, then the document is gone but the task remains.
	del := s.env.delete(s.T(), docPath, s.aliceToken)
	s.Require().Equal(http.StatusOK, del.Code)
	s.JSONEq(`{"success": true}`, del.Body.String())

	s.Equal(http.StatusNotFound, s.env.get(s.T(), docPath, s.bobToken).Code)
	s.Equal(http.StatusOK, s.env.get(s.T(), fmt.Sprintf("/api/tasks/%d", task.ID), s.bobToken).Code)

	entries, err := os.ReadDir(s.env.blobs.Dir())
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *TaskHandlerSuite) TestUnknownDocument() {
	task := s.createTask("no docs")
	w := s.env.get(s.T(), fmt.Sprintf("/api/tasks/%d/documents/12345", task.ID), s.aliceToken)
	s.Require().Equal(http.StatusNotFound, w.Code)
	s.Equal("Document not found", errorMessage(s.T(), w))
}
