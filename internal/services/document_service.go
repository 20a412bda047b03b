package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sudhanshu-m21/task-tracker-api/internal/auth"
	"github.com/sudhanshu-m21/task-tracker-api/internal/constants"
	"github.com/sudhanshu-m21/task-tracker-api/internal/models"
	"github.com/sudhanshu-m21/task-tracker-api/internal/policy"
	"github.com/sudhanshu-m21/task-tracker-api/internal/repository"
	"github.com/sudhanshu-m21/task-tracker-api/internal/storage"
	"gorm.io/gorm"
)

var (
	ErrTooManyFiles     = errors.New("too many files")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnsupportedType  = errors.New("only PDF files are allowed")
	ErrDocumentNotFound = errors.New("document not found")
)

// taskLocks serializes document read-modify-write per task so two
// concurrent attach/remove calls cannot lose each other's updates.
type taskLocks struct {
	locks sync.Map // taskID -> *sync.Mutex
}

func (l *taskLocks) lock(taskID uint64) *sync.Mutex {
	mu, _ := l.locks.LoadOrStore(taskID, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m
}

// DocumentService manages the PDF attachments owned by tasks: validation,
// staged blob writes, retrieval and deletion.
type DocumentService struct {
	taskRepo repository.TaskRepository
	blobs    storage.BlobStore
	locks    taskLocks
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(taskRepo repository.TaskRepository, blobs storage.BlobStore) *DocumentService {
	return &DocumentService{
		taskRepo: taskRepo,
		blobs:    blobs,
	}
}

// ValidateBatch checks upload constraints for a batch before any byte is
// written: at most 3 files per request, 5 MiB each, PDF only.
func (s *DocumentService) ValidateBatch(files []*multipart.FileHeader) error {
	if len(files) > constants.MaxDocumentsPerRequest {
		return ErrTooManyFiles
	}
	for _, fh := range files {
		if fh.Size > constants.MaxDocumentBytes {
			return ErrFileTooLarge
		}
		if mediaType(fh) != constants.PDFMediaType {
			return ErrUnsupportedType
		}
	}
	return nil
}

// Stage validates a batch and writes every file to blob storage, returning
// document records in upload order. If any write fails, blobs written so
// far are removed and nothing is recorded.
func (s *DocumentService) Stage(files []*multipart.FileHeader) ([]models.Document, error) {
	if err := s.ValidateBatch(files); err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(files))
	for _, fh := range files {
		doc, err := s.stageOne(fh)
		if err != nil {
			s.Discard(docs)
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Discard removes the blobs behind staged documents whose metadata never
// got persisted.
func (s *DocumentService) Discard(docs []models.Document) {
	for _, doc := range docs {
		if err := s.blobs.Remove(doc.StoredName); err != nil {
			logrus.WithError(err).WithField("blob", doc.StoredName).
				Warn("failed to discard staged blob")
		}
	}
}

// Attach stages a batch and appends it to the task's document list. The
// caller must have update access to the task. Existing documents are kept;
// the new ones are appended in upload order.
func (s *DocumentService) Attach(taskID uint64, identity auth.Identity, files []*multipart.FileHeader) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if !policy.DecideTask(identity.Role, identity.UserID, task, policy.ActionUpdate) {
		return nil, ErrTaskForbidden
	}

	mu := s.locks.lock(task.ID)
	defer mu.Unlock()

	docs, err := s.Stage(files)
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.AppendDocuments(task.ID, docs); err != nil {
		s.Discard(docs)
		return nil, fmt.Errorf("failed to record documents: %w", err)
	}

	return s.findTask(task.ID)
}

// Retrieve opens a document's bytes for a caller with view access. The
// caller owns the returned reader.
func (s *DocumentService) Retrieve(taskID, documentID uint64, identity auth.Identity) (*models.Document, io.ReadSeekCloser, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, nil, err
	}

	if !policy.DecideTask(identity.Role, identity.UserID, task, policy.ActionDocumentView) {
		return nil, nil, ErrTaskForbidden
	}

	doc := findDocument(task, documentID)
	if doc == nil {
		return nil, nil, ErrDocumentNotFound
	}

	rc, err := s.blobs.Open(doc.StoredName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrDocumentNotFound
		}
		return nil, nil, fmt.Errorf("failed to open blob: %w", err)
	}

	return doc, rc, nil
}

// Remove deletes one document's blob and metadata, leaving the task
// intact. Blob removal is idempotent.
func (s *DocumentService) Remove(taskID, documentID uint64, identity auth.Identity) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if !policy.DecideTask(identity.Role, identity.UserID, task, policy.ActionDocumentDelete) {
		return nil, ErrTaskForbidden
	}

	mu := s.locks.lock(task.ID)
	defer mu.Unlock()

	doc := findDocument(task, documentID)
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if err := s.blobs.Remove(doc.StoredName); err != nil {
		return nil, fmt.Errorf("failed to remove blob: %w", err)
	}

	if err := s.taskRepo.RemoveDocument(task.ID, doc.ID); err != nil {
		return nil, fmt.Errorf("failed to remove document record: %w", err)
	}

	return s.findTask(task.ID)
}

// PurgeAll removes every blob backing the task's documents, tolerating
// blobs that are already gone. Called when a task is deleted.
func (s *DocumentService) PurgeAll(task *models.Task) {
	for _, doc := range task.Documents {
		if err := s.blobs.Remove(doc.StoredName); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"task": task.ID,
				"blob": doc.StoredName,
			}).Warn("failed to purge document blob")
		}
	}
}

func (s *DocumentService) stageOne(fh *multipart.FileHeader) (models.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	name, size, err := s.blobs.Save(io.LimitReader(f, constants.MaxDocumentBytes+1))
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to store blob: %w", err)
	}
	if size > constants.MaxDocumentBytes {
		if rmErr := s.blobs.Remove(name); rmErr != nil {
			logrus.WithError(rmErr).WithField("blob", name).
				Warn("failed to remove oversized blob")
		}
		return models.Document{}, ErrFileTooLarge
	}

	return models.Document{
		OriginalName: fh.Filename,
		StoredName:   name,
		ContentType:  constants.PDFMediaType,
		Size:         size,
	}, nil
}

func (s *DocumentService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Documents")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func findDocument(task *models.Task, documentID uint64) *models.Document {
	for i := range task.Documents {
		if task.Documents[i].ID == documentID {
			return &task.Documents[i]
		}
	}
	return nil
}

func mediaType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
