package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/imago3d/apiserver/types"
)

// UploadRepository defines persistence operations for upload records.
type UploadRepository interface {
	Get(ctx context.Context, id int64) (types.Upload, error)
	Create(ctx context.Context, upload types.Upload) (types.Upload, error)
	ListByUser(ctx context.Context, userID int) ([]types.Upload, error)
	UpdateStatus(ctx context.Context, id int64, status, taskID, resultURL string) error
}

// ObjectStore is the subset of the storage wrapper the upload flow needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// TaskPublisher enqueues conversion tasks for the worker fleet.
type TaskPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// ConversionTask is the message published for each stored image.
type ConversionTask struct {
	UploadID  int64  `json:"upload_id"`
	UserID    int    `json:"user_id"`
	Bucket    string `json:"bucket"`
	ObjectKey string `json:"object_key"`
}

// UploadService stores uploaded images and enqueues their conversion.
type UploadService struct {
	repo      UploadRepository
	objects   ObjectStore
	publisher TaskPublisher
	taskTopic string
}

// NewUploadService constructs the upload flow. publisher may be nil, in
// which case uploads are stored but stay pending until a task is
// enqueued by other means.
func NewUploadService(repo UploadRepository, objects ObjectStore, publisher TaskPublisher, taskTopic string) *UploadService {
	return &UploadService{
		repo:      repo,
		objects:   objects,
		publisher: publisher,
		taskTopic: taskTopic,
	}
}

// CreateFromFile writes the image into the bucket under a per-user
// prefix, persists the record, and publishes a conversion task.
func (s *UploadService) CreateFromFile(ctx context.Context, userID int, filename string, r io.Reader, size int64, contentType string) (types.Upload, error) {
	filename = sanitizeFilename(filename)
	if filename == "" {
		return types.Upload{}, ErrMissingField
	}

	objectKey := fmt.Sprintf("%d/%s-%s", userID, uuid.NewString(), filename)
	if err := s.objects.Put(ctx, objectKey, r, size, contentType); err != nil {
		return types.Upload{}, fmt.Errorf("store object: %w", err)
	}

	upload, err := s.repo.Create(ctx, types.Upload{
		UserID:           userID,
		ObjectKey:        objectKey,
		OriginalFilename: filename,
		Status:           types.UploadStatusPending,
	})
	if err != nil {
		return types.Upload{}, fmt.Errorf("create upload record: %w", err)
	}

	if s.publisher == nil {
		return upload, nil
	}

	task := ConversionTask{
		UploadID:  upload.ID,
		UserID:    userID,
		Bucket:    s.objects.Bucket(),
		ObjectKey: objectKey,
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return types.Upload{}, fmt.Errorf("encode task: %w", err)
	}

	taskID, err := s.publisher.Publish(ctx, s.taskTopic, payload, map[string]string{
		"upload_id": fmt.Sprintf("%d", upload.ID),
	})
	if err != nil {
		// The object and record exist; the upload stays pending and can
		// be re-enqueued. Surface nothing worse than a log line.
		log.Printf("upload %d: publish conversion task: %v", upload.ID, err)
		return upload, nil
	}

	if err := s.repo.UpdateStatus(ctx, upload.ID, types.UploadStatusQueued, taskID, ""); err != nil {
		return types.Upload{}, fmt.Errorf("mark upload queued: %w", err)
	}
	upload.Status = types.UploadStatusQueued
	upload.TaskID = taskID
	return upload, nil
}

// ListByUser returns the caller's uploads.
func (s *UploadService) ListByUser(ctx context.Context, userID int) ([]types.Upload, error) {
	return s.repo.ListByUser(ctx, userID)
}

// sanitizeFilename strips any path components and characters that have
// no business in an object key.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}
