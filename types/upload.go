package types

import "time"

// Upload statuses. An upload starts as pending and is moved along by the
// conversion worker consuming the task queue.
const (
	UploadStatusPending  = "pending"
	UploadStatusQueued   = "queued"
	UploadStatusComplete = "complete"
	UploadStatusFailed   = "failed"
)

// Upload records one image uploaded for 3D conversion.
type Upload struct {
	ID int64 `json:"id" db:"id"`

	// UserID is the owner of the upload.
	UserID int `json:"user_id" db:"user_id"`

	// ObjectKey is the key of the stored image in the object bucket.
	ObjectKey string `json:"object_key" db:"object_key"`

	// OriginalFilename is the client-supplied file name, kept for display.
	OriginalFilename string `json:"original_filename" db:"original_filename"`

	// TaskID identifies the published conversion task, when one was enqueued.
	TaskID string `json:"task_id,omitempty" db:"task_id"`

	Status string `json:"status" db:"status"`

	// ResultURL points at the generated model once conversion finishes.
	ResultURL string `json:"result_url,omitempty" db:"result_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
