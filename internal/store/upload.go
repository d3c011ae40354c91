package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/imago3d/apiserver/types"
)

// UploadRepository handles persistence for upload records.
type UploadRepository struct {
	db *sql.DB
}

func NewUploadRepository(db *sql.DB) *UploadRepository {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) Get(ctx context.Context, id int64) (types.Upload, error) {
	const query = `
		SELECT id, user_id, object_key, original_filename, task_id, status, result_url, created_at
		FROM uploads
		WHERE id = $1`
	var upload types.Upload
	var taskID, resultURL sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&upload.ID,
		&upload.UserID,
		&upload.ObjectKey,
		&upload.OriginalFilename,
		&taskID,
		&upload.Status,
		&resultURL,
		&upload.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Upload{}, ErrNotFound
		}
		return types.Upload{}, err
	}
	upload.TaskID = taskID.String
	upload.ResultURL = resultURL.String
	return upload, nil
}

func (r *UploadRepository) Create(ctx context.Context, upload types.Upload) (types.Upload, error) {
	upload.CreatedAt = time.Now()
	if upload.Status == "" {
		upload.Status = types.UploadStatusPending
	}

	const query = `
		INSERT INTO uploads (user_id, object_key, original_filename, task_id, status, result_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		upload.UserID,
		upload.ObjectKey,
		upload.OriginalFilename,
		nullable(upload.TaskID),
		upload.Status,
		nullable(upload.ResultURL),
		upload.CreatedAt,
	).Scan(&upload.ID); err != nil {
		return types.Upload{}, err
	}
	return upload, nil
}

// ListByUser returns the caller's uploads, newest first.
func (r *UploadRepository) ListByUser(ctx context.Context, userID int) ([]types.Upload, error) {
	const query = `
		SELECT id, user_id, object_key, original_filename, task_id, status, result_url, created_at
		FROM uploads
		WHERE user_id = $1
		ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := make([]types.Upload, 0)
	for rows.Next() {
		var upload types.Upload
		var taskID, resultURL sql.NullString
		if err := rows.Scan(
			&upload.ID,
			&upload.UserID,
			&upload.ObjectKey,
			&upload.OriginalFilename,
			&taskID,
			&upload.Status,
			&resultURL,
			&upload.CreatedAt,
		); err != nil {
			return nil, err
		}
		upload.TaskID = taskID.String
		upload.ResultURL = resultURL.String
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return uploads, nil
}

// UpdateStatus moves an upload along the conversion lifecycle.
func (r *UploadRepository) UpdateStatus(ctx context.Context, id int64, status, taskID, resultURL string) error {
	const query = `
		UPDATE uploads
		SET status = $1,
			task_id = COALESCE($2, task_id),
			result_url = COALESCE($3, result_url)
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, nullable(taskID), nullable(resultURL), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
