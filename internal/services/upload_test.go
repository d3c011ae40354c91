package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/imago3d/apiserver/internal/store"
	"github.com/imago3d/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploadRepo struct {
	uploads map[int64]types.Upload
	nextID  int64
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{uploads: make(map[int64]types.Upload), nextID: 1}
}

func (f *fakeUploadRepo) Get(ctx context.Context, id int64) (types.Upload, error) {
	upload, ok := f.uploads[id]
	if !ok {
		return types.Upload{}, store.ErrNotFound
	}
	return upload, nil
}

func (f *fakeUploadRepo) Create(ctx context.Context, upload types.Upload) (types.Upload, error) {
	upload.ID = f.nextID
	f.nextID++
	f.uploads[upload.ID] = upload
	return upload, nil
}

func (f *fakeUploadRepo) ListByUser(ctx context.Context, userID int) ([]types.Upload, error) {
	uploads := make([]types.Upload, 0)
	for _, upload := range f.uploads {
		if upload.UserID == userID {
			uploads = append(uploads, upload)
		}
	}
	return uploads, nil
}

func (f *fakeUploadRepo) UpdateStatus(ctx context.Context, id int64, status, taskID, resultURL string) error {
	upload, ok := f.uploads[id]
	if !ok {
		return store.ErrNotFound
	}
	upload.Status = status
	if taskID != "" {
		upload.TaskID = taskID
	}
	if resultURL != "" {
		upload.ResultURL = resultURL
	}
	f.uploads[id] = upload
	return nil
}

type fakeObjectStore struct {
	objects map[string][]byte
	err     error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Bucket() string { return "test-bucket" }

type fakePublisher struct {
	published []ConversionTask
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var task ConversionTask
	if err := json.Unmarshal(data, &task); err != nil {
		return "", err
	}
	f.published = append(f.published, task)
	return "task-1", nil
}

func TestCreateFromFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newFakeUploadRepo()
	objects := newFakeObjectStore()
	publisher := &fakePublisher{}
	service := NewUploadService(repo, objects, publisher, "conversion-tasks")

	upload, err := service.CreateFromFile(ctx, 7, "bike.png", bytes.NewReader([]byte("png-bytes")), 9, "image/png")
	require.NoError(t, err)

	assert.Equal(t, 7, upload.UserID)
	assert.Equal(t, types.UploadStatusQueued, upload.Status)
	assert.Equal(t, "task-1", upload.TaskID)
	assert.Equal(t, "bike.png", upload.OriginalFilename)
	assert.True(t, strings.HasPrefix(upload.ObjectKey, "7/"), "object key %q must be under the user prefix", upload.ObjectKey)
	assert.True(t, strings.HasSuffix(upload.ObjectKey, "-bike.png"))

	require.Len(t, publisher.published, 1)
	task := publisher.published[0]
	assert.Equal(t, upload.ID, task.UploadID)
	assert.Equal(t, "test-bucket", task.Bucket)
	assert.Equal(t, upload.ObjectKey, task.ObjectKey)

	require.Contains(t, objects.objects, upload.ObjectKey)
	assert.Equal(t, []byte("png-bytes"), objects.objects[upload.ObjectKey])
}

func TestCreateFromFile_PublishFailureKeepsUpload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newFakeUploadRepo()
	service := NewUploadService(repo, newFakeObjectStore(), &fakePublisher{err: errors.New("broker down")}, "conversion-tasks")

	upload, err := service.CreateFromFile(ctx, 7, "bike.png", bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, types.UploadStatusPending, upload.Status)
	assert.Empty(t, upload.TaskID)
}

func TestCreateFromFile_NoPublisher(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	service := NewUploadService(newFakeUploadRepo(), newFakeObjectStore(), nil, "")

	upload, err := service.CreateFromFile(ctx, 7, "bike.png", bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, types.UploadStatusPending, upload.Status)
}

func TestCreateFromFile_StorageFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	objects := newFakeObjectStore()
	objects.err = errors.New("bucket gone")
	service := NewUploadService(newFakeUploadRepo(), objects, nil, "")

	_, err := service.CreateFromFile(ctx, 7, "bike.png", bytes.NewReader(nil), 0, "image/png")
	require.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bike.png":            "bike.png",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\cat.jpg`: "cat.jpg",
		"weird name!.png":     "weird_name_.png",
		"..":                  "",
		"   ":                 "",
	}
	for input, want := range cases {
		assert.Equal(t, want, sanitizeFilename(input), "input %q", input)
	}
}
