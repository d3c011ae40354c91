package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/imago3d/apiserver/internal/auth"
	"github.com/imago3d/apiserver/internal/services"
	"github.com/imago3d/apiserver/internal/store"
	"github.com/imago3d/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUploadRepo struct {
	uploads []types.Upload
}

func (m *memUploadRepo) Get(ctx context.Context, id int64) (types.Upload, error) {
	for _, upload := range m.uploads {
		if upload.ID == id {
			return upload, nil
		}
	}
	return types.Upload{}, store.ErrNotFound
}

func (m *memUploadRepo) Create(ctx context.Context, upload types.Upload) (types.Upload, error) {
	upload.ID = int64(len(m.uploads) + 1)
	m.uploads = append(m.uploads, upload)
	return upload, nil
}

func (m *memUploadRepo) ListByUser(ctx context.Context, userID int) ([]types.Upload, error) {
	uploads := make([]types.Upload, 0)
	for _, upload := range m.uploads {
		if upload.UserID == userID {
			uploads = append(uploads, upload)
		}
	}
	return uploads, nil
}

func (m *memUploadRepo) UpdateStatus(ctx context.Context, id int64, status, taskID, resultURL string) error {
	for i := range m.uploads {
		if m.uploads[i].ID == id {
			m.uploads[i].Status = status
			if taskID != "" {
				m.uploads[i].TaskID = taskID
			}
			return nil
		}
	}
	return store.ErrNotFound
}

type memObjectStore struct {
	objects map[string][]byte
}

func (m *memObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memObjectStore) Bucket() string { return "test-bucket" }

func newUploadRouter() *chi.Mux {
	uploadService := services.NewUploadService(
		&memUploadRepo{},
		&memObjectStore{objects: make(map[string][]byte)},
		nil,
		"",
	)
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		UploadRouter(r, uploadService, RequireAuth(testSecret))
	})
	return router
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	t.Parallel()
	router := newUploadRouter()

	token, err := auth.IssueToken(7, "a@x.com", testSecret, auth.TokenTTL)
	require.NoError(t, err)

	body, contentType := multipartBody(t, formFieldFile, "bike.png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var upload types.Upload
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &upload))
	assert.Equal(t, 7, upload.UserID)
	assert.Equal(t, "bike.png", upload.OriginalFilename)

	// The caller sees only their own uploads.
	listReq := httptest.NewRequest(http.MethodGet, "/api/uploads", nil)
	listReq.Header.Set("Authorization", "Bearer "+token)
	listRecorder := httptest.NewRecorder()
	router.ServeHTTP(listRecorder, listReq)
	require.Equal(t, http.StatusOK, listRecorder.Code)

	var uploads []types.Upload
	require.NoError(t, json.Unmarshal(listRecorder.Body.Bytes(), &uploads))
	require.Len(t, uploads, 1)
}

func TestUploadEndpoint_RequiresAuth(t *testing.T) {
	t.Parallel()
	router := newUploadRouter()

	body, contentType := multipartBody(t, formFieldFile, "bike.png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestUploadEndpoint_NoFile(t *testing.T) {
	t.Parallel()
	router := newUploadRouter()

	token, err := auth.IssueToken(7, "a@x.com", testSecret, auth.TokenTTL)
	require.NoError(t, err)

	body, contentType := multipartBody(t, "wrong-field", "bike.png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	newReq := func(header string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		return req
	}

	token, err := bearerToken(newReq("Bearer abc.def.ghi"))
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	token, err = bearerToken(newReq("bearer abc"))
	require.NoError(t, err, "scheme match is case-insensitive")
	assert.Equal(t, "abc", token)

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc", "abc"} {
		_, err := bearerToken(newReq(header))
		require.Error(t, err, "header %q", header)
	}
}
