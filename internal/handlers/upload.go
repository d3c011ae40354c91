package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/imago3d/apiserver/internal/services"
)

const (
	maxUploadBytes = 32 << 20
	formFieldFile  = "file"
)

// UploadHandler serves image uploads for 3D conversion.
type UploadHandler struct {
	uploadService *services.UploadService
}

func NewUploadHandler(uploadService *services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// UploadRouter registers upload routes; all of them require authentication.
func UploadRouter(r chi.Router, uploadService *services.UploadService, requireAuth func(http.Handler) http.Handler) {
	handler := NewUploadHandler(uploadService)

	r.With(requireAuth).Post("/uploads", handler.Create)
	r.With(requireAuth).Get("/uploads", handler.List)
}

// Create accepts a multipart image, stores it, and enqueues conversion.
func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	upload, err := h.uploadService.CreateFromFile(
		r.Context(),
		claims.UserID,
		header.Filename,
		file,
		header.Size,
		contentType,
	)
	if err != nil {
		if errors.Is(err, services.ErrMissingField) {
			writeError(w, http.StatusBadRequest, "invalid file name")
			return
		}
		log.Printf("create upload: %v", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	writeJSON(w, http.StatusCreated, upload)
}

// List returns the caller's uploads.
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	uploads, err := h.uploadService.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("list uploads: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load uploads")
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}
