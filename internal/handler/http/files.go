package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/filedrop-io/filedrop/pkg/errors"
	"github.com/filedrop-io/filedrop/pkg/httputil"

	"github.com/filedrop-io/filedrop/internal/domain"
	"github.com/filedrop-io/filedrop/internal/service"
)

// FileHandler serves the session-gated upload and download routes. The
// guard has already enforced a valid session before these run.
type FileHandler struct {
	files  *service.FileService
	logger *slog.Logger
}

// NewFileHandler creates the file HTTP handler.
func NewFileHandler(files *service.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// Upload handles POST /upload as a multipart form with a "file" part.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("no session"), h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxFileSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("missing or oversized file part"), h.logger)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	meta, err := h.files.Upload(r.Context(), session.UserID, header.Filename, contentType, header.Size, file)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: meta})
}

// List handles GET /files.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("no session"), h.logger)
		return
	}

	files, err := h.files.ListByUser(r.Context(), session.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if files == nil {
		files = []domain.FileMeta{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: files})
}

// Download handles GET /files/{id}/download, streaming the blob.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("no session"), h.logger)
		return
	}

	meta, rc, err := h.files.Open(r.Context(), session.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+meta.Name+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are already sent; just log the broken transfer.
		h.logger.WarnContext(r.Context(), "download stream interrupted",
			slog.String("file_id", meta.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Delete handles DELETE /files/{id}.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("no session"), h.logger)
		return
	}

	if err := h.files.Delete(r.Context(), session.UserID, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
