package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/filedrop-io/filedrop/pkg/errors"
	"github.com/filedrop-io/filedrop/pkg/httputil"
	"github.com/filedrop-io/filedrop/pkg/validator"

	"github.com/filedrop-io/filedrop/internal/domain"
	"github.com/filedrop-io/filedrop/internal/service"
)

// APIHandler exposes the record-store routes consumed by the dashboard.
// These sit behind the guard's shared-secret check, not behind sessions.
type APIHandler struct {
	auth     *service.AuthService
	activity *service.ActivityRecorder
	files    *service.FileService
	feedback *service.FeedbackService
	logger   *slog.Logger
}

// NewAPIHandler creates the dashboard API handler.
func NewAPIHandler(
	authSvc *service.AuthService,
	activity *service.ActivityRecorder,
	files *service.FileService,
	feedback *service.FeedbackService,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		auth:     authSvc,
		activity: activity,
		files:    files,
		feedback: feedback,
		logger:   logger,
	}
}

// ListUsers handles GET /api/users.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: users})
}

// GetUser handles GET /api/users/{id}.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// ListActivity handles GET /api/activity/{userID}?page=&per_page=.
func (h *APIHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)

	records, total, err := h.activity.History(r.Context(), userID, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(records, total, page, perPage))
}

// PurgeActivity handles DELETE /api/activity/{userID}.
func (h *APIHandler) PurgeActivity(w http.ResponseWriter, r *http.Request) {
	if err := h.activity.Purge(r.Context(), chi.URLParam(r, "userID")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFiles handles GET /api/files/{userID}.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: files})
}

// CreateFeedbackRequest is the JSON request body for feedback submission.
type CreateFeedbackRequest struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=2000"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
}

// CreateFeedback handles POST /api/feedback.
func (h *APIHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	fb, err := h.feedback.Submit(r.Context(), service.FeedbackInput{
		UserID:  req.UserID,
		Email:   req.Email,
		Message: req.Message,
		Rating:  req.Rating,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: fb})
}

// ListFeedback handles GET /api/feedback.
func (h *APIHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := h.feedback.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if entries == nil {
		entries = []domain.Feedback{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
