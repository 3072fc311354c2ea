package http

import (
	"log/slog"
	"net/http"

	"github.com/filedrop-io/filedrop/pkg/httputil"

	"github.com/filedrop-io/filedrop/internal/service"
)

// PageHandler serves the thin page surface. The real UI is a separate
// frontend; these endpoints exist so the guard-gated page routes resolve
// and return the data each page renders.
type PageHandler struct {
	auth     *service.AuthService
	activity *service.ActivityRecorder
	feedback *service.FeedbackService
	logger   *slog.Logger
}

// NewPageHandler creates the page handler.
func NewPageHandler(
	authSvc *service.AuthService,
	activity *service.ActivityRecorder,
	feedback *service.FeedbackService,
	logger *slog.Logger,
) *PageHandler {
	return &PageHandler{auth: authSvc, activity: activity, feedback: feedback, logger: logger}
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"service": "filedrop",
	}})
}

// SignInPage handles GET /auth/signin. The callbackUrl query parameter is
// echoed back so the frontend can forward the user after success.
func (h *PageHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"page":        "signin",
		"callbackUrl": sanitizeCallback(r.URL.Query().Get("callbackUrl")),
	}})
}

// Profile handles GET /profile for the signed-in user.
func (h *PageHandler) Profile(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// ProfileActivity handles GET /profile/activity: the signed-in user's own
// login history.
func (h *PageHandler) ProfileActivity(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, signInPath, http.StatusFound)
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	records, total, err := h.activity.History(r.Context(), session.UserID, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(records, total, page, perPage))
}

// Dashboard handles GET /dashboard. Only admins reach this handler; the
// guard enforces the role.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	feedback, err := h.feedback.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"user_count":     len(users),
		"feedback_count": len(feedback),
	}})
}

// DashboardUsers handles GET /dashboard/users.
func (h *PageHandler) DashboardUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: users})
}

// DashboardFeedback handles GET /dashboard/feedback.
func (h *PageHandler) DashboardFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := h.feedback.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}
