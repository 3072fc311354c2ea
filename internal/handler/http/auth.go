package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/filedrop-io/filedrop/pkg/errors"
	"github.com/filedrop-io/filedrop/pkg/httputil"
	"github.com/filedrop-io/filedrop/pkg/validator"

	"github.com/filedrop-io/filedrop/internal/auth"
	"github.com/filedrop-io/filedrop/internal/provider"
	"github.com/filedrop-io/filedrop/internal/service"
)

// stateCookie carries the OAuth anti-forgery state between the redirect and
// the provider callback.
const stateCookie = "oauth-state"

// AuthHandler handles sign-in, sign-out, registration, session
// introspection, and the federated provider flow.
type AuthHandler struct {
	service *service.AuthService
	guard   *Guard
	google  provider.Provider
	expiry  time.Duration
	logger  *slog.Logger
}

// NewAuthHandler creates the auth HTTP handler. google may be nil when the
// federated provider is not configured; its routes then reply unavailable.
func NewAuthHandler(
	svc *service.AuthService,
	guard *Guard,
	google provider.Provider,
	expiry time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		service: svc,
		guard:   guard,
		google:  google,
		expiry:  expiry,
		logger:  logger,
	}
}

// SignInRequest is the JSON request body for local sign-in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		// Validation detail would reveal which field failed; sign-in
		// failures stay generic.
		httputil.WriteError(w, r, apperrors.Unauthorized("invalid email or password"), h.logger)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password, service.ClientIP(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	token, err := h.service.CompleteSignIn(r.Context(), r, user)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setSessionCookie(w, token)
	claims, _ := h.guard.tokens.Decode(token)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: auth.SessionView(claims)})
}

// SignOut handles POST /api/auth/signout by expiring the session cookie.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "signed out"}})
}

// Session handles GET /api/auth/session. An absent or invalid session
// yields a null payload, not an error.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := h.guard.sessionFrom(r)
	if claims == nil {
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: nil})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: auth.SessionView(claims)})
}

// Register handles POST /api/public/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}

// GoogleRedirect handles GET /api/auth/signin/google: sets the anti-forgery
// state cookie and redirects to the provider. A callbackUrl query parameter
// is carried through the state cookie for the post-login redirect.
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		httputil.WriteError(w, r, apperrors.Internal(nil), h.logger)
		return
	}

	state := uuid.New().String()
	callback := sanitizeCallback(r.URL.Query().Get("callbackUrl"))

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state + "|" + callback,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.guard.production,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback handles GET /api/auth/callback/google: verifies the state,
// exchanges the code, resolves the identity, and issues the session.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		httputil.WriteError(w, r, apperrors.Internal(nil), h.logger)
		return
	}

	state, callback, ok := h.readStateCookie(r)
	if !ok || state == "" || r.URL.Query().Get("state") != state {
		http.Redirect(w, r, signInPath, http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, signInPath, http.StatusFound)
		return
	}

	identity, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.WarnContext(r.Context(), "provider exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, signInPath, http.StatusFound)
		return
	}

	user, err := h.service.ResolveIdentity(r.Context(), identity)
	if err != nil {
		h.logger.WarnContext(r.Context(), "identity resolution failed", slog.String("error", err.Error()))
		http.Redirect(w, r, signInPath, http.StatusFound)
		return
	}

	token, err := h.service.CompleteSignIn(r.Context(), r, user)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setSessionCookie(w, token)
	h.clearStateCookie(w)

	if callback == "" {
		callback = "/"
	}
	http.Redirect(w, r, callback, http.StatusFound)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.guard.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.expiry.Seconds()),
		HttpOnly: true,
		Secure:   h.guard.production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.guard.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.guard.production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) readStateCookie(r *http.Request) (state, callback string, ok bool) {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return "", "", false
	}
	state, callback, _ = strings.Cut(c.Value, "|")
	return state, callback, true
}

func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// sanitizeCallback keeps only same-site relative paths so the post-login
// redirect cannot be pointed at another origin.
func sanitizeCallback(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	if u, err := url.Parse(raw); err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return raw
}
