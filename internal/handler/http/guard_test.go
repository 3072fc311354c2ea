package http

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedrop-io/filedrop/internal/auth"
	"github.com/filedrop-io/filedrop/internal/domain"
)

const testAPIKey = "test-api-key-value"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret-key-for-testing", time.Hour)
}

func newTestGuard(production bool) (*Guard, http.Handler) {
	g := NewGuard(newTestTokenManager(), testAPIKey, production, newTestLogger())
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return g, g.Middleware(next)
}

func sessionCookie(t *testing.T, role string) *http.Cookie {
	t.Helper()
	tm := newTestTokenManager()
	now := time.Now().UTC()
	token, err := tm.Issue(&domain.User{
		ID:        "u-1234",
		Email:     "alice@example.com",
		Name:      "Alice",
		Provider:  domain.ProviderCredentials,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookie, Value: token}
}

func classify(handler http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

// --- API branch ---

func TestGuard_APIWrongKeyRejected(t *testing.T) {
	_, handler := newTestGuard(false)

	r := httptest.NewRequest("GET", "/api/users", nil)
	r.Header.Set("x-api-key", "wrong")
	w := classify(handler, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), "Unauthorized")
}

func TestGuard_APIMissingKeyRejected(t *testing.T) {
	_, handler := newTestGuard(false)

	w := classify(handler, httptest.NewRequest("GET", "/api/users", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Unauthorized")
}

func TestGuard_APICorrectKeyPasses(t *testing.T) {
	_, handler := newTestGuard(false)

	paths := []string{"/api/users", "/api/activity/u-1", "/api/files/meta", "/api/feedback"}
	for _, p := range paths {
		r := httptest.NewRequest("GET", p, nil)
		r.Header.Set("x-api-key", testAPIKey)
		w := classify(handler, r)
		assert.Equal(t, http.StatusOK, w.Code, p)
	}
}

func TestGuard_PublicAPIAllowedWithoutKey(t *testing.T) {
	_, handler := newTestGuard(false)

	for _, p := range []string{"/api/public/register", "/api/auth/session", "/api/auth/callback/google"} {
		w := classify(handler, httptest.NewRequest("POST", p, nil))
		assert.Equal(t, http.StatusOK, w.Code, p)
	}
}

// A session cookie is irrelevant on the API branch: it is terminal.
func TestGuard_APIBranchIgnoresSession(t *testing.T) {
	_, handler := newTestGuard(false)

	r := httptest.NewRequest("GET", "/api/users", nil)
	r.AddCookie(sessionCookie(t, domain.RoleAdmin))
	w := classify(handler, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// A missing configured key fails closed, never open.
func TestGuard_EmptyConfiguredKeyFailsClosed(t *testing.T) {
	g := NewGuard(newTestTokenManager(), "", false, newTestLogger())
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/api/users", nil)
	r.Header.Set("x-api-key", "")
	w := classify(handler, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Page branch: exemptions ---

func TestGuard_ExemptPagesPass(t *testing.T) {
	_, handler := newTestGuard(false)

	paths := []string{
		"/",
		"/about",
		"/feedback",
		"/auth/signin",
		"/auth/signup",
		"/favicon.ico",
		"/assets/js/app.js",
		"/robots.txt",
	}
	for _, p := range paths {
		w := classify(handler, httptest.NewRequest("GET", p, nil))
		assert.Equal(t, http.StatusOK, w.Code, p)
	}
}

// A path under both an exemption and a protected prefix is exempt.
func TestGuard_ExemptionWinsOverProtectedPrefix(t *testing.T) {
	_, handler := newTestGuard(false)

	w := classify(handler, httptest.NewRequest("GET", "/files/preview.png", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Page branch: dashboard ---

func TestGuard_DashboardNoCookieRedirectsWithCallback(t *testing.T) {
	_, handler := newTestGuard(false)

	w := classify(handler, httptest.NewRequest("GET", "/dashboard/users", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/signin?callbackUrl=%2Fdashboard%2Fusers", w.Header().Get("Location"))
}

func TestGuard_DashboardNonAdminRedirectsWithoutCallback(t *testing.T) {
	_, handler := newTestGuard(false)

	r := httptest.NewRequest("GET", "/dashboard/users", nil)
	r.AddCookie(sessionCookie(t, domain.RoleUser))
	w := classify(handler, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/signin", w.Header().Get("Location"))
}

func TestGuard_DashboardAdminPasses(t *testing.T) {
	_, handler := newTestGuard(false)

	r := httptest.NewRequest("GET", "/dashboard/users", nil)
	r.AddCookie(sessionCookie(t, domain.RoleAdmin))
	w := classify(handler, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuard_DashboardGarbageCookieTreatedAsNoSession(t *testing.T) {
	_, handler := newTestGuard(false)

	r := httptest.NewRequest("GET", "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "not.a.token"})
	w := classify(handler, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/signin?callbackUrl=%2Fdashboard", w.Header().Get("Location"))
}

func TestGuard_DashboardExpiredTokenTreatedAsNoSession(t *testing.T) {
	_, handler := newTestGuard(false)

	tm := auth.NewTokenManager("test-secret-key-for-testing", -time.Hour)
	token, err := tm.Issue(&domain.User{ID: "u-1", Email: "a@x.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := classify(handler, r)

	assert.Equal(t, http.StatusFound, w.Code)
}

func TestGuard_DashboardMisSignedTokenTreatedAsNoSession(t *testing.T) {
	_, handler := newTestGuard(false)

	other := auth.NewTokenManager("a-completely-different-secret", time.Hour)
	token, err := other.Issue(&domain.User{ID: "u-1", Email: "a@x.com", Role: domain.RoleAdmin})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := classify(handler, r)

	assert.Equal(t, http.StatusFound, w.Code)
}

// --- Page branch: protected set ---

func TestGuard_ProtectedNoCookieRedirectsWithCallback(t *testing.T) {
	_, handler := newTestGuard(false)

	tests := []struct {
		path     string
		location string
	}{
		{"/files", "/auth/signin?callbackUrl=%2Ffiles"},
		{"/files/abc/download", "/auth/signin?callbackUrl=%2Ffiles%2Fabc%2Fdownload"},
		{"/upload", "/auth/signin?callbackUrl=%2Fupload"},
		{"/profile", "/auth/signin?callbackUrl=%2Fprofile"},
		{"/shared/with-me", "/auth/signin?callbackUrl=%2Fshared%2Fwith-me"},
	}
	for _, tt := range tests {
		w := classify(handler, httptest.NewRequest("GET", tt.path, nil))
		assert.Equal(t, http.StatusFound, w.Code, tt.path)
		assert.Equal(t, tt.location, w.Header().Get("Location"), tt.path)
	}
}

// Any valid session passes the protected set, regardless of role.
func TestGuard_ProtectedNonAdminSessionPasses(t *testing.T) {
	_, handler := newTestGuard(false)

	r := httptest.NewRequest("GET", "/files", nil)
	r.AddCookie(sessionCookie(t, domain.RoleUser))
	w := classify(handler, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

// Prefix matching requires a slash boundary: /filesystem is not /files.
func TestGuard_ProtectedPrefixNeedsSlashBoundary(t *testing.T) {
	_, handler := newTestGuard(false)

	w := classify(handler, httptest.NewRequest("GET", "/filesystem", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Default-open and ordering ---

func TestGuard_UnknownPathsDefaultOpen(t *testing.T) {
	_, handler := newTestGuard(false)

	for _, p := range []string{"/pricing", "/blog/post-1", "/anything"} {
		w := classify(handler, httptest.NewRequest("GET", p, nil))
		assert.Equal(t, http.StatusOK, w.Code, p)
	}
}

// Classifying the same request twice yields the same decision.
func TestGuard_ClassificationIsIdempotent(t *testing.T) {
	_, handler := newTestGuard(false)

	for range 2 {
		w := classify(handler, httptest.NewRequest("GET", "/dashboard/users", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/auth/signin?callbackUrl=%2Fdashboard%2Fusers", w.Header().Get("Location"))
	}
}

// --- Cookie naming and session context ---

func TestGuard_CookieNameByEnvironment(t *testing.T) {
	dev, _ := newTestGuard(false)
	prod, _ := newTestGuard(true)

	assert.Equal(t, "session-token", dev.CookieName())
	assert.Equal(t, "__Secure-session-token", prod.CookieName())
}

func TestGuard_ProductionReadsSecureCookie(t *testing.T) {
	_, handler := newTestGuard(true)

	token := sessionCookie(t, domain.RoleUser).Value

	// The plain cookie is ignored in production.
	r := httptest.NewRequest("GET", "/files", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	w := classify(handler, r)
	assert.Equal(t, http.StatusFound, w.Code)

	r = httptest.NewRequest("GET", "/files", nil)
	r.AddCookie(&http.Cookie{Name: SecureSessionCookie, Value: token})
	w = classify(handler, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuard_SessionReachesDownstreamHandlers(t *testing.T) {
	g := NewGuard(newTestTokenManager(), testAPIKey, false, newTestLogger())

	var got *domain.SessionView
	handler := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/profile", nil)
	r.AddCookie(sessionCookie(t, domain.RoleUser))
	classify(handler, r)

	require.NotNil(t, got)
	assert.Equal(t, "u-1234", got.UserID)
	assert.Equal(t, domain.RoleUser, got.Role)
}
