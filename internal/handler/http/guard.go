package http

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/filedrop-io/filedrop/pkg/httputil"

	"github.com/filedrop-io/filedrop/internal/auth"
	"github.com/filedrop-io/filedrop/internal/domain"
)

// Cookie names carrying the session token. The secure-prefixed variant is
// used in production so browsers refuse to accept it over plain HTTP.
const (
	SessionCookie       = "session-token"
	SecureSessionCookie = "__Secure-session-token"
)

const signInPath = "/auth/signin"

// apiKeyHeader is the shared-secret header gating non-public API routes.
const apiKeyHeader = "x-api-key"

// publicPages are the enumerated page paths open without a session.
var publicPages = map[string]struct{}{
	"/":         {},
	"/about":    {},
	"/feedback": {},
}

// protectedRoutes are the authenticated-only page routes. A path matches on
// exact equality or as a prefix followed by a slash.
var protectedRoutes = []string{"/files", "/upload", "/profile", "/shared"}

type sessionKey struct{}

// SessionFromContext returns the session view stashed by the guard, or nil
// when the request carried no valid session.
func SessionFromContext(ctx context.Context) *domain.SessionView {
	s, _ := ctx.Value(sessionKey{}).(*domain.SessionView)
	return s
}

// Guard classifies every inbound request into one of public-asset,
// public-API, secret-gated API, admin-only page, session-gated page, or
// open page, and enforces the matching rule. Classification is stateless:
// the decision depends only on the request's path, headers, and cookies
// plus the immutable server secrets.
type Guard struct {
	tokens     *auth.TokenManager
	apiKey     string
	production bool
	logger     *slog.Logger
}

// NewGuard creates the access classifier middleware.
func NewGuard(tokens *auth.TokenManager, apiKey string, production bool, logger *slog.Logger) *Guard {
	return &Guard{
		tokens:     tokens,
		apiKey:     apiKey,
		production: production,
		logger:     logger,
	}
}

// CookieName returns the session cookie name for this deployment.
func (g *Guard) CookieName() string {
	if g.production {
		return SecureSessionCookie
	}
	return SessionCookie
}

// Middleware applies the classification rules. API classification is
// terminal and strictly precedes page classification; within pages,
// exemptions win over the admin check, which wins over the generic
// protected-route check. Everything else is default-open.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path

		if isAPIPath(p) {
			if isPublicAPIPath(p) {
				next.ServeHTTP(w, r)
				return
			}
			if !g.apiKeyMatches(r.Header.Get(apiKeyHeader)) {
				g.rejectAPI(w)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if isExemptPage(p) {
			next.ServeHTTP(w, r)
			return
		}

		if isDashboardPath(p) {
			claims := g.sessionFrom(r)
			if claims == nil {
				g.redirectToSignIn(w, r, p)
				return
			}
			view := auth.SessionView(claims)
			if view.Role != domain.RoleAdmin {
				// Access is simply denied; nothing to come back to.
				g.redirectToSignIn(w, r, "")
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), view)))
			return
		}

		if isProtectedPath(p) {
			claims := g.sessionFrom(r)
			if claims == nil {
				g.redirectToSignIn(w, r, p)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), auth.SessionView(claims))))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// sessionFrom decodes the session cookie. Any failure, from a missing
// cookie to a mis-signed token, uniformly yields nil.
func (g *Guard) sessionFrom(r *http.Request) *auth.SessionClaims {
	cookie, err := r.Cookie(g.CookieName())
	if err != nil {
		return nil
	}
	claims, err := g.tokens.Decode(cookie.Value)
	if err != nil {
		g.logger.Debug("session decode failed", slog.String("error", err.Error()))
		return nil
	}
	return claims
}

// apiKeyMatches compares the presented key in constant time. An empty
// configured key fails closed: no presented value can match.
func (g *Guard) apiKeyMatches(presented string) bool {
	if g.apiKey == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(g.apiKey)) == 1
}

func (g *Guard) rejectAPI(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:    "Unauthorized",
			Message: "invalid or missing api key; contact support@filedrop.io if you believe this is an error",
		},
	})
}

func (g *Guard) redirectToSignIn(w http.ResponseWriter, r *http.Request, callback string) {
	target := signInPath
	if callback != "" {
		target += "?callbackUrl=" + url.QueryEscape(callback)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func withSession(ctx context.Context, s *domain.SessionView) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

func isPublicAPIPath(p string) bool {
	return strings.HasPrefix(p, "/api/public/") || strings.HasPrefix(p, "/api/auth/")
}

// isExemptPage matches auth pages, the enumerated public pages, and
// asset-looking paths (a file extension or the asset prefix).
func isExemptPage(p string) bool {
	if p == "/auth" || strings.HasPrefix(p, "/auth/") {
		return true
	}
	if _, ok := publicPages[p]; ok {
		return true
	}
	if strings.HasPrefix(p, "/assets/") {
		return true
	}
	return path.Ext(p) != ""
}

func isDashboardPath(p string) bool {
	return p == "/dashboard" || strings.HasPrefix(p, "/dashboard/")
}

func isProtectedPath(p string) bool {
	for _, route := range protectedRoutes {
		if p == route || strings.HasPrefix(p, route+"/") {
			return true
		}
	}
	return false
}
