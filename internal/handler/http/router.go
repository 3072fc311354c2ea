package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/filedrop-io/filedrop/pkg/health"
	"github.com/filedrop-io/filedrop/pkg/middleware"
)

// RouterConfig carries the pieces the router wires together.
type RouterConfig struct {
	Guard       *Guard
	Auth        *AuthHandler
	API         *APIHandler
	Files       *FileHandler
	Pages       *PageHandler
	Health      *health.Handler
	Logger      *slog.Logger
	Environment string
	CORS        []string
	RateRPS     int
	Burst       int
}

// NewRouter assembles the HTTP surface: ambient middleware first, then the
// guard, then the route tree. The guard sees every request except the
// operational endpoints mounted before it.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("filedrop"))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   cfg.CORS,
		AllowCredentials: true,
		Environment:      cfg.Environment,
	}))
	r.Use(middleware.RateLimit(cfg.RateRPS, cfg.Burst, cfg.Logger))

	// Operational endpoints bypass the guard.
	r.Get("/healthz", cfg.Health.LivenessHandler())
	r.Get("/readyz", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(cfg.Guard.Middleware)

		// Public API and provider callbacks (guard-exempt namespace).
		r.Post("/api/public/register", cfg.Auth.Register)
		r.Post("/api/auth/signin", cfg.Auth.SignIn)
		r.Post("/api/auth/signout", cfg.Auth.SignOut)
		r.Get("/api/auth/session", cfg.Auth.Session)
		r.Get("/api/auth/signin/google", cfg.Auth.GoogleRedirect)
		r.Get("/api/auth/callback/google", cfg.Auth.GoogleCallback)

		// Record-store routes behind the shared secret.
		r.Get("/api/users", cfg.API.ListUsers)
		r.Get("/api/users/{id}", cfg.API.GetUser)
		r.Get("/api/activity/{userID}", cfg.API.ListActivity)
		r.Delete("/api/activity/{userID}", cfg.API.PurgeActivity)
		r.Get("/api/files/{userID}", cfg.API.ListFiles)
		r.Post("/api/feedback", cfg.API.CreateFeedback)
		r.Get("/api/feedback", cfg.API.ListFeedback)

		// Pages.
		r.Get("/", cfg.Pages.Home)
		r.Get("/auth/signin", cfg.Pages.SignInPage)
		r.Get("/profile", cfg.Pages.Profile)
		r.Get("/profile/activity", cfg.Pages.ProfileActivity)
		r.Get("/dashboard", cfg.Pages.Dashboard)
		r.Get("/dashboard/users", cfg.Pages.DashboardUsers)
		r.Get("/dashboard/feedback", cfg.Pages.DashboardFeedback)

		// Session-gated file routes.
		r.Post("/upload", cfg.Files.Upload)
		r.Get("/files", cfg.Files.List)
		r.Get("/files/{id}/download", cfg.Files.Download)
		r.Delete("/files/{id}", cfg.Files.Delete)
	})

	return r
}
