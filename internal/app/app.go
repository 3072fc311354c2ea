package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/filedrop-io/filedrop/pkg/database"
	"github.com/filedrop-io/filedrop/pkg/health"
	pkgkafka "github.com/filedrop-io/filedrop/pkg/kafka"
	"github.com/filedrop-io/filedrop/pkg/tracing"

	"github.com/filedrop-io/filedrop/internal/auth"
	"github.com/filedrop-io/filedrop/internal/config"
	"github.com/filedrop-io/filedrop/internal/event"
	handler "github.com/filedrop-io/filedrop/internal/handler/http"
	"github.com/filedrop-io/filedrop/internal/provider"
	"github.com/filedrop-io/filedrop/internal/provider/google"
	"github.com/filedrop-io/filedrop/internal/repository/postgres"
	"github.com/filedrop-io/filedrop/internal/service"
	"github.com/filedrop-io/filedrop/internal/storage"
	"github.com/filedrop-io/filedrop/migrations"
)

// App wires together all dependencies and runs the filedrop server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "filedrop",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis backs the sign-in throttle; the server still runs without it.
	var redisClient *goredis.Client
	if cfg.ThrottleEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unavailable, sign-in throttle disabled", slog.String("error", err.Error()))
			redisClient = nil
		}
	}

	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Federated provider. Startup proceeds without it when the client
	// credentials are absent.
	var googleProvider provider.Provider
	if cfg.GoogleClientID != "" {
		gp, err := google.New(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			return nil, fmt.Errorf("init google provider: %w", err)
		}
		googleProvider = gp
	} else {
		logger.Warn("google provider not configured, federated sign-in disabled")
	}

	// Build the dependency graph.
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionExpiry)
	userRepo := postgres.NewUserRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	fileRepo := postgres.NewFileRepository(pool)
	feedbackRepo := postgres.NewFeedbackRepository(pool)

	publisher := event.NewPublisher(producer, logger)
	recorder := service.NewActivityRecorder(activityRepo, logger)
	var throttle *service.SignInThrottle
	if redisClient != nil {
		throttle = service.NewSignInThrottle(redisClient, logger, cfg.ThrottleAttempts, cfg.ThrottleWindow)
	}
	authService := service.NewAuthService(userRepo, tokens, recorder, throttle, publisher, logger)

	blobs := storage.NewFTPStore(cfg.FTP, logger)
	fileService := service.NewFileService(fileRepo, blobs, logger)
	feedbackService := service.NewFeedbackService(feedbackRepo)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("ftp", blobs.Ping)
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP surface.
	guard := handler.NewGuard(tokens, cfg.APIKey, cfg.IsProduction(), logger)
	authHandler := handler.NewAuthHandler(authService, guard, googleProvider, cfg.SessionExpiry, logger)
	apiHandler := handler.NewAPIHandler(authService, recorder, fileService, feedbackService, logger)
	fileHandler := handler.NewFileHandler(fileService, logger)
	pageHandler := handler.NewPageHandler(authService, recorder, feedbackService, logger)

	router := handler.NewRouter(handler.RouterConfig{
		Guard:       guard,
		Auth:        authHandler,
		API:         apiHandler,
		Files:       fileHandler,
		Pages:       pageHandler,
		Health:      healthHandler,
		Logger:      logger,
		Environment: cfg.Environment,
		CORS:        cfg.CORSAllowedOrigins,
		RateRPS:     cfg.RateLimitRPS,
		Burst:       cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: drain HTTP, flush
// spans, close kafka, close redis, close the pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
