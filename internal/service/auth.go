package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/filedrop-io/filedrop/pkg/errors"

	"github.com/filedrop-io/filedrop/internal/auth"
	"github.com/filedrop-io/filedrop/internal/domain"
	"github.com/filedrop-io/filedrop/internal/event"
	"github.com/filedrop-io/filedrop/internal/provider"
	"github.com/filedrop-io/filedrop/internal/repository"
)

// genericAuthFailure is returned for every credential failure. Wrong
// password and unknown email are indistinguishable to the caller, so the
// response cannot be used to probe which addresses are registered.
const genericAuthFailure = "invalid email or password"

// AuthService implements credential verification, federated identity
// resolution, and session issuance.
type AuthService struct {
	users    repository.UserRepository
	tokens   *auth.TokenManager
	recorder *ActivityRecorder
	throttle *SignInThrottle
	events   *event.Publisher
	logger   *slog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenManager,
	recorder *ActivityRecorder,
	throttle *SignInThrottle,
	events *event.Publisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		recorder: recorder,
		throttle: throttle,
		events:   events,
		logger:   logger,
	}
}

// RegisterInput is the payload for local account creation.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=100"`
	Phone    string `json:"phone" validate:"max=20"`
}

// Register creates a local credentials account. The email is the natural
// key; a duplicate registration yields an already-exists error.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Provider:     domain.ProviderCredentials,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.events.UserRegistered(ctx, u)
	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", u.ID),
		slog.String("provider", u.Provider),
	)

	return u, nil
}

// Authenticate verifies an email/password pair. Every failure mode returns
// the same generic unauthorized error: unknown email, wrong password, and a
// federated-only account with no stored hash are indistinguishable.
func (s *AuthService) Authenticate(ctx context.Context, email, password, ip string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.Unauthorized(genericAuthFailure)
	}

	if s.throttle != nil && !s.throttle.Allow(ctx, email, ip) {
		return nil, apperrors.TooManyRequests("too many sign-in attempts, try again later")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.recordFailure(ctx, email, ip)
			return nil, apperrors.Unauthorized(genericAuthFailure)
		}
		return nil, apperrors.Internal(err)
	}

	if !auth.VerifyPassword(u.PasswordHash, password) {
		s.recordFailure(ctx, email, ip)
		return nil, apperrors.Unauthorized(genericAuthFailure)
	}

	if s.throttle != nil {
		s.throttle.Reset(ctx, email, ip)
	}

	return u, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, ip string) {
	if s.throttle != nil {
		s.throttle.RecordFailure(ctx, email, ip)
	}
}

// ResolveIdentity maps a verified federated identity onto a local user
// record, creating one on first login. Creation is create-if-absent keyed
// by the unique email: when a concurrent sign-in wins the insert race, the
// duplicate failure resolves by re-fetching the now-existing record.
func (s *AuthService) ResolveIdentity(ctx context.Context, id *provider.Identity) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, apperrors.Unauthorized("identity assertion missing email")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}

	now := time.Now().UTC()
	created := &domain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      id.Name,
		Provider:  id.Provider,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, created); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return s.users.GetByEmail(ctx, email)
		}
		return nil, apperrors.Internal(err)
	}

	s.events.UserRegistered(ctx, created)
	s.logger.InfoContext(ctx, "federated identity created",
		slog.String("user_id", created.ID),
		slog.String("provider", created.Provider),
	)

	return created, nil
}

// CompleteSignIn issues the session token for an authenticated user and
// kicks off the out-of-band effects: the activity record and the sign-in
// event. Neither can fail the sign-in.
func (s *AuthService) CompleteSignIn(ctx context.Context, r *http.Request, u *domain.User) (string, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", apperrors.Internal(err)
	}

	s.recorder.Record(r, u)
	s.events.UserSignedIn(ctx, u, ClientIP(r), DeviceDescriptor(r.UserAgent()))

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", u.ID),
		slog.String("provider", u.Provider),
	)

	return token, nil
}

// GetUser returns a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns all users for the admin dashboard.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}
