package repository

import (
	"context"

	"github.com/filedrop-io/filedrop/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A duplicate email yields an
	// already-exists error the caller can detect with errors.Is.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns all users, newest first. Consumed by the dashboard.
	List(ctx context.Context) ([]domain.User, error)
}

// ActivityRepository defines the interface for login activity records.
// Records are append-only; there is no update operation.
type ActivityRepository interface {
	// Create appends a login activity record.
	Create(ctx context.Context, rec *domain.LoginActivity) error

	// ListByUser returns a page of a user's activity records, newest
	// first, along with the total count.
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.LoginActivity, int, error)

	// DeleteByUser bulk-purges all activity records for a user.
	DeleteByUser(ctx context.Context, userID string) error
}

// FileRepository defines the interface for file metadata rows. The blob
// bytes themselves live behind storage.BlobStore.
type FileRepository interface {
	Create(ctx context.Context, f *domain.FileMeta) error
	GetByID(ctx context.Context, id string) (*domain.FileMeta, error)
	ListByUser(ctx context.Context, userID string) ([]domain.FileMeta, error)
	Delete(ctx context.Context, id string) error
}

// FeedbackRepository defines the interface for feedback entries.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *domain.Feedback) error
	List(ctx context.Context) ([]domain.Feedback, error)
}
