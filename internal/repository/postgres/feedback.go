package postgres

import (
	"context"
	"fmt"

	"github.com/filedrop-io/filedrop/internal/domain"
)

// FeedbackRepository implements repository.FeedbackRepository using PostgreSQL.
type FeedbackRepository struct {
	db DB
}

// NewFeedbackRepository creates a new PostgreSQL-backed feedback repository.
func NewFeedbackRepository(db DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a feedback entry.
func (r *FeedbackRepository) Create(ctx context.Context, fb *domain.Feedback) error {
	query := `
		INSERT INTO feedback (id, user_id, email, message, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		fb.ID,
		fb.UserID,
		fb.Email,
		fb.Message,
		fb.Rating,
		fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}

	return nil
}

// List returns all feedback entries, newest first.
func (r *FeedbackRepository) List(ctx context.Context) ([]domain.Feedback, error) {
	query := `
		SELECT id, user_id, email, message, rating, created_at
		FROM feedback
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var entries []domain.Feedback
	for rows.Next() {
		var fb domain.Feedback
		if err := rows.Scan(
			&fb.ID, &fb.UserID, &fb.Email, &fb.Message, &fb.Rating, &fb.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		entries = append(entries, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}

	return entries, nil
}
