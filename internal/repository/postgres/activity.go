package postgres

import (
	"context"
	"fmt"

	"github.com/filedrop-io/filedrop/internal/domain"
)

// ActivityRepository implements repository.ActivityRepository using PostgreSQL.
type ActivityRepository struct {
	db DB
}

// NewActivityRepository creates a new PostgreSQL-backed activity repository.
func NewActivityRepository(db DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends a login activity record.
func (r *ActivityRepository) Create(ctx context.Context, rec *domain.LoginActivity) error {
	query := `
		INSERT INTO login_activity (id, email, user_id, provider, ip, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		rec.ID,
		rec.Email,
		rec.UserID,
		rec.Provider,
		rec.IP,
		rec.Device,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert login activity: %w", err)
	}

	return nil
}

// ListByUser returns a page of a user's activity records, newest first, and
// the total record count for pagination.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.LoginActivity, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	var total int
	countQuery := `SELECT COUNT(*) FROM login_activity WHERE user_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count login activity: %w", err)
	}

	query := `
		SELECT id, email, user_id, provider, ip, device, created_at
		FROM login_activity
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list login activity: %w", err)
	}
	defer rows.Close()

	var records []domain.LoginActivity
	for rows.Next() {
		var rec domain.LoginActivity
		if err := rows.Scan(
			&rec.ID, &rec.Email, &rec.UserID, &rec.Provider,
			&rec.IP, &rec.Device, &rec.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan activity row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate activity rows: %w", err)
	}

	return records, total, nil
}

// DeleteByUser purges all activity records for a user. Deleting an empty
// history is not an error.
func (r *ActivityRepository) DeleteByUser(ctx context.Context, userID string) error {
	query := `DELETE FROM login_activity WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("delete login activity: %w", err)
	}

	return nil
}
