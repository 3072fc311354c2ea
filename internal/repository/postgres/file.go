package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/filedrop-io/filedrop/pkg/errors"

	"github.com/filedrop-io/filedrop/internal/domain"
)

// FileRepository implements repository.FileRepository using PostgreSQL.
type FileRepository struct {
	db DB
}

// NewFileRepository creates a new PostgreSQL-backed file metadata repository.
func NewFileRepository(db DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a file metadata row.
func (r *FileRepository) Create(ctx context.Context, f *domain.FileMeta) error {
	query := `
		INSERT INTO files (id, user_id, name, path, size, content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		f.ID,
		f.UserID,
		f.Name,
		f.Path,
		f.Size,
		f.ContentType,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	return nil
}

// GetByID retrieves file metadata by ID.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*domain.FileMeta, error) {
	query := `
		SELECT id, user_id, name, path, size, content_type, created_at, updated_at
		FROM files
		WHERE id = $1`

	var f domain.FileMeta
	err := r.db.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.UserID, &f.Name, &f.Path, &f.Size,
		&f.ContentType, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return &f, nil
}

// ListByUser returns a user's file metadata rows, newest first.
func (r *FileRepository) ListByUser(ctx context.Context, userID string) ([]domain.FileMeta, error) {
	query := `
		SELECT id, user_id, name, path, size, content_type, created_at, updated_at
		FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []domain.FileMeta
	for rows.Next() {
		var f domain.FileMeta
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Name, &f.Path, &f.Size,
			&f.ContentType, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file rows: %w", err)
	}

	return files, nil
}

// Delete removes a file metadata row.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM files WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("file", id)
	}

	return nil
}
