package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/filedrop-io/filedrop/pkg/errors"

	"github.com/filedrop-io/filedrop/internal/domain"
	"github.com/filedrop-io/filedrop/internal/repository"
	"github.com/filedrop-io/filedrop/internal/storage"
)

// FileService stores uploaded blobs and their metadata rows.
type FileService struct {
	files  repository.FileRepository
	blobs  storage.BlobStore
	logger *slog.Logger
}

// NewFileService creates a file service.
func NewFileService(files repository.FileRepository, blobs storage.BlobStore, logger *slog.Logger) *FileService {
	return &FileService{files: files, blobs: blobs, logger: logger}
}

// Upload streams the blob to the store and records its metadata. Size is
// enforced by the handler before the stream reaches here.
func (s *FileService) Upload(ctx context.Context, userID, name, contentType string, size int64, r io.Reader) (*domain.FileMeta, error) {
	if size > domain.MaxFileSize {
		return nil, apperrors.InvalidInput(fmt.Sprintf("file exceeds %d byte limit", domain.MaxFileSize))
	}

	now := time.Now().UTC()
	meta := &domain.FileMeta{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	meta.Path = path.Join(userID, meta.ID, name)

	if err := s.blobs.Put(ctx, meta.Path, r); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.files.Create(ctx, meta); err != nil {
		// Metadata insert failed after the blob landed; clean up so the
		// store holds no orphan.
		if delErr := s.blobs.Delete(ctx, meta.Path); delErr != nil {
			s.logger.ErrorContext(ctx, "orphan blob cleanup failed",
				slog.String("path", meta.Path),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, apperrors.Internal(err)
	}

	return meta, nil
}

// Open returns the metadata and an open reader for a file the given user
// owns. The caller must close the reader.
func (s *FileService) Open(ctx context.Context, userID, fileID string) (*domain.FileMeta, io.ReadCloser, error) {
	meta, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if meta.UserID != userID {
		return nil, nil, apperrors.Forbidden("file belongs to another user")
	}

	rc, err := s.blobs.Get(ctx, meta.Path)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	return meta, rc, nil
}

// ListByUser returns a user's file metadata, newest first.
func (s *FileService) ListByUser(ctx context.Context, userID string) ([]domain.FileMeta, error) {
	return s.files.ListByUser(ctx, userID)
}

// Delete removes a file's metadata and blob. Owner-checked.
func (s *FileService) Delete(ctx context.Context, userID, fileID string) error {
	meta, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if meta.UserID != userID {
		return apperrors.Forbidden("file belongs to another user")
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, meta.Path); err != nil {
		s.logger.ErrorContext(ctx, "blob delete failed",
			slog.String("path", meta.Path),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
