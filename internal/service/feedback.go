package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/filedrop-io/filedrop/internal/domain"
	"github.com/filedrop-io/filedrop/internal/repository"
)

// FeedbackService stores user feedback shown on the admin dashboard.
type FeedbackService struct {
	feedback repository.FeedbackRepository
}

// NewFeedbackService creates a feedback service.
func NewFeedbackService(feedback repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{feedback: feedback}
}

// FeedbackInput is the payload for a feedback submission.
type FeedbackInput struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=2000"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
}

// Submit records a feedback entry.
func (s *FeedbackService) Submit(ctx context.Context, in FeedbackInput) (*domain.Feedback, error) {
	fb := &domain.Feedback{
		ID:        uuid.New().String(),
		UserID:    in.UserID,
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Message:   strings.TrimSpace(in.Message),
		Rating:    in.Rating,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

// List returns all feedback entries, newest first.
func (s *FeedbackService) List(ctx context.Context) ([]domain.Feedback, error) {
	return s.feedback.List(ctx)
}
