package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/filedrop-io/filedrop/internal/domain"
	"github.com/filedrop-io/filedrop/internal/repository"
)

// recordTimeout bounds the background activity write once the originating
// request has already been answered.
const recordTimeout = 5 * time.Second

// ActivityRecorder captures login activity records. Recording is
// fire-and-forget: failures are logged and never surface to the sign-in
// flow that triggered them.
type ActivityRecorder struct {
	repo   repository.ActivityRepository
	logger *slog.Logger
}

// NewActivityRecorder creates an activity recorder.
func NewActivityRecorder(repo repository.ActivityRepository, logger *slog.Logger) *ActivityRecorder {
	return &ActivityRecorder{repo: repo, logger: logger}
}

// Record extracts the client IP and device descriptor from the request and
// persists the record in the background. The write uses a detached context
// so it survives the request's cancellation.
func (s *ActivityRecorder) Record(r *http.Request, u *domain.User) {
	rec := &domain.LoginActivity{
		ID:        uuid.New().String(),
		Email:     u.Email,
		UserID:    u.ID,
		Provider:  u.Provider,
		IP:        ClientIP(r),
		Device:    DeviceDescriptor(r.UserAgent()),
		CreatedAt: time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := s.repo.Create(ctx, rec); err != nil {
			s.logger.Error("failed to record login activity",
				slog.String("user_id", rec.UserID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// History returns a page of a user's activity records and the total count.
func (s *ActivityRecorder) History(ctx context.Context, userID string, page, perPage int) ([]domain.LoginActivity, int, error) {
	return s.repo.ListByUser(ctx, userID, page, perPage)
}

// Purge deletes a user's entire activity history.
func (s *ActivityRecorder) Purge(ctx context.Context, userID string) error {
	return s.repo.DeleteByUser(ctx, userID)
}

// ClientIP resolves the client address from proxy headers, in fixed
// priority order. X-Forwarded-For may carry a chain; only the first entry
// (the original client) is used.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// DeviceDescriptor renders a user agent as "{OS} - {Browser} ({DeviceClass})".
// Matching is substring-based and intentionally coarse: the descriptor is a
// human-readable hint on the activity page, not a fingerprint.
func DeviceDescriptor(userAgent string) string {
	return deviceOS(userAgent) + " - " + deviceBrowser(userAgent) + " (" + deviceClass(userAgent) + ")"
}

func deviceOS(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return "Windows"
	case strings.Contains(ua, "Android"):
		return "Android"
	case strings.Contains(ua, "iPhone"), strings.Contains(ua, "iPad"):
		return "iOS"
	case strings.Contains(ua, "Mac OS X"), strings.Contains(ua, "Macintosh"):
		return "macOS"
	case strings.Contains(ua, "Linux"):
		return "Linux"
	default:
		return "Unknown"
	}
}

// deviceBrowser accounts for derivative engines: Edge advertises "Chrome",
// and Chrome advertises "Safari".
func deviceBrowser(ua string) string {
	switch {
	case strings.Contains(ua, "Chrome") && !strings.Contains(ua, "Edg"):
		return "Chrome"
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "Safari") && !strings.Contains(ua, "Chrome"):
		return "Safari"
	case strings.Contains(ua, "Edg"):
		return "Edge"
	case strings.Contains(ua, "Opera"), strings.Contains(ua, "OPR"):
		return "Opera"
	default:
		return "Unknown"
	}
}

func deviceClass(ua string) string {
	lower := strings.ToLower(ua)
	switch {
	case strings.Contains(lower, "mobile"), strings.Contains(lower, "android"):
		return "Mobile"
	case strings.Contains(lower, "tablet"), strings.Contains(lower, "ipad"):
		return "Tablet"
	default:
		return "Desktop"
	}
}
