package domain

import "time"

// MaxFileSize is the upper bound for a single uploaded file.
const MaxFileSize = 50 << 20 // 50 MB

// FileMeta is the metadata row for a stored blob. The bytes themselves live
// in the blob store; Path is the blob store key.
type FileMeta struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Feedback is a user-submitted feedback entry shown on the admin dashboard.
type Feedback struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}
