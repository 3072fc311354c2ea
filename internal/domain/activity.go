package domain

import "time"

// LoginActivity is an append-only record of a successful sign-in. Writes are
// fire-and-forget: a failed write never fails the sign-in that produced it.
type LoginActivity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	IP        string    `json:"ip"`
	Device    string    `json:"device"`
	CreatedAt time.Time `json:"created_at"`
}
