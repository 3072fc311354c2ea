package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/filedrop-io/filedrop/internal/domain"
)

// SessionClaims is the signed session payload issued at authentication time.
// It is a snapshot of the identity: later user mutations are not reflected
// until the next sign-in. The password hash is never part of the claims.
type SessionClaims struct {
	UserID        string    `json:"user_id"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email"`
	Provider      string    `json:"provider,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role,omitempty"`
	UserCreatedAt time.Time `json:"user_created_at,omitempty"`
	UserUpdatedAt time.Time `json:"user_updated_at,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and decodes session tokens.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager creates a token manager with the given signing secret and
// session validity window.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiry: expiry}
}

// BuildClaims packs a user's attributes into a claim set. Pure
// transformation: no I/O, and the password hash is excluded.
func (m *TokenManager) BuildClaims(u *domain.User) *SessionClaims {
	now := time.Now().UTC()
	return &SessionClaims{
		UserID:        u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Provider:      u.Provider,
		Phone:         u.Phone,
		Role:          u.Role,
		UserCreatedAt: u.CreatedAt,
		UserUpdatedAt: u.UpdatedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			Issuer:    "filedrop",
		},
	}
}

// Issue signs the claims for the given user into a compact token string.
func (m *TokenManager) Issue(u *domain.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, m.BuildClaims(u))
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Decode verifies the token's signature and validity window and returns its
// claims. Missing, malformed, expired, and mis-signed tokens all return an
// error; callers gating requests must treat any error uniformly as
// "unauthenticated".
func (m *TokenManager) Decode(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("empty session token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token claims")
	}

	return claims, nil
}

// SessionView re-exposes the claims as the public session shape. Role
// normalization happens here and only here: old or short claims without a
// role default to "user".
func SessionView(c *SessionClaims) *domain.SessionView {
	role := c.Role
	if role == "" {
		role = domain.RoleUser
	}
	return &domain.SessionView{
		UserID:    c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		Provider:  c.Provider,
		Phone:     c.Phone,
		Role:      role,
		CreatedAt: c.UserCreatedAt,
		UpdatedAt: c.UserUpdatedAt,
	}
}
