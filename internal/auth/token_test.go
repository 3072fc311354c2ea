package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedrop-io/filedrop/internal/domain"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret-key-for-testing", time.Hour)
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.User{
		ID:           "u-1234",
		Email:        "alice@example.com",
		Name:         "Alice Smith",
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuv",
		Phone:        "+1234567890",
		Provider:     domain.ProviderCredentials,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestBuildClaims_CopiesIdentityWithoutHash(t *testing.T) {
	m := newTestManager()
	u := sampleUser()

	claims := m.BuildClaims(u)

	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, u.Name, claims.Name)
	assert.Equal(t, u.Provider, claims.Provider)
	assert.Equal(t, u.Phone, claims.Phone)
	assert.Equal(t, u.Role, claims.Role)
	assert.Equal(t, u.CreatedAt, claims.UserCreatedAt)
	assert.Equal(t, u.UpdatedAt, claims.UserUpdatedAt)
}

func TestIssueDecode_RoundTrip(t *testing.T) {
	m := newTestManager()
	u := sampleUser()

	token, err := m.Issue(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// The hash must never leak into the signed payload.
	assert.NotContains(t, token, u.PasswordHash)

	claims, err := m.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, u.Role, claims.Role)
	assert.Equal(t, u.Provider, claims.Provider)
}

// Decoding the same token twice yields identical claims.
func TestDecode_Idempotent(t *testing.T) {
	m := newTestManager()

	token, err := m.Issue(sampleUser())
	require.NoError(t, err)

	first, err := m.Decode(token)
	require.NoError(t, err)
	second, err := m.Decode(token)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDecode_FailureModes(t *testing.T) {
	m := newTestManager()

	valid, err := m.Issue(sampleUser())
	require.NoError(t, err)

	expired, err := NewTokenManager("test-secret-key-for-testing", -time.Minute).Issue(sampleUser())
	require.NoError(t, err)

	misSigned, err := NewTokenManager("another-secret-entirely", time.Hour).Issue(sampleUser())
	require.NoError(t, err)

	tampered := valid[:len(valid)-4] + "XXXX"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "not.a.token"},
		{"expired", expired},
		{"mis-signed", misSigned},
		{"tampered signature", tampered},
		{"truncated", valid[:strings.LastIndex(valid, ".")]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := m.Decode(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestSessionView_RoleDefaultsToUser(t *testing.T) {
	view := SessionView(&SessionClaims{
		UserID: "u-1",
		Email:  "a@x.com",
	})

	assert.Equal(t, domain.RoleUser, view.Role)
}

func TestSessionView_KeepsExplicitRole(t *testing.T) {
	view := SessionView(&SessionClaims{
		UserID: "u-1",
		Email:  "a@x.com",
		Role:   domain.RoleAdmin,
	})

	assert.Equal(t, domain.RoleAdmin, view.Role)
}
