package provider

import "context"

// Identity is the external identity assertion handed to the resolver after a
// federated provider verified the user. It is trusted as-is: the provider
// already checked signatures and expiry.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// Provider is a federated authentication provider.
type Provider interface {
	// Name returns the provider tag stored on users it authenticates.
	Name() string

	// AuthCodeURL builds the authorization redirect URL for the given
	// anti-forgery state.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a verified identity.
	Exchange(ctx context.Context, code string) (*Identity, error)
}
