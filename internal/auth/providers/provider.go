package providers

import (
	"context"
	"errors"
)

// ErrEmailUnverified is returned when an identity provider reports an unverified email.
var ErrEmailUnverified = errors.New("provider: email not verified")

// Identity represents the claims returned from an external authentication provider.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	AvatarURL     string
	RawClaims     map[string]any
}

// IdentityProvider drives an authorization-code flow with PKCE against an external
// identity provider.
type IdentityProvider interface {
	// Name is the provider tag stored on accounts created through it.
	Name() string
	// AuthCodeURL returns the URL the browser is redirected to.
	AuthCodeURL(ctx context.Context, state, challenge, redirectURI string) (string, error)
	// Exchange trades the authorization code for the user's identity.
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*Identity, error)
}
