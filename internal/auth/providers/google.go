package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/charlesng35/authcore/internal/models"
)

// GoogleIssuer is the OpenID issuer used for discovery.
const GoogleIssuer = "https://accounts.google.com"

// GoogleOptions configures the Google identity provider.
type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	// Issuer overrides the discovery issuer, mainly for tests.
	Issuer     string
	Scopes     []string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// GoogleProvider signs users in with Google using the authorization code flow with PKCE.
// OpenID discovery happens on first use. A successful discovery is kept for the process
// lifetime; a failed one is retried by the next caller.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	issuer       string
	scopes       []string
	httpClient   *http.Client
	timeout      time.Duration

	mu       sync.Mutex
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewGoogleProvider validates the credentials and returns a lazily initialised provider.
func NewGoogleProvider(opts GoogleOptions) (*GoogleProvider, error) {
	if strings.TrimSpace(opts.ClientID) == "" {
		return nil, errors.New("google provider: client id is required")
	}
	if strings.TrimSpace(opts.ClientSecret) == "" {
		return nil, errors.New("google provider: client secret is required")
	}

	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		issuer = GoogleIssuer
	}
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &GoogleProvider{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		issuer:       issuer,
		scopes:       scopes,
		httpClient:   client,
		timeout:      timeout,
	}, nil
}

func (p *GoogleProvider) Name() string {
	return models.ProviderGoogle
}

func (p *GoogleProvider) AuthCodeURL(ctx context.Context, state, challenge, redirectURI string) (string, error) {
	if strings.TrimSpace(state) == "" {
		return "", errors.New("google provider: state is required")
	}
	if strings.TrimSpace(challenge) == "" {
		return "", errors.New("google provider: pkce challenge is required")
	}

	cfg, err := p.oauthConfig(ctx, redirectURI)
	if err != nil {
		return "", err
	}

	return cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

func (p *GoogleProvider) Exchange(ctx context.Context, code, verifier, redirectURI string) (*Identity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("google provider: authorization code missing")
	}
	if strings.TrimSpace(verifier) == "" {
		return nil, errors.New("google provider: pkce verifier is required")
	}

	cfg, err := p.oauthConfig(ctx, redirectURI)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(oidc.ClientContext(ctx, p.httpClient), p.timeout)
	defer cancel()

	token, err := cfg.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return nil, fmt.Errorf("google provider: exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google provider: id token missing")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google provider: verify id token: %w", err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google provider: decode claims: %w", err)
	}

	identity := &Identity{
		Provider:      models.ProviderGoogle,
		Subject:       idToken.Subject,
		Email:         strings.ToLower(strings.TrimSpace(stringValue(claims, "email"))),
		EmailVerified: boolValue(claims, "email_verified"),
		DisplayName:   stringValue(claims, "name"),
		AvatarURL:     stringValue(claims, "picture"),
		RawClaims:     claims,
	}
	if identity.Subject == "" {
		return nil, errors.New("google provider: subject missing")
	}
	if !identity.EmailVerified {
		return nil, ErrEmailUnverified
	}
	return identity, nil
}

func (p *GoogleProvider) oauthConfig(ctx context.Context, redirectURI string) (*oauth2.Config, error) {
	provider, err := p.discover(ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURI,
		Scopes:       p.scopes,
	}, nil
}

func (p *GoogleProvider) discover(ctx context.Context) (*oidc.Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.provider != nil {
		return p.provider, nil
	}

	discoveryCtx, cancel := context.WithTimeout(oidc.ClientContext(ctx, p.httpClient), p.timeout)
	defer cancel()

	provider, err := oidc.NewProvider(discoveryCtx, p.issuer)
	if err != nil {
		return nil, fmt.Errorf("google provider: discovery failed: %w", err)
	}
	p.provider = provider
	p.verifier = provider.Verifier(&oidc.Config{ClientID: p.clientID})
	return provider, nil
}

// boolValue also accepts "true" since some issuers encode email_verified as a string.
func boolValue(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

func stringValue(claims map[string]any, key string) string {
	if v, ok := claims[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
