package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/authcore/internal/auth/providers"
	"github.com/charlesng35/authcore/internal/models"
)

type stubProvider struct {
	identity *providers.Identity
	err      error

	lastState       string
	lastChallenge   string
	lastVerifier    string
	lastRedirectURI string
}

func (p *stubProvider) Name() string { return models.ProviderGoogle }

func (p *stubProvider) AuthCodeURL(_ context.Context, state, challenge, redirectURI string) (string, error) {
	p.lastState = state
	p.lastChallenge = challenge
	p.lastRedirectURI = redirectURI
	return "https://idp.example.com/auth?state=" + url.QueryEscape(state), nil
}

func (p *stubProvider) Exchange(_ context.Context, code, verifier, redirectURI string) (*providers.Identity, error) {
	p.lastVerifier = verifier
	p.lastRedirectURI = redirectURI
	if p.err != nil {
		return nil, p.err
	}
	return p.identity, nil
}

func newTestExchange(t *testing.T, provider *stubProvider) (*OAuthExchange, *SessionService) {
	t.Helper()

	db, sessions, _ := setupSessionService(t, nil)
	exchange, err := NewOAuthExchange(db, provider, sessions)
	require.NoError(t, err)
	return exchange, sessions
}

func TestRedirectURI(t *testing.T) {
	uri, err := RedirectURI("https://app.example.com/")
	require.NoError(t, err)
	require.Equal(t, "https://app.example.com/auth/google/callback", uri)

	uri, err = RedirectURI("http://localhost:8000")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/auth/google/callback", uri)

	for _, bad := range []string{"", "app.example.com", "ftp://app.example.com", "/relative"} {
		_, err := RedirectURI(bad)
		require.ErrorIs(t, err, ErrInvalidBaseURL, bad)
	}
}

func TestBeginGeneratesStateAndVerifier(t *testing.T) {
	provider := &stubProvider{}
	exchange, _ := newTestExchange(t, provider)

	first, err := exchange.Begin(context.Background(), "https://app.example.com")
	require.NoError(t, err)
	require.NotEmpty(t, first.State)
	require.NotEmpty(t, first.CodeVerifier)
	require.Contains(t, first.AuthorizationURL, "https://idp.example.com/auth")
	require.Equal(t, first.State, provider.lastState)
	require.Equal(t, PKCEChallenge(first.CodeVerifier), provider.lastChallenge)
	require.Equal(t, "https://app.example.com/auth/google/callback", provider.lastRedirectURI)

	second, err := exchange.Begin(context.Background(), "https://app.example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.State, second.State)
	require.NotEqual(t, first.CodeVerifier, second.CodeVerifier)
}

func TestBeginRejectsRelativeBaseURL(t *testing.T) {
	exchange, _ := newTestExchange(t, &stubProvider{})

	_, err := exchange.Begin(context.Background(), "app.example.com")
	require.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestCompleteWrapsProviderFailure(t *testing.T) {
	exchange, _ := newTestExchange(t, &stubProvider{err: errors.New("invalid_grant")})

	_, err := exchange.Complete(context.Background(), "code", "verifier", "https://app.example.com")
	require.ErrorIs(t, err, ErrExternalAuth)
}

func TestCompleteRejectsUnverifiedEmail(t *testing.T) {
	exchange, _ := newTestExchange(t, &stubProvider{identity: &providers.Identity{
		Subject:       "sub-1",
		Email:         "eve@example.com",
		EmailVerified: false,
	}})

	_, err := exchange.Complete(context.Background(), "code", "verifier", "https://app.example.com")
	require.ErrorIs(t, err, ErrExternalAuth)
}

func TestResolveAccountCreatesNewAccount(t *testing.T) {
	exchange, _ := newTestExchange(t, &stubProvider{})

	account, err := exchange.ResolveAccount(context.Background(), &providers.Identity{
		Subject:       "sub-new",
		Email:         "New@Example.com",
		EmailVerified: true,
		DisplayName:   "New Person",
		AvatarURL:     "https://example.com/avatar.png",
	})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", account.Email)
	require.Equal(t, "New Person", account.Name)
	require.Equal(t, models.ProviderGoogle, account.Provider)
	require.True(t, account.EmailVerified)
	require.False(t, account.HasPassword())
	require.Empty(t, account.Avatar)
	require.NotNil(t, account.GoogleID)
	require.Equal(t, "sub-new", *account.GoogleID)
}

func TestResolveAccountLinksByEmail(t *testing.T) {
	exchange, _ := newTestExchange(t, &stubProvider{})
	existing := createTestAccount(t, exchange.db, "link@example.com")

	account, err := exchange.ResolveAccount(context.Background(), &providers.Identity{
		Subject:       "sub-link",
		Email:         "LINK@example.com",
		EmailVerified: true,
	})
	require.NoError(t, err)
	require.Equal(t, existing.ID, account.ID)

	var reloaded models.Account
	require.NoError(t, exchange.db.Take(&reloaded, "id = ?", existing.ID).Error)
	require.NotNil(t, reloaded.GoogleID)
	require.Equal(t, "sub-link", *reloaded.GoogleID)
	require.Equal(t, models.ProviderEmail, reloaded.Provider)
}

func TestResolveAccountPrefersSubjectOverEmail(t *testing.T) {
	exchange, _ := newTestExchange(t, &stubProvider{})

	subject := "sub-known"
	linked := &models.Account{
		Email:         "old@example.com",
		Name:          "Linked",
		Provider:      models.ProviderGoogle,
		GoogleID:      &subject,
		EmailVerified: true,
	}
	require.NoError(t, exchange.db.Create(linked).Error)
	createTestAccount(t, exchange.db, "changed@example.com")

	account, err := exchange.ResolveAccount(context.Background(), &providers.Identity{
		Subject:       subject,
		Email:         "changed@example.com",
		EmailVerified: true,
	})
	require.NoError(t, err)
	require.Equal(t, linked.ID, account.ID)
}

func TestLoginIssuesSession(t *testing.T) {
	provider := &stubProvider{identity: &providers.Identity{
		Provider:      models.ProviderGoogle,
		Subject:       "sub-login",
		Email:         "login@example.com",
		EmailVerified: true,
		DisplayName:   "Login User",
	}}
	exchange, sessions := newTestExchange(t, provider)

	account, session, err := exchange.Login(context.Background(), "code", "verifier-9", "https://app.example.com")
	require.NoError(t, err)
	require.Equal(t, "verifier-9", provider.lastVerifier)
	require.Equal(t, account.ID, session.AccountID)

	resolved, validated := sessions.Validate(context.Background(), session.Token)
	require.NotNil(t, validated)
	require.Equal(t, account.ID, resolved.ID)
}
