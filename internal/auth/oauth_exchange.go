package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/auth/providers"
	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/crypto"
	"github.com/charlesng35/authcore/pkg/logger"
)

// OAuthCallbackPath is appended to the public base URL to form the redirect URI.
const OAuthCallbackPath = "/auth/google/callback"

var (
	// ErrExternalAuth covers every failure of the external provider round trip.
	ErrExternalAuth = errors.New("oauth: external authentication failed")
	// ErrInvalidBaseURL is returned when the public base URL is not absolute http(s).
	ErrInvalidBaseURL = errors.New("oauth: base url must be an absolute http(s) url")
)

// Authorization is the material produced when an OAuth attempt begins.
type Authorization struct {
	AuthorizationURL string
	State            string
	CodeVerifier     string
}

// OAuthExchange drives the external sign-in flow and links the resulting identity
// to a local account.
type OAuthExchange struct {
	db       *gorm.DB
	provider providers.IdentityProvider
	sessions *SessionService
	log      *zap.Logger
}

// NewOAuthExchange constructs an OAuthExchange.
func NewOAuthExchange(db *gorm.DB, provider providers.IdentityProvider, sessions *SessionService) (*OAuthExchange, error) {
	if db == nil {
		return nil, errors.New("oauth exchange: db is required")
	}
	if provider == nil {
		return nil, errors.New("oauth exchange: provider is required")
	}
	if sessions == nil {
		return nil, errors.New("oauth exchange: session service is required")
	}
	return &OAuthExchange{
		db:       db,
		provider: provider,
		sessions: sessions,
		log:      logger.WithModule("oauth"),
	}, nil
}

// RedirectURI derives the callback URL registered with the provider.
func RedirectURI(baseURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", ErrInvalidBaseURL
	}
	return strings.TrimRight(parsed.String(), "/") + OAuthCallbackPath, nil
}

// Begin generates a fresh state and PKCE verifier and returns the provider URL.
func (e *OAuthExchange) Begin(ctx context.Context, baseURL string) (*Authorization, error) {
	redirectURI, err := RedirectURI(baseURL)
	if err != nil {
		return nil, err
	}

	state, err := crypto.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: generate state: %w", err)
	}
	pkce, err := GeneratePKCE()
	if err != nil {
		return nil, err
	}

	authURL, err := e.provider.AuthCodeURL(ctx, state, pkce.Challenge, redirectURI)
	if err != nil {
		e.log.Warn("authorization url unavailable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalAuth, err)
	}

	return &Authorization{
		AuthorizationURL: authURL,
		State:            state,
		CodeVerifier:     pkce.Verifier,
	}, nil
}

// Complete exchanges the authorization code and returns the verified identity.
func (e *OAuthExchange) Complete(ctx context.Context, code, verifier, baseURL string) (*providers.Identity, error) {
	redirectURI, err := RedirectURI(baseURL)
	if err != nil {
		return nil, err
	}

	identity, err := e.provider.Exchange(ctx, code, verifier, redirectURI)
	if err != nil {
		e.log.Info("code exchange rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExternalAuth, err)
	}
	if identity == nil || !identity.EmailVerified || strings.TrimSpace(identity.Email) == "" {
		return nil, fmt.Errorf("%w: %v", ErrExternalAuth, providers.ErrEmailUnverified)
	}
	return identity, nil
}

// ResolveAccount finds or creates the local account for an external identity.
// Accounts are matched by provider subject first, then by email, in which case the
// subject is linked onto the existing account.
func (e *OAuthExchange) ResolveAccount(ctx context.Context, identity *providers.Identity) (*models.Account, error) {
	if identity == nil || strings.TrimSpace(identity.Subject) == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrExternalAuth)
	}
	subject := strings.TrimSpace(identity.Subject)
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	db := e.db.WithContext(ctx)

	var account models.Account
	err := db.Where("google_id = ?", subject).Take(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.Unavailable("find account by subject", err)
	}

	err = db.Where("LOWER(email) = ?", email).Take(&account).Error
	switch {
	case err == nil:
		if err := db.Model(&account).Update("google_id", subject).Error; err != nil {
			return nil, database.Unavailable("link account", err)
		}
		account.GoogleID = &subject
		e.log.Info("linked external identity", zap.String("account_id", account.ID))
		return &account, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, database.Unavailable("find account by email", err)
	}

	name := strings.TrimSpace(identity.DisplayName)
	if name == "" {
		name = email
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		}
	}

	account = models.Account{
		Email:         email,
		Name:          name,
		Provider:      e.provider.Name(),
		GoogleID:      &subject,
		EmailVerified: true,
	}
	if err := db.Create(&account).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent callback for the same identity won the insert.
			var existing models.Account
			if lookupErr := db.Where("google_id = ? OR LOWER(email) = ?", subject, email).Take(&existing).Error; lookupErr == nil {
				return &existing, nil
			}
		}
		return nil, database.Unavailable("create account", err)
	}
	e.log.Info("account created from external identity", zap.String("account_id", account.ID))
	return &account, nil
}

// Login completes the exchange, resolves the account and opens a session for it.
func (e *OAuthExchange) Login(ctx context.Context, code, verifier, baseURL string) (*models.Account, *Session, error) {
	identity, err := e.Complete(ctx, code, verifier, baseURL)
	if err != nil {
		return nil, nil, err
	}

	account, err := e.ResolveAccount(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	session, err := e.sessions.Create(ctx, account.ID)
	if err != nil {
		return nil, nil, err
	}
	return account, session, nil
}
