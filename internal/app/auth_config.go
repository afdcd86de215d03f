package app

import (
	"strings"

	"github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/auth/providers"
	"github.com/charlesng35/authcore/internal/services"
)

const flowIssuer = "authcore"

// SessionServiceConfig converts AuthConfig into SessionService parameters. Zero values
// fall through to the session service defaults.
func (c AuthConfig) SessionServiceConfig() auth.SessionConfig {
	return auth.SessionConfig{
		TTL:              c.Session.TTL,
		RefreshThreshold: c.Session.RefreshThreshold,
	}
}

// FlowServiceConfig converts AuthConfig into FlowTokenService parameters.
func (c AuthConfig) FlowServiceConfig() auth.FlowConfig {
	ttl := c.Flow.TTL
	if ttl <= 0 {
		ttl = auth.DefaultFlowTTL
	}
	return auth.FlowConfig{
		Secret: strings.TrimSpace(c.Flow.Secret),
		Issuer: flowIssuer,
		TTL:    ttl,
	}
}

// GoogleProviderOptions converts AuthConfig into GoogleProvider options.
func (c AuthConfig) GoogleProviderOptions() providers.GoogleOptions {
	return providers.GoogleOptions{
		ClientID:     strings.TrimSpace(c.Google.ClientID),
		ClientSecret: strings.TrimSpace(c.Google.ClientSecret),
		Issuer:       strings.TrimSpace(c.Google.Issuer),
		Timeout:      c.Google.Timeout,
	}
}

// AccountServiceConfig converts the token settings into AccountService parameters.
func (c AuthConfig) AccountServiceConfig() services.AccountConfig {
	cfg := services.AccountConfig{
		VerificationTTL: c.Tokens.VerificationTTL,
		ResetTTL:        c.Tokens.ResetTTL,
		ResendWindow:    c.Tokens.ResendWindow,
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = services.DefaultVerificationTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = services.DefaultResetTTL
	}
	if cfg.ResendWindow <= 0 {
		cfg.ResendWindow = services.DefaultResendWindow
	}
	return cfg
}
