package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/auth/providers"
	"github.com/charlesng35/authcore/internal/services"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig("testdata")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "https://auth.example.com", cfg.Server.BaseURL)
	require.True(t, cfg.Server.Production())
	require.True(t, cfg.Server.CSRF.Enabled)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis://cache.example.com:6379/2", cfg.Cache.Redis.URL)
	require.Equal(t, 3*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, 168*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, 72*time.Hour, cfg.Auth.Session.RefreshThreshold)
	require.Equal(t, 48*time.Hour, cfg.Auth.Tokens.VerificationTTL)
	require.Equal(t, 30*time.Minute, cfg.Auth.Tokens.ResetTTL)
	require.Equal(t, 2*time.Minute, cfg.Auth.Tokens.ResendWindow)
	require.True(t, cfg.Auth.Google.Enabled)
	require.Equal(t, "client-id", cfg.Auth.Google.ClientID)
	require.Equal(t, providers.GoogleIssuer, cfg.Auth.Google.Issuer)
	require.Equal(t, 5*time.Minute, cfg.Auth.Flow.TTL)
	require.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.Auth.AdminEmails)

	require.Equal(t, "no-reply@example.com", cfg.Email.From)
	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)

	require.Equal(t, "*/30 * * * *", cfg.Maintenance.SessionCleanupSchedule)
	require.Equal(t, "@every 6h", cfg.Maintenance.TokenCleanupSchedule)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.False(t, cfg.Server.Production())
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 720*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, 10*time.Minute, cfg.Auth.Flow.TTL)
	require.False(t, cfg.Auth.Google.Enabled)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "@hourly", cfg.Maintenance.SessionCleanupSchedule)
	require.Equal(t, "@daily", cfg.Maintenance.TokenCleanupSchedule)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("AUTHCORE_SERVER_PORT", "7070")
	t.Setenv("AUTHCORE_AUTH_SESSION_TTL", "2h")
	t.Setenv("AUTHCORE_AUTH_ADMIN_EMAILS", "a@example.com,b@example.com")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, 2*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Auth.AdminEmails)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Server.BaseURL = "http://localhost:8000"
		cfg.Auth.Google.Enabled = true
		cfg.Auth.Google.ClientID = "id"
		cfg.Auth.Google.ClientSecret = "secret"
		cfg.Auth.Flow.Secret = strings.Repeat("ab", 32)
		return cfg
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative base url", mutate: func(c *Config) { c.Server.BaseURL = "/app" }, wantErr: "server.base_url"},
		{name: "unsupported scheme", mutate: func(c *Config) { c.Server.BaseURL = "ftp://example.com" }, wantErr: "server.base_url"},
		{name: "missing client secret", mutate: func(c *Config) { c.Auth.Google.ClientSecret = "" }, wantErr: "client_secret"},
		{name: "short flow secret", mutate: func(c *Config) { c.Auth.Flow.Secret = "abcd" }, wantErr: "auth.flow.secret"},
		{name: "google disabled ignores flow secret", mutate: func(c *Config) {
			c.Auth.Google.Enabled = false
			c.Auth.Flow.Secret = ""
		}},
		{name: "redis without url", mutate: func(c *Config) {
			c.Cache.Redis.Enabled = true
			c.Cache.Redis.URL = " "
		}, wantErr: "cache.redis.url"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}

	var nilConfig *Config
	require.Error(t, nilConfig.Validate())
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		Session: SessionSettings{TTL: 10 * time.Hour, RefreshThreshold: 2 * time.Hour},
		Tokens:  TokenSettings{VerificationTTL: time.Hour, ResetTTL: 15 * time.Minute, ResendWindow: 30 * time.Second},
		Google: GoogleSettings{
			ClientID:     " id ",
			ClientSecret: "secret",
			Issuer:       "https://issuer.example.com",
			Timeout:      3 * time.Second,
		},
		Flow: FlowSettings{Secret: " flow-secret ", TTL: 4 * time.Minute},
	}

	require.Equal(t, auth.SessionConfig{TTL: 10 * time.Hour, RefreshThreshold: 2 * time.Hour}, cfg.SessionServiceConfig())
	require.Equal(t, auth.FlowConfig{Secret: "flow-secret", Issuer: flowIssuer, TTL: 4 * time.Minute}, cfg.FlowServiceConfig())
	require.Equal(t, providers.GoogleOptions{
		ClientID:     "id",
		ClientSecret: "secret",
		Issuer:       "https://issuer.example.com",
		Timeout:      3 * time.Second,
	}, cfg.GoogleProviderOptions())
	require.Equal(t, services.AccountConfig{
		VerificationTTL: time.Hour,
		ResetTTL:        15 * time.Minute,
		ResendWindow:    30 * time.Second,
	}, cfg.AccountServiceConfig())
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultFlowTTL, cfg.FlowServiceConfig().TTL)

	accountCfg := cfg.AccountServiceConfig()
	require.Equal(t, services.DefaultVerificationTTL, accountCfg.VerificationTTL)
	require.Equal(t, services.DefaultResetTTL, accountCfg.ResetTTL)
	require.Equal(t, services.DefaultResendWindow, accountCfg.ResendWindow)
}

func TestEmailConfigAdapter(t *testing.T) {
	cfg := EmailConfig{
		From: " no-reply@example.com ",
		SMTP: SMTPConfig{
			Enabled:  true,
			Host:     "smtp.example.com",
			Port:     2525,
			Username: "user",
			Password: "pass",
			UseTLS:   true,
			Timeout:  10 * time.Second,
		},
	}

	settings := cfg.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "user", settings.Username)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.True(t, settings.UseTLS)
	require.Equal(t, 10*time.Second, settings.Timeout)
}

func TestCacheConfigAdapter(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{URL: " redis://localhost:6379/1 ", Timeout: time.Second}}

	redisCfg := cfg.RedisClientConfig()
	require.Equal(t, "redis://localhost:6379/1", redisCfg.URL)
	require.Equal(t, time.Second, redisCfg.Timeout)
}
