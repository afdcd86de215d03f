package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the authcore server.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Email       EmailConfig       `mapstructure:"email"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	// BaseURL is the public origin used for email links and the OAuth redirect URI.
	BaseURL     string     `mapstructure:"base_url"`
	Environment string     `mapstructure:"environment"`
	CSRF        CSRFConfig `mapstructure:"csrf"`
}

// Production reports whether cookies must carry the Secure attribute.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(strings.TrimSpace(s.Environment), "production")
}

// CSRFConfig controls CSRF protection middleware.
type CSRFConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig describes cache backends.
type CacheConfig struct {
	Redis RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AuthConfig captures all authentication-related settings.
type AuthConfig struct {
	Session     SessionSettings `mapstructure:"session"`
	Tokens      TokenSettings   `mapstructure:"tokens"`
	Google      GoogleSettings  `mapstructure:"google"`
	Flow        FlowSettings    `mapstructure:"flow"`
	AdminEmails []string        `mapstructure:"admin_emails"`
}

// SessionSettings configures cookie session lifetimes.
type SessionSettings struct {
	TTL              time.Duration `mapstructure:"ttl"`
	RefreshThreshold time.Duration `mapstructure:"refresh_threshold"`
}

// TokenSettings configures single-use token lifetimes.
type TokenSettings struct {
	VerificationTTL time.Duration `mapstructure:"verification_ttl"`
	ResetTTL        time.Duration `mapstructure:"reset_ttl"`
	ResendWindow    time.Duration `mapstructure:"resend_window"`
}

// GoogleSettings configures Google sign-in.
type GoogleSettings struct {
	Enabled      bool          `mapstructure:"enabled"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Issuer       string        `mapstructure:"issuer"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// FlowSettings configures the signed OAuth flow cookie.
type FlowSettings struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	From string     `mapstructure:"from"`
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig defines SMTP dialer settings for sending email.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MonitoringConfig enables the metrics endpoint.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MaintenanceConfig holds cron specifications for the cleanup jobs.
type MaintenanceConfig struct {
	SessionCleanupSchedule string `mapstructure:"session_cleanup_schedule"`
	TokenCleanupSchedule   string `mapstructure:"token_cleanup_schedule"`
	CacheCleanupSchedule   string `mapstructure:"cache_cleanup_schedule"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("AUTHCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if base := strings.TrimSpace(c.Server.BaseURL); base != "" {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("server.base_url must be an absolute http(s) URL, got %q", base)
		}
	}

	if c.Auth.Google.Enabled {
		if strings.TrimSpace(c.Auth.Google.ClientID) == "" || strings.TrimSpace(c.Auth.Google.ClientSecret) == "" {
			return errors.New("auth.google.client_id and auth.google.client_secret are required when google sign-in is enabled")
		}
		length, err := KeyByteLength(c.Auth.Flow.Secret)
		if err != nil {
			return fmt.Errorf("auth.flow.secret: %w", err)
		}
		if length < minFlowSecretBytes {
			return fmt.Errorf("auth.flow.secret must be at least %d bytes (current: %d)", minFlowSecretBytes, length)
		}
	}

	if c.Cache.Redis.Enabled && strings.TrimSpace(c.Cache.Redis.URL) == "" {
		return errors.New("cache.redis.url is required when redis is enabled")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.csrf.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/authcore.sqlite")
	v.SetDefault("database.dsn", "")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.url", "redis://127.0.0.1:6379/0")
	v.SetDefault("cache.redis.timeout", "5s")

	v.SetDefault("auth.session.ttl", "720h") // 30 days
	v.SetDefault("auth.session.refresh_threshold", "360h")
	v.SetDefault("auth.tokens.verification_ttl", "24h")
	v.SetDefault("auth.tokens.reset_ttl", "1h")
	v.SetDefault("auth.tokens.resend_window", "1m")
	v.SetDefault("auth.google.enabled", false)
	v.SetDefault("auth.google.client_id", "")
	v.SetDefault("auth.google.client_secret", "")
	v.SetDefault("auth.google.issuer", "https://accounts.google.com")
	v.SetDefault("auth.google.timeout", "10s")
	v.SetDefault("auth.flow.secret", "")
	v.SetDefault("auth.flow.ttl", "10m")
	v.SetDefault("auth.admin_emails", []string{})

	v.SetDefault("email.from", "")
	v.SetDefault("email.smtp.enabled", false)
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout", "10s")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("maintenance.session_cleanup_schedule", "@hourly")
	v.SetDefault("maintenance.token_cleanup_schedule", "@daily")
	v.SetDefault("maintenance.cache_cleanup_schedule", "@hourly")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
