package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/authcore/internal/app"
	"github.com/charlesng35/authcore/internal/app/maintenance"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/mail"
)

func testConfig(t *testing.T) *app.Config {
	t.Helper()

	cfg := &app.Config{}
	cfg.Server.Port = 8000
	cfg.Server.BaseURL = "http://localhost:8000"
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "authcore.sqlite")
	cfg.Cache.Redis.Timeout = 200 * time.Millisecond
	return cfg
}

func bootstrap(t *testing.T, cfg *app.Config) *runtimeStack {
	t.Helper()

	stack, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { stack.Shutdown(context.Background(), zap.NewNop()) })
	return stack
}

func TestBootstrapRuntimeServesHealth(t *testing.T) {
	stack := bootstrap(t, testConfig(t))

	require.Nil(t, stack.Redis)
	require.Equal(t, []string{
		maintenance.JobSessionCleanup,
		maintenance.JobTokenCleanup,
		maintenance.JobCacheCleanup,
	}, stack.Cleaner.Jobs())

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), `"component":"maintenance"`)
	require.Contains(t, w.Body.String(), `"component":"cache"`)
}

func TestBootstrapRuntimeUsesRedisWhenReachable(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Cache.Redis.Enabled = true
	cfg.Cache.Redis.URL = "redis://" + mr.Addr() + "/0"

	stack := bootstrap(t, cfg)
	require.NotNil(t, stack.Redis)
	require.Equal(t, []string{maintenance.JobSessionCleanup, maintenance.JobTokenCleanup}, stack.Cleaner.Jobs())
}

func TestBootstrapRuntimeFallsBackWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Redis.Enabled = true
	cfg.Cache.Redis.URL = "redis://127.0.0.1:1/0"

	stack := bootstrap(t, cfg)
	require.Nil(t, stack.Redis)
	require.Contains(t, stack.Cleaner.Jobs(), maintenance.JobCacheCleanup)
}

func TestBootstrapRuntimeRejectsInvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Maintenance.TokenCleanupSchedule = "every now and then"

	_, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "start maintenance jobs")
}

func TestBootstrapPromotesAdminEmails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.AdminEmails = []string{" Root@Example.com "}

	first, err := bootstrapRuntime(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, first.DB.Create(&models.Account{
		Email:         "root@example.com",
		Name:          "Root",
		Provider:      models.ProviderEmail,
		EmailVerified: true,
	}).Error)
	first.Shutdown(context.Background(), zap.NewNop())

	second := bootstrap(t, cfg)
	var account models.Account
	require.NoError(t, second.DB.Take(&account, "email = ?", "root@example.com").Error)
	require.True(t, account.IsAdmin)
}

func TestBootstrapRuntimeWithGoogle(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Google.Enabled = true
	cfg.Auth.Google.ClientID = "client-id"
	cfg.Auth.Google.ClientSecret = "client-secret"
	cfg.Auth.Flow.Secret = "0123456789abcdef0123456789abcdef"

	stack := bootstrap(t, cfg)

	w := httptest.NewRecorder()
	stack.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login?error=google_auth_failed", w.Header().Get("Location"))
}

func TestConvertDatabaseConfig(t *testing.T) {
	cfg := &app.Config{}
	cfg.Database.Driver = " PostgreSQL "
	cfg.Database.Postgres.Host = "db.internal"
	cfg.Database.Postgres.Port = 5432
	cfg.Database.Postgres.Database = "authcore"
	cfg.Database.Postgres.Username = "svc"

	dbCfg := convertDatabaseConfig(cfg)
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 5432, dbCfg.Port)
	require.Equal(t, "authcore", dbCfg.Name)
	require.Equal(t, "svc", dbCfg.User)

	cfg = &app.Config{}
	cfg.Database.MySQL.Host = "mysql.internal"
	require.Equal(t, "sqlite", convertDatabaseConfig(cfg).Driver)
	require.Empty(t, convertDatabaseConfig(cfg).Host)
}

func TestBuildMailer(t *testing.T) {
	cfg := &app.Config{}
	_, isLog := buildMailer(cfg).(*mail.LogMailer)
	require.True(t, isLog)

	cfg.Email.SMTP.Enabled = true
	cfg.Email.SMTP.Host = "smtp.example.com"
	cfg.Email.SMTP.Port = 587
	cfg.Email.From = "no-reply@example.com"
	_, isLazy := buildMailer(cfg).(*mail.LazyMailer)
	require.True(t, isLazy)
}

func TestPublicOrigin(t *testing.T) {
	cfg := &app.Config{}
	cfg.Server.Port = 9000
	require.Equal(t, "http://localhost:9000", publicOrigin(cfg))

	cfg.Server.BaseURL = " https://auth.example.com "
	require.Equal(t, "https://auth.example.com", publicOrigin(cfg))
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig(filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "does not exist")

	cfg, err := loadApplicationConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.Server.Port)
}
