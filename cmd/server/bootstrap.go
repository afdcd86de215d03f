package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/api"
	"github.com/charlesng35/authcore/internal/app"
	"github.com/charlesng35/authcore/internal/app/maintenance"
	iauth "github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/auth/providers"
	"github.com/charlesng35/authcore/internal/cache"
	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/internal/monitoring"
	"github.com/charlesng35/authcore/internal/monitoring/checks"
	"github.com/charlesng35/authcore/internal/services"
	"github.com/charlesng35/authcore/pkg/logger"
	"github.com/charlesng35/authcore/pkg/mail"
)

const probeTimeout = 2 * time.Second

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB       *gorm.DB
	Redis    *cache.RedisStore
	Sessions *iauth.SessionService
	Accounts *services.AccountService
	Cleaner  *maintenance.Cleaner
	Health   *monitoring.HealthManager
	Router   *gin.Engine
}

// bootstrapRuntime initialises databases, caches, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)
	var sessionStore cache.Store = dbStore
	var cacheProbe checks.Pinger = dbStore

	if cfg.Cache.Redis.Enabled {
		if stack.Redis, err = cache.NewRedisStore(cfg.Cache.RedisClientConfig()); err != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(err))
		} else {
			log.Info("redis connected")
			sessionStore = stack.Redis
			cacheProbe = stack.Redis
		}
	}

	sessionCfg := cfg.Auth.SessionServiceConfig()
	sessionCfg.Cache = iauth.NewSessionCache(sessionStore)
	stack.Sessions, err = iauth.NewSessionService(stack.DB, sessionCfg)
	if err != nil {
		return nil, fmt.Errorf("initialise session service: %w", err)
	}
	cookies := iauth.NewCookieFactory(cfg.Server.Production(), stack.Sessions.TTL())

	tokens, err := services.NewTokenService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise token service: %w", err)
	}

	stack.Accounts, err = services.NewAccountService(
		stack.DB,
		tokens,
		stack.Sessions,
		buildMailer(cfg),
		services.NewLinkBuilder(publicOrigin(cfg)),
		cfg.Auth.AccountServiceConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise account service: %w", err)
	}

	profiles, err := services.NewProfileService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise profile service: %w", err)
	}

	var cachePurger maintenance.Purger
	if stack.Redis == nil {
		cachePurger = maintenance.PurgerFunc(func(ctx context.Context) (int64, error) {
			return dbStore.PurgeExpired(ctx, time.Now())
		})
	}

	tracker := monitoring.NewJobTracker()
	stack.Cleaner = maintenance.NewCleaner(stack.Sessions, tokens, cachePurger,
		maintenance.WithTracker(tracker),
		maintenance.WithSessionSchedule(cfg.Maintenance.SessionCleanupSchedule),
		maintenance.WithTokenSchedule(cfg.Maintenance.TokenCleanupSchedule),
		maintenance.WithCacheSchedule(cfg.Maintenance.CacheCleanupSchedule),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Health = monitoring.NewHealthManager(
		checks.Database(stack.DB, probeTimeout),
		checks.Cache(cacheProbe, probeTimeout),
		checks.Maintenance(tracker, 0, nil),
	)

	deps := api.Dependencies{
		DB:       stack.DB,
		Config:   cfg,
		Sessions: stack.Sessions,
		Cookies:  cookies,
		Accounts: stack.Accounts,
		Profiles: profiles,
		Health:   stack.Health,
	}

	if cfg.Auth.Google.Enabled {
		deps.OAuth, deps.Flow, err = buildGoogleSignIn(cfg, stack.DB, stack.Sessions)
		if err != nil {
			return nil, err
		}
		log.Info("google sign-in enabled")
	}

	stack.Router, err = api.NewRouter(deps)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			log.Warn("maintenance jobs still running at shutdown")
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func buildGoogleSignIn(cfg *app.Config, db *gorm.DB, sessions *iauth.SessionService) (*iauth.OAuthExchange, *iauth.FlowTokenService, error) {
	provider, err := providers.NewGoogleProvider(cfg.Auth.GoogleProviderOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("initialise google provider: %w", err)
	}
	flow, err := iauth.NewFlowTokenService(cfg.Auth.FlowServiceConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("initialise flow token service: %w", err)
	}
	exchange, err := iauth.NewOAuthExchange(db, provider, sessions)
	if err != nil {
		return nil, nil, fmt.Errorf("initialise oauth exchange: %w", err)
	}
	return exchange, flow, nil
}

// buildMailer returns an SMTP mailer that connects on first use, or a mailer that only
// logs messages when SMTP is disabled.
func buildMailer(cfg *app.Config) mail.Mailer {
	settings := cfg.Email.SMTPSettings()
	if !settings.Enabled {
		logger.WithModule("mail").Warn("smtp disabled; emails will be logged instead of delivered")
		return mail.NewLogMailer()
	}
	return mail.NewLazyMailer(func() (mail.Mailer, error) {
		return mail.NewSMTPMailer(settings)
	})
}

// publicOrigin is the origin embedded in email links.
func publicOrigin(cfg *app.Config) string {
	if base := strings.TrimSpace(cfg.Server.BaseURL); base != "" {
		return base
	}
	return fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
}

func initialiseDatabase(ctx context.Context, cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db.WithContext(ctx), database.SeedOptions{AdminEmails: cfg.Auth.AdminEmails}); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
