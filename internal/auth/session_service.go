package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/crypto"
	"github.com/charlesng35/authcore/pkg/logger"
	"github.com/charlesng35/authcore/pkg/metrics"
)

const (
	// DefaultSessionTTL is the lifetime granted to new and renewed sessions.
	DefaultSessionTTL = 30 * 24 * time.Hour
	// DefaultRefreshThreshold is the remaining lifetime below which a session is renewed.
	DefaultRefreshThreshold = DefaultSessionTTL / 2
)

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	TTL              time.Duration
	RefreshThreshold time.Duration
	Clock            func() time.Time
	Cache            SessionCache
}

// Session is the caller's view of an issued session. Token is the raw value handed
// to the client; storage only ever sees its hash.
type Session struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
	// Fresh is set when the expiry changed and the client cookie must be rewritten.
	Fresh bool
}

// ErrAccountRequired is returned when a session is requested without an owner.
var ErrAccountRequired = errors.New("session: account id is required")

// SessionService issues, validates, renews and revokes cookie sessions.
type SessionService struct {
	db        *gorm.DB
	ttl       time.Duration
	threshold time.Duration
	now       func() time.Time
	cache     SessionCache
	log       *zap.Logger
}

// NewSessionService constructs a session manager backed by the provided database.
func NewSessionService(db *gorm.DB, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	threshold := cfg.RefreshThreshold
	if threshold <= 0 || threshold > ttl {
		threshold = ttl / 2
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:        db,
		ttl:       ttl,
		threshold: threshold,
		now:       clock,
		cache:     cfg.Cache,
		log:       logger.WithModule("session"),
	}, nil
}

// TTL reports the lifetime granted to sessions.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Create mints a new session for the account.
func (s *SessionService) Create(ctx context.Context, accountID string) (*Session, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrAccountRequired
	}

	token, err := crypto.GenerateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("session service: generate token: %w", err)
	}

	record := &models.Session{
		ID:        crypto.HashToken(token),
		AccountID: accountID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, database.Unavailable("create session", err)
	}

	metrics.ActiveSessions.Inc()
	s.cacheSet(ctx, record)

	return &Session{
		Token:     token,
		AccountID: accountID,
		ExpiresAt: record.ExpiresAt,
		Fresh:     true,
	}, nil
}

// Validate resolves the account behind a raw session token.
//
// Validate is not a pure read: an expired session row is deleted, and a session in
// the second half of its lifetime has its expiry pushed out to a full TTL and is
// returned with Fresh set. Unknown, expired or unreadable sessions yield (nil, nil).
func (s *SessionService) Validate(ctx context.Context, token string) (*models.Account, *Session) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	id := crypto.HashToken(token)

	record, account, err := s.load(ctx, id)
	if err != nil {
		s.log.Warn("session lookup failed", zap.Error(err))
		return nil, nil
	}
	if record == nil || account == nil {
		return nil, nil
	}

	now := s.now()
	if record.IsExpired(now) {
		s.delete(ctx, id)
		return nil, nil
	}

	session := &Session{
		Token:     token,
		AccountID: record.AccountID,
		ExpiresAt: record.ExpiresAt,
	}

	if record.ExpiresAt.Sub(now) < s.threshold {
		expiresAt := now.Add(s.ttl)
		result := s.db.WithContext(ctx).
			Model(&models.Session{}).
			Where("id = ?", id).
			Update("expires_at", expiresAt)
		if result.Error != nil {
			s.log.Warn("session renewal failed", zap.String("account_id", record.AccountID), zap.Error(result.Error))
			return nil, nil
		}
		if result.RowsAffected == 0 {
			// revoked between lookup and renewal
			s.cacheDelete(ctx, id)
			return nil, nil
		}
		record.ExpiresAt = expiresAt
		session.ExpiresAt = expiresAt
		session.Fresh = true
		metrics.SessionRenewals.Inc()
		s.cacheSet(ctx, record)
	}

	return account, session
}

// Invalidate deletes the session behind a raw token. Unknown tokens and store failures
// are not reported.
func (s *SessionService) Invalidate(ctx context.Context, token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	s.delete(ctx, crypto.HashToken(token))
}

// InvalidateAll deletes every session belonging to the account. Cached copies are
// evicted too; a failed eviction is reported even though the rows are already gone.
func (s *SessionService) InvalidateAll(ctx context.Context, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return ErrAccountRequired
	}

	var ids []string
	if s.cache != nil {
		if err := s.db.WithContext(ctx).
			Model(&models.Session{}).
			Where("account_id = ?", accountID).
			Pluck("id", &ids).Error; err != nil {
			return database.Unavailable("list sessions", err)
		}
	}

	result := s.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&models.Session{})
	if result.Error != nil {
		return database.Unavailable("invalidate sessions", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	if s.cache != nil {
		var errs error
		for _, id := range ids {
			errs = multierr.Append(errs, s.cache.Delete(ctx, id))
		}
		if errs != nil {
			s.log.Warn("session cache eviction failed", zap.String("account_id", accountID), zap.Error(errs))
			return database.Unavailable("evict cached sessions", errs)
		}
	}
	return nil
}

// PurgeExpired deletes session rows past their expiry. Cached copies expire on
// their own TTL.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, database.Unavailable("purge sessions", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *SessionService) load(ctx context.Context, id string) (*models.Session, *models.Account, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		switch {
		case err == nil && cached != nil:
			// The row stays authoritative: the account is only loaded while the
			// session row still exists.
			var account models.Account
			err := s.db.WithContext(ctx).
				Joins("JOIN sessions ON sessions.account_id = accounts.id").
				Where("sessions.id = ?", id).
				Take(&account).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.cacheDelete(ctx, id)
				return nil, nil, nil
			}
			if err != nil {
				return nil, nil, err
			}
			return cached, &account, nil
		case err != nil && !errors.Is(err, errSessionCacheMiss):
			s.log.Debug("session cache read failed", zap.Error(err))
		}
	}

	var record models.Session
	err := s.db.WithContext(ctx).Preload("Account").Take(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	s.cacheSet(ctx, &record)
	return &record, record.Account, nil
}

func (s *SessionService) delete(ctx context.Context, id string) {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{})
	if result.Error != nil {
		s.log.Warn("session delete failed", zap.Error(result.Error))
	} else if result.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(result.RowsAffected))
	}

	s.cacheDelete(ctx, id)
}

func (s *SessionService) cacheDelete(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("session cache delete failed", zap.Error(err))
	}
}

func (s *SessionService) cacheSet(ctx context.Context, record *models.Session) {
	if s.cache == nil {
		return
	}
	ttl := record.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, record, ttl); err != nil {
		s.log.Debug("session cache write failed", zap.Error(err))
	}
}
