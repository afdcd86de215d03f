package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/crypto"
	"github.com/charlesng35/authcore/pkg/metrics"
)

const (
	// DefaultVerificationTTL is the lifetime of email verification tokens.
	DefaultVerificationTTL = 24 * time.Hour
	// DefaultResetTTL is the lifetime of password reset tokens.
	DefaultResetTTL = time.Hour
	// DefaultResendWindow is the minimum gap between two verification emails.
	DefaultResendWindow = time.Minute
)

// TokenOption customises the TokenService.
type TokenOption func(*TokenService)

// WithTokenClock injects a custom time source.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(s *TokenService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// TokenService mints and consumes single-use tokens. Only the SHA-256 digest of a token
// is stored; at most one token per account and kind exists at a time.
type TokenService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(db *gorm.DB, opts ...TokenOption) (*TokenService, error) {
	if db == nil {
		return nil, errors.New("token service: db is required")
	}

	service := &TokenService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Issue replaces any existing token of the same kind for the account and returns the
// new raw token. Like Consume it runs on tx when one is given.
func (s *TokenService) Issue(ctx context.Context, tx *gorm.DB, accountID string, kind models.TokenKind, ttl time.Duration) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", errors.New("token service: account id is required")
	}
	if ttl <= 0 {
		return "", errors.New("token service: ttl must be positive")
	}

	raw, err := crypto.GenerateSecureToken()
	if err != nil {
		return "", fmt.Errorf("token service: generate token: %w", err)
	}

	now := s.now()
	record := models.SingleUseToken{
		AccountID: accountID,
		Kind:      kind,
		TokenHash: crypto.HashToken(raw),
		ExpiresAt: now.Add(ttl),
	}
	record.CreatedAt = now

	if tx == nil {
		tx = s.db
	}
	err = tx.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Where("account_id = ? AND kind = ?", accountID, kind).
			Delete(&models.SingleUseToken{}).Error; err != nil {
			return err
		}
		return inner.Create(&record).Error
	})
	if err != nil {
		return "", database.Unavailable("issue token", err)
	}

	metrics.TokensIssued.WithLabelValues(string(kind)).Inc()
	return raw, nil
}

// Consume marks a matching unused, unexpired token as used. It runs on tx so callers
// can pair it with their own writes. ErrInvalidToken is returned when nothing matches,
// including when a concurrent caller consumed the token first.
func (s *TokenService) Consume(ctx context.Context, tx *gorm.DB, accountID string, kind models.TokenKind, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.TrimSpace(accountID) == "" {
		return ErrInvalidToken
	}
	if tx == nil {
		tx = s.db
	}

	result := tx.WithContext(ctx).
		Model(&models.SingleUseToken{}).
		Where("account_id = ? AND kind = ? AND token_hash = ?", accountID, kind, crypto.HashToken(raw)).
		Where("used = ? AND expires_at > ?", false, s.now()).
		Update("used", true)
	if result.Error != nil {
		return database.Unavailable("consume token", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidToken
	}
	return nil
}

// RecentlyIssued reports whether a token of the kind was minted within window.
func (s *TokenService) RecentlyIssued(ctx context.Context, accountID string, kind models.TokenKind, window time.Duration) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.SingleUseToken{}).
		Where("account_id = ? AND kind = ? AND created_at > ?", accountID, kind, s.now().Add(-window)).
		Count(&count).Error
	if err != nil {
		return false, database.Unavailable("count recent tokens", err)
	}
	return count > 0, nil
}

// PurgeExpired removes tokens past their expiry, used or not.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now()).
		Delete(&models.SingleUseToken{})
	if result.Error != nil {
		return 0, database.Unavailable("purge tokens", result.Error)
	}
	return result.RowsAffected, nil
}
