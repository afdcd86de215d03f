package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/crypto"
)

// ErrInvalidCredentials is returned when the supplied email/password pair is invalid.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// LocalProvider implements email/password authentication against stored accounts.
type LocalProvider struct {
	db *gorm.DB

	dummyOnce sync.Once
	dummyHash string
}

// NewLocalProvider builds a provider backed by the account table.
func NewLocalProvider(db *gorm.DB) (*LocalProvider, error) {
	if db == nil {
		return nil, errors.New("local provider: db is required")
	}
	return &LocalProvider{db: db}, nil
}

// Authenticate verifies the supplied credentials and returns the matching account.
// Unknown emails, accounts without a password and wrong passwords all yield
// ErrInvalidCredentials. The email verification state is not checked here.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var account models.Account
	err := p.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p.burn(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local provider: query account: %w", err)
	}

	if !account.HasPassword() {
		p.burn(password)
		return nil, ErrInvalidCredentials
	}
	if !crypto.VerifyPassword(*account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return &account, nil
}

// burn runs a full key derivation so that misses cost as much as mismatches.
func (p *LocalProvider) burn(password string) {
	p.dummyOnce.Do(func() {
		p.dummyHash, _ = crypto.HashPassword("authcore-placeholder")
	})
	_ = crypto.VerifyPassword(p.dummyHash, password)
}
