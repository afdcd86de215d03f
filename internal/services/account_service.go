package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/auth/providers"
	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/crypto"
	"github.com/charlesng35/authcore/pkg/logger"
	"github.com/charlesng35/authcore/pkg/mail"
	"github.com/charlesng35/authcore/pkg/metrics"
	"github.com/charlesng35/authcore/pkg/validator"
)

const (
	// MessageResetRequested is returned for every password reset request.
	MessageResetRequested = "If an account exists, password reset instructions have been sent"
	// MessageVerificationSent is returned for resend requests that may have sent an email.
	MessageVerificationSent = "If an account exists, a verification email has been sent."
	// MessageAlreadyVerified is returned when resending to a verified account.
	MessageAlreadyVerified = "Email is already verified."
)

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"min=2,max=100"`
	Password string `json:"password" validate:"strongpassword"`
}

// ResetInput carries a password reset submission.
type ResetInput struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"strongpassword"`
}

var lifecycleMessages = map[string]string{
	"email.required": "Email is required",
	"email.email":    "Invalid email address",
	"name.min":       "Name must be at least 2 characters",
	"name.max":       "Name must be at most 100 characters",
	"password":       "Password must be at least 8 characters and contain an uppercase letter and a number",
	"token.required": "Token is required",
}

// AccountConfig tunes the AccountService.
type AccountConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	ResendWindow    time.Duration
	// Dispatch runs email delivery. It defaults to a detached goroutine.
	Dispatch func(func())
}

// AccountService orchestrates registration, email verification, password reset and
// password login.
type AccountService struct {
	db       *gorm.DB
	local    *providers.LocalProvider
	tokens   *TokenService
	sessions *auth.SessionService
	mailer   mail.Mailer
	links    *LinkBuilder
	cfg      AccountConfig
	log      *zap.Logger
}

// NewAccountService wires the lifecycle orchestrator.
func NewAccountService(db *gorm.DB, tokens *TokenService, sessions *auth.SessionService, mailer mail.Mailer, links *LinkBuilder, cfg AccountConfig) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: token service is required")
	}
	if sessions == nil {
		return nil, errors.New("account service: session service is required")
	}
	if links == nil {
		return nil, errors.New("account service: link builder is required")
	}

	local, err := providers.NewLocalProvider(db)
	if err != nil {
		return nil, err
	}

	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = DefaultVerificationTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = DefaultResetTTL
	}
	if cfg.ResendWindow <= 0 {
		cfg.ResendWindow = DefaultResendWindow
	}
	if cfg.Dispatch == nil {
		cfg.Dispatch = func(fn func()) { go fn() }
	}
	if mailer == nil {
		mailer = mail.NewLogMailer()
	}

	return &AccountService{
		db:       db,
		local:    local,
		tokens:   tokens,
		sessions: sessions,
		mailer:   mailer,
		links:    links,
		cfg:      cfg,
		log:      logger.WithModule("account"),
	}, nil
}

// Register creates an unverified password account and emails a verification link.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.Account, error) {
	input.Email = normaliseEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := validationFromStruct(validator.ValidateStruct(input), lifecycleMessages); err != nil {
		return nil, err
	}

	exists, err := s.emailTaken(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account service: hash password: %w", err)
	}

	account := &models.Account{
		Email:         input.Email,
		Name:          input.Name,
		PasswordHash:  &hashed,
		Provider:      models.ProviderEmail,
		EmailVerified: false,
	}
	var raw string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrConflict
			}
			return database.Unavailable("create account", err)
		}
		token, err := s.tokens.Issue(ctx, tx, account.ID, models.TokenKindEmailVerification, s.cfg.VerificationTTL)
		raw = token
		return err
	})
	if err != nil {
		return nil, err
	}

	s.mailVerification(account, raw)

	s.log.Info("account registered", zap.String("account_id", account.ID))
	return account, nil
}

// VerifyEmail consumes a verification token and marks the account verified. Verifying
// an already verified account succeeds without touching tokens.
func (s *AccountService) VerifyEmail(ctx context.Context, email, rawToken string) error {
	email = normaliseEmail(email)
	if email == "" || strings.TrimSpace(rawToken) == "" {
		return ErrInvalidToken
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrInvalidToken
	}
	if account.EmailVerified {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.tokens.Consume(ctx, tx, account.ID, models.TokenKindEmailVerification, rawToken); err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).
			Where("id = ?", account.ID).
			Update("email_verified", true).Error; err != nil {
			return database.Unavailable("mark email verified", err)
		}
		return nil
	})
}

// ResendVerification mints a fresh verification token unless one was sent within the
// resend window. Unknown emails get the same answer as known ones.
func (s *AccountService) ResendVerification(ctx context.Context, email string) (string, error) {
	email = normaliseEmail(email)
	if email == "" {
		return "", invalid("email", "Email is required")
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if account == nil {
		return MessageVerificationSent, nil
	}
	if account.EmailVerified {
		return MessageAlreadyVerified, nil
	}

	recent, err := s.tokens.RecentlyIssued(ctx, account.ID, models.TokenKindEmailVerification, s.cfg.ResendWindow)
	if err != nil {
		return "", err
	}
	if recent {
		return "", ErrRateLimited
	}

	raw, err := s.tokens.Issue(ctx, nil, account.ID, models.TokenKindEmailVerification, s.cfg.VerificationTTL)
	if err != nil {
		return "", err
	}
	s.mailVerification(account, raw)
	return MessageVerificationSent, nil
}

// RequestPasswordReset emails a reset link to password accounts. The answer never
// reveals whether the account exists.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = normaliseEmail(email)
	if err := validator.ValidateStruct(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); err != nil {
		return "", validationFromStruct(err, lifecycleMessages)
	}

	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if account == nil || !account.HasPassword() {
		return MessageResetRequested, nil
	}

	raw, err := s.tokens.Issue(ctx, nil, account.ID, models.TokenKindPasswordReset, s.cfg.ResetTTL)
	if err != nil {
		return "", err
	}

	s.dispatch(account, templatePasswordReset, "Reset your password", emailContent{
		Name:      account.Name,
		Link:      s.links.ResetLink(raw, account.Email),
		ExpiresIn: humanDuration(s.cfg.ResetTTL),
	})
	return MessageResetRequested, nil
}

// ResetPassword consumes a reset token, replaces the password hash and signs the
// account out everywhere.
func (s *AccountService) ResetPassword(ctx context.Context, input ResetInput) error {
	input.Email = normaliseEmail(input.Email)
	input.Token = strings.TrimSpace(input.Token)
	if err := validationFromStruct(validator.ValidateStruct(input), lifecycleMessages); err != nil {
		return err
	}

	account, err := s.findByEmail(ctx, input.Email)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrInvalidToken
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("account service: hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.tokens.Consume(ctx, tx, account.ID, models.TokenKindPasswordReset, input.Token); err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).
			Where("id = ?", account.ID).
			Update("password_hash", hashed).Error; err != nil {
			return database.Unavailable("update password", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.sessions.InvalidateAll(ctx, account.ID); err != nil {
		return err
	}

	s.log.Info("password reset", zap.String("account_id", account.ID))
	return nil
}

// Login checks the password credential and opens a session.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, *auth.Session, error) {
	account, err := s.local.Authenticate(ctx, normaliseEmail(email), password)
	if err != nil {
		if errors.Is(err, providers.ErrInvalidCredentials) {
			metrics.AuthAttempts.WithLabelValues("password", "invalid_credentials").Inc()
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, database.Unavailable("authenticate", err)
	}

	if !account.EmailVerified {
		metrics.AuthAttempts.WithLabelValues("password", "unverified").Inc()
		return nil, nil, ErrEmailUnverified
	}

	session, err := s.sessions.Create(ctx, account.ID)
	if err != nil {
		return nil, nil, err
	}

	metrics.AuthAttempts.WithLabelValues("password", "success").Inc()
	return account, session, nil
}

func (s *AccountService) mailVerification(account *models.Account, raw string) {
	s.dispatch(account, templateVerification, "Verify your email address", emailContent{
		Name:      account.Name,
		Link:      s.links.VerificationLink(raw, account.Email),
		ExpiresIn: humanDuration(s.cfg.VerificationTTL),
	})
}

// dispatch renders and sends an email without blocking the caller. Delivery failures
// are logged and counted only.
func (s *AccountService) dispatch(account *models.Account, template, subject string, content emailContent) {
	body, err := renderEmail(template, content)
	if err != nil {
		s.log.Error("email render failed", zap.String("template", template), zap.Error(err))
		metrics.EmailDispatch.WithLabelValues(template, "error").Inc()
		return
	}

	message := mail.Message{
		To:      account.Email,
		Subject: subject,
		Body:    body,
		HTML:    true,
	}
	accountID := account.ID

	s.cfg.Dispatch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mailer.Send(ctx, message); err != nil {
			result := "error"
			if errors.Is(err, mail.ErrSMTPDisabled) {
				result = "disabled"
			}
			s.log.Warn("email dispatch failed",
				zap.String("template", template),
				zap.String("account_id", accountID),
				zap.Error(err),
			)
			metrics.EmailDispatch.WithLabelValues(template, result).Inc()
			return
		}
		metrics.EmailDispatch.WithLabelValues(template, "sent").Inc()
	})
}

func (s *AccountService) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("LOWER(email) = ?", email).
		Count(&count).Error; err != nil {
		return false, database.Unavailable("check email", err)
	}
	return count > 0, nil
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("LOWER(email) = ?", email).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Unavailable("find account", err)
	}
	return &account, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
