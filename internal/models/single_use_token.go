package models

import "time"

// TokenKind distinguishes the lifecycle action a single-use token authorises.
type TokenKind string

const (
	TokenKindEmailVerification TokenKind = "email_verification"
	TokenKindPasswordReset     TokenKind = "password_reset"
)

// SingleUseToken stores the hash of an emailed token. Consumed tokens are flagged as
// used and kept so the same raw token cannot be replayed inside its expiry window.
type SingleUseToken struct {
	BaseModel

	AccountID string    `gorm:"type:uuid;not null;index:idx_single_use_tokens_account_kind" json:"account_id"`
	Kind      TokenKind `gorm:"size:32;not null;index:idx_single_use_tokens_account_kind" json:"kind"`
	TokenHash string    `gorm:"size:64;not null;index" json:"-"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	Used      bool      `gorm:"not null;default:false" json:"used"`
}
