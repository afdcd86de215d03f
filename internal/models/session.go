package models

import "time"

// Session binds a hashed session token to an account. The raw token only ever lives
// in the client's cookie.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64" json:"-"`
	AccountID string    `gorm:"type:uuid;not null;index" json:"account_id"`
	Account   *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the session has passed its expiry at the given instant.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
