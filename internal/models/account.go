package models

// Account providers.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// Account is a local identity. It can sign in with a password, with a linked Google
// identity, or both.
type Account struct {
	BaseModel

	Email string `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Name  string `gorm:"not null;size:100" json:"name"`

	Bio      string `gorm:"size:500" json:"bio"`
	Location string `gorm:"size:100" json:"location"`
	Website  string `gorm:"size:255" json:"website"`
	Avatar   string `gorm:"size:512" json:"avatar"`

	PasswordHash *string `json:"-"`
	Provider     string  `gorm:"not null;size:32;default:email" json:"provider"`
	GoogleID     *string `gorm:"uniqueIndex;size:255" json:"-"`

	EmailVerified bool `gorm:"not null;default:false" json:"email_verified"`
	IsAdmin       bool `gorm:"not null;default:false" json:"is_admin"`

	Sessions []Session        `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
	Tokens   []SingleUseToken `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasPassword reports whether the account carries a local password credential.
func (a *Account) HasPassword() bool {
	return a != nil && a.PasswordHash != nil && *a.PasswordHash != ""
}
