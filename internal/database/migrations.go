package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/models"
)

// SeedOptions controls start-up data adjustments.
type SeedOptions struct {
	// AdminEmails lists accounts that are granted the admin flag when present.
	AdminEmails []string
}

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.Session{},
		&models.SingleUseToken{},
		&models.CacheEntry{},
	)
}

// SeedData promotes configured administrator accounts. Accounts that do not exist yet
// are skipped and picked up on a later start.
func SeedData(db *gorm.DB, opts SeedOptions) error {
	emails := make([]string, 0, len(opts.AdminEmails))
	for _, email := range opts.AdminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			emails = append(emails, email)
		}
	}
	if len(emails) == 0 {
		return nil
	}

	return db.Model(&models.Account{}).
		Where("LOWER(email) IN ?", emails).
		Update("is_admin", true).Error
}
