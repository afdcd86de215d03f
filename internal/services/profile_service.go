package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/validator"
)

// ProfileUpdate enumerates mutable profile attributes. Nil fields are left unchanged;
// an empty string clears the field.
type ProfileUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	Location *string `json:"location" validate:"omitempty,max=100"`
	Website  *string `json:"website" validate:"omitempty,url"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
}

var profileMessages = map[string]string{
	"name.min":     "Name must be at least 2 characters",
	"name.max":     "Name must be at most 100 characters",
	"bio.max":      "Bio must be at most 500 characters",
	"location.max": "Location must be at most 100 characters",
	"website.url":  "Website must be a valid URL",
	"avatar.url":   "Avatar must be a valid URL",
}

// ProfileService exposes account profile reads and updates.
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{db: db}, nil
}

// Get loads an account by id.
func (s *ProfileService) Get(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "id = ?", strings.TrimSpace(accountID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, database.Unavailable("load profile", err)
	}
	return &account, nil
}

// Update applies the non-nil fields of input and returns the refreshed account.
func (s *ProfileService) Update(ctx context.Context, accountID string, input ProfileUpdate) (*models.Account, error) {
	trim(input.Name)
	trim(input.Bio)
	trim(input.Location)
	trim(input.Website)
	trim(input.Avatar)

	if input.Name != nil && *input.Name == "" {
		return nil, invalid("name", profileMessages["name.min"])
	}
	if err := validationFromStruct(validator.ValidateStruct(input), profileMessages); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	if input.Website != nil {
		updates["website"] = *input.Website
	}
	if input.Avatar != nil {
		updates["avatar"] = *input.Avatar
	}

	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return account, nil
	}

	if err := s.db.WithContext(ctx).Model(account).Updates(updates).Error; err != nil {
		return nil, database.Unavailable("update profile", err)
	}
	return s.Get(ctx, account.ID)
}

// ListAccounts returns every account, newest first.
func (s *ProfileService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, database.Unavailable("list accounts", err)
	}
	return accounts, nil
}

func trim(value *string) {
	if value != nil {
		*value = strings.TrimSpace(*value)
	}
}
