package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/database/testutil"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/crypto"
)

func TestAuthenticateSuccess(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db)
	account := seedAccount(t, db, "alice@example.com", "Password1")

	result, err := provider.Authenticate(context.Background(), "Alice@Example.com", "Password1")
	require.NoError(t, err)
	require.Equal(t, account.ID, result.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db)
	seedAccount(t, db, "bob@example.com", "Password1")

	_, err := provider.Authenticate(context.Background(), "bob@example.com", "Password2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db)

	_, err := provider.Authenticate(context.Background(), "ghost@example.com", "Password1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateAccountWithoutPassword(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db)

	googleID := "google-sub"
	account := models.Account{
		Email:         "carol@example.com",
		Name:          "Carol",
		Provider:      models.ProviderGoogle,
		GoogleID:      &googleID,
		EmailVerified: true,
	}
	require.NoError(t, db.Create(&account).Error)

	_, err := provider.Authenticate(context.Background(), "carol@example.com", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateEmptyInput(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	provider := newLocalProvider(t, db)

	_, err := provider.Authenticate(context.Background(), "  ", "Password1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = provider.Authenticate(context.Background(), "alice@example.com", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewLocalProviderRequiresDB(t *testing.T) {
	_, err := NewLocalProvider(nil)
	require.Error(t, err)
}

func newLocalProvider(t *testing.T, db *gorm.DB) *LocalProvider {
	t.Helper()

	provider, err := NewLocalProvider(db)
	require.NoError(t, err)
	return provider
}

func seedAccount(t *testing.T, db *gorm.DB, email, password string) *models.Account {
	t.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(t, err)

	account := &models.Account{
		Email:         email,
		Name:          "Test Account",
		PasswordHash:  &hashed,
		Provider:      models.ProviderEmail,
		EmailVerified: true,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}
