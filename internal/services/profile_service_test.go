package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/authcore/internal/models"
)

func ptr(value string) *string {
	return &value
}

func TestProfileGet(t *testing.T) {
	f := newAccountFixture(t)
	account := f.createAccount(t, "profile@example.com", "Password1", true)

	svc, err := NewProfileService(f.db)
	require.NoError(t, err)

	loaded, err := svc.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, "profile@example.com", loaded.Email)

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestProfileUpdate(t *testing.T) {
	f := newAccountFixture(t)
	account := f.createAccount(t, "update@example.com", "Password1", true)
	require.NoError(t, f.db.Model(account).Update("location", "Paris").Error)

	svc, err := NewProfileService(f.db)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), account.ID, ProfileUpdate{
		Name:    ptr("  Updated Name "),
		Bio:     ptr("Writes Go."),
		Website: ptr("https://example.com"),
	})
	require.NoError(t, err)
	require.Equal(t, "Updated Name", updated.Name)
	require.Equal(t, "Writes Go.", updated.Bio)
	require.Equal(t, "https://example.com", updated.Website)
	require.Equal(t, "Paris", updated.Location)

	cleared, err := svc.Update(context.Background(), account.ID, ProfileUpdate{Website: ptr("")})
	require.NoError(t, err)
	require.Empty(t, cleared.Website)
	require.Equal(t, "Updated Name", cleared.Name)
}

func TestProfileUpdateValidation(t *testing.T) {
	f := newAccountFixture(t)
	account := f.createAccount(t, "invalid@example.com", "Password1", true)

	svc, err := NewProfileService(f.db)
	require.NoError(t, err)

	cases := []struct {
		name  string
		input ProfileUpdate
		field string
	}{
		{"empty name", ProfileUpdate{Name: ptr(" ")}, "name"},
		{"short name", ProfileUpdate{Name: ptr("A")}, "name"},
		{"long bio", ProfileUpdate{Bio: ptr(string(make([]byte, 501)))}, "bio"},
		{"bad website", ProfileUpdate{Website: ptr("not a url")}, "website"},
		{"bad avatar", ProfileUpdate{Avatar: ptr("avatar.png")}, "avatar"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), account.ID, tc.input)
			var validation *ValidationError
			require.True(t, errors.As(err, &validation), "expected validation error, got %v", err)
			require.Equal(t, tc.field, validation.Field)
		})
	}
}

func TestListAccountsNewestFirst(t *testing.T) {
	f := newAccountFixture(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, email := range []string{"first@example.com", "second@example.com", "third@example.com"} {
		account := &models.Account{Email: email, Name: "Account", Provider: models.ProviderEmail}
		account.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, f.db.Create(account).Error)
	}

	svc, err := NewProfileService(f.db)
	require.NoError(t, err)

	accounts, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	require.Equal(t, "third@example.com", accounts[0].Email)
	require.Equal(t, "first@example.com", accounts[2].Email)
}
