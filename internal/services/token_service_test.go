package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/crypto"
)

func TestTokenIssueReplacesPreviousToken(t *testing.T) {
	f := newAccountFixture(t)
	account := f.createAccount(t, "tokens@example.com", "Password1", false)

	first, err := f.tokens.Issue(context.Background(), nil, account.ID, models.TokenKindPasswordReset, time.Hour)
	require.NoError(t, err)
	require.Len(t, first, 64)

	second, err := f.tokens.Issue(context.Background(), nil, account.ID, models.TokenKindPasswordReset, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	verification, err := f.tokens.Issue(context.Background(), nil, account.ID, models.TokenKindEmailVerification, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, verification)

	var rows []models.SingleUseToken
	require.NoError(t, f.db.Where("account_id = ?", account.ID).Order("kind").Find(&rows).Error)
	require.Len(t, rows, 2)
	require.Equal(t, models.TokenKindEmailVerification, rows[0].Kind)
	require.Equal(t, models.TokenKindPasswordReset, rows[1].Kind)
	require.Equal(t, crypto.HashToken(second), rows[1].TokenHash)
}

func TestTokenConsumeIsSingleUse(t *testing.T) {
	f := newAccountFixture(t)
	account := f.createAccount(t, "consume@example.com", "Password1", false)

	raw, err := f.tokens.Issue(context.Background(), nil, account.ID, models.TokenKindPasswordReset, time.Hour)
	require.NoError(t, err)

	require.ErrorIs(t, f.tokens.Consume(context.Background(), nil, account.ID, models.TokenKindEmailVerification, raw), ErrInvalidToken)
	require.NoError(t, f.tokens.Consume(context.Background(), nil, account.ID, models.TokenKindPasswordReset, raw))
	require.ErrorIs(t, f.tokens.Consume(context.Background(), nil, account.ID, models.TokenKindPasswordReset, raw), ErrInvalidToken)
}

func TestTokenConsumeRejectsExpired(t *testing.T) {
	f := newAccountFixture(t)
	account := f.createAccount(t, "expiry@example.com", "Password1", false)

	raw, err := f.tokens.Issue(context.Background(), nil, account.ID, models.TokenKindPasswordReset, time.Hour)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	require.ErrorIs(t, f.tokens.Consume(context.Background(), nil, account.ID, models.TokenKindPasswordReset, raw), ErrInvalidToken)
}

func TestTokenRecentlyIssued(t *testing.T) {
	f := newAccountFixture(t)
	account := f.createAccount(t, "recent@example.com", "Password1", false)

	recent, err := f.tokens.RecentlyIssued(context.Background(), account.ID, models.TokenKindEmailVerification, time.Minute)
	require.NoError(t, err)
	require.False(t, recent)

	_, err = f.tokens.Issue(context.Background(), nil, account.ID, models.TokenKindEmailVerification, time.Hour)
	require.NoError(t, err)

	recent, err = f.tokens.RecentlyIssued(context.Background(), account.ID, models.TokenKindEmailVerification, time.Minute)
	require.NoError(t, err)
	require.True(t, recent)

	f.clock.Advance(2 * time.Minute)
	recent, err = f.tokens.RecentlyIssued(context.Background(), account.ID, models.TokenKindEmailVerification, time.Minute)
	require.NoError(t, err)
	require.False(t, recent)
}

func TestTokenPurgeExpired(t *testing.T) {
	f := newAccountFixture(t)
	alice := f.createAccount(t, "alice@example.com", "Password1", false)
	bob := f.createAccount(t, "bob@example.com", "Password1", false)

	_, err := f.tokens.Issue(context.Background(), nil, alice.ID, models.TokenKindEmailVerification, time.Minute)
	require.NoError(t, err)
	_, err = f.tokens.Issue(context.Background(), nil, bob.ID, models.TokenKindEmailVerification, time.Hour)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)

	removed, err := f.tokens.PurgeExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var remaining []models.SingleUseToken
	require.NoError(t, f.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, bob.ID, remaining[0].AccountID)
}

func TestNewTokenServiceRequiresDB(t *testing.T) {
	_, err := NewTokenService(nil)
	require.Error(t, err)
}
