package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/database/testutil"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/crypto"
	"github.com/charlesng35/authcore/pkg/mail"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time {
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type accountFixture struct {
	db       *gorm.DB
	clock    *testClock
	mailer   *recordingMailer
	tokens   *TokenService
	sessions *auth.SessionService
	accounts *AccountService
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := &testClock{current: time.Now().UTC().Truncate(time.Second)}
	mailer := &recordingMailer{}

	tokens, err := NewTokenService(db, WithTokenClock(clock.Now))
	require.NoError(t, err)

	sessions, err := auth.NewSessionService(db, auth.SessionConfig{Clock: clock.Now})
	require.NoError(t, err)

	accounts, err := NewAccountService(db, tokens, sessions, mailer, NewLinkBuilder("https://app.example.com"), AccountConfig{
		Dispatch: func(fn func()) { fn() },
	})
	require.NoError(t, err)

	return &accountFixture{
		db:       db,
		clock:    clock,
		mailer:   mailer,
		tokens:   tokens,
		sessions: sessions,
		accounts: accounts,
	}
}

func (f *accountFixture) createAccount(t *testing.T, email, password string, verified bool) *models.Account {
	t.Helper()

	account := &models.Account{
		Email:         email,
		Name:          "Fixture Account",
		Provider:      models.ProviderEmail,
		EmailVerified: verified,
	}
	if password != "" {
		hashed, err := crypto.HashPassword(password)
		require.NoError(t, err)
		account.PasswordHash = &hashed
	}
	require.NoError(t, f.db.Create(account).Error)
	return account
}

func (f *accountFixture) reload(t *testing.T, id string) models.Account {
	t.Helper()

	var account models.Account
	require.NoError(t, f.db.Take(&account, "id = ?", id).Error)
	return account
}
