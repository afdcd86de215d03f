package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/authcore/internal/api"
	"github.com/charlesng35/authcore/internal/app"
	iauth "github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/auth/providers"
	sharedtestutil "github.com/charlesng35/authcore/internal/database/testutil"
	"github.com/charlesng35/authcore/internal/middleware"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/internal/monitoring"
	"github.com/charlesng35/authcore/internal/monitoring/checks"
	"github.com/charlesng35/authcore/internal/services"
	"github.com/charlesng35/authcore/pkg/crypto"
	"github.com/charlesng35/authcore/pkg/mail"
	"github.com/charlesng35/authcore/pkg/response"
)

// BaseURL is the public origin configured for every test environment.
const BaseURL = "http://auth.test"

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

// Option customises a test environment.
type Option func(*envOptions)

type envOptions struct {
	google providers.IdentityProvider
	csrf   bool
	checks []monitoring.Check
}

// WithGoogle enables Google sign-in backed by the given provider.
func WithGoogle(provider providers.IdentityProvider) Option {
	return func(o *envOptions) { o.google = provider }
}

// WithCSRF turns on the double-submit CSRF middleware.
func WithCSRF() Option {
	return func(o *envOptions) { o.csrf = true }
}

// WithHealthCheck registers an additional health probe.
func WithHealthCheck(check monitoring.Check) Option {
	return func(o *envOptions) { o.checks = append(o.checks, check) }
}

// RecordingMailer captures outbound email in memory.
type RecordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *RecordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Sent returns a copy of every captured message.
func (m *RecordingMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
// It behaves like a browser: cookies set by responses are replayed on later requests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	Config   *app.Config
	Sessions *iauth.SessionService
	Mailer   *RecordingMailer

	cookies   map[string]*http.Cookie
	csrfToken string
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var o envOptions
	for _, opt := range opts {
		opt(&o)
	}

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{}
	cfg.Server.BaseURL = BaseURL
	cfg.Server.CSRF.Enabled = o.csrf
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	sessions, err := iauth.NewSessionService(db, cfg.Auth.SessionServiceConfig())
	require.NoError(t, err)
	cookies := iauth.NewCookieFactory(false, sessions.TTL())

	tokens, err := services.NewTokenService(db)
	require.NoError(t, err)

	mailer := &RecordingMailer{}
	accountCfg := cfg.Auth.AccountServiceConfig()
	accountCfg.Dispatch = func(fn func()) { fn() }
	accounts, err := services.NewAccountService(db, tokens, sessions, mailer, services.NewLinkBuilder(BaseURL), accountCfg)
	require.NoError(t, err)

	profiles, err := services.NewProfileService(db)
	require.NoError(t, err)

	deps := api.Dependencies{
		DB:       db,
		Config:   cfg,
		Sessions: sessions,
		Cookies:  cookies,
		Accounts: accounts,
		Profiles: profiles,
		Health:   monitoring.NewHealthManager(append([]monitoring.Check{checks.Database(db, time.Second)}, o.checks...)...),
	}

	if o.google != nil {
		cfg.Auth.Flow.Secret = "0123456789abcdef0123456789abcdef"
		flow, err := iauth.NewFlowTokenService(cfg.Auth.FlowServiceConfig())
		require.NoError(t, err)
		exchange, err := iauth.NewOAuthExchange(db, o.google, sessions)
		require.NoError(t, err)
		deps.OAuth = exchange
		deps.Flow = flow
	}

	router, err := api.NewRouter(deps)
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		Config:   cfg,
		Sessions: sessions,
		Mailer:   mailer,
		cookies:  make(map[string]*http.Cookie),
	}
}

// CreateAccount inserts an email account directly, bypassing the registration flow.
func (e *Env) CreateAccount(email, password string, verified, admin bool) *models.Account {
	e.T.Helper()

	account := &models.Account{
		Email:         email,
		Name:          "Test Account",
		Provider:      models.ProviderEmail,
		EmailVerified: verified,
		IsAdmin:       admin,
	}
	if password != "" {
		hashed, err := crypto.HashPassword(password)
		require.NoError(e.T, err)
		account.PasswordHash = &hashed
	}
	require.NoError(e.T, e.DB.Create(account).Error)
	return account
}

// AccountPayload captures the account summary returned from auth endpoints.
type AccountPayload struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	EmailVerified bool   `json:"email_verified"`
	IsAdmin       bool   `json:"is_admin"`
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	Message string         `json:"message"`
	User    AccountPayload `json:"user"`
}

// Login signs in with email and password; the session cookie is kept for later requests.
func (e *Env) Login(email, password string) LoginResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotNil(e.T, e.Cookie(iauth.SessionCookieName))
	return result
}

// LastMailToken extracts the raw token from the most recent email.
func (e *Env) LastMailToken() string {
	e.T.Helper()

	sent := e.Mailer.Sent()
	require.NotEmpty(e.T, sent)
	match := tokenPattern.FindStringSubmatch(sent[len(sent)-1].Body)
	require.Len(e.T, match, 2)
	return match[1]
}

// Cookie returns the stored cookie with the given name, or nil.
func (e *Env) Cookie(name string) *http.Cookie {
	return e.cookies[name]
}

// SetCookie stores a cookie to send with subsequent requests.
func (e *Env) SetCookie(cookie *http.Cookie) {
	e.cookies[cookie.Name] = cookie
}

// ClearCookies drops every stored cookie.
func (e *Env) ClearCookies() {
	e.cookies = make(map[string]*http.Cookie)
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding, stored
// cookies and the CSRF header automatically.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, false)
}

// RequestWithoutCSRF behaves like Request but never attaches the CSRF header.
func (e *Env) RequestWithoutCSRF(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.request(method, path, body, true)
}

func (e *Env) request(method, path string, body any, skipCSRF bool) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if e.Config.Server.CSRF.Enabled && !skipCSRF && requiresCSRFAttestation(method) {
		e.ensureCSRFToken()
		req.Header.Set(middleware.CSRFHeaderName, e.csrfToken)
	}
	for _, cookie := range e.cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	e.capture(w.Result())
	return w
}

func (e *Env) ensureCSRFToken() {
	if e.csrfToken != "" && e.cookies[middleware.CSRFCookieName] != nil {
		return
	}
	resp := e.request(http.MethodGet, "/health", nil, true)
	require.Equal(e.T, http.StatusOK, resp.Code, resp.Body.String())
}

func (e *Env) capture(resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	if token := resp.Header.Get(middleware.CSRFHeaderName); token != "" {
		e.csrfToken = token
	}
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(e.cookies, c.Name)
			continue
		}
		e.cookies[c.Name] = c
	}
}

func requiresCSRFAttestation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
