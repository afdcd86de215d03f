package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/middleware"
	"github.com/charlesng35/authcore/pkg/logger"
	"github.com/charlesng35/authcore/pkg/metrics"
)

const (
	googleSuccessPath = "/dashboard"
	googleFailurePath = "/login?error=google_auth_failed"
)

// GoogleHandler drives the Google sign-in redirect and callback. The state and PKCE
// verifier travel in a signed, short-lived flow cookie.
type GoogleHandler struct {
	exchange *iauth.OAuthExchange
	flow     *iauth.FlowTokenService
	cookies  *iauth.CookieFactory
	baseURL  string
	log      *zap.Logger
}

func NewGoogleHandler(exchange *iauth.OAuthExchange, flow *iauth.FlowTokenService, cookies *iauth.CookieFactory, baseURL string) *GoogleHandler {
	return &GoogleHandler{
		exchange: exchange,
		flow:     flow,
		cookies:  cookies,
		baseURL:  baseURL,
		log:      logger.WithModule("google-handler"),
	}
}

// GET /auth/google
func (h *GoogleHandler) Begin(c *gin.Context) {
	authz, err := h.exchange.Begin(requestContext(c), requestOrigin(c, h.baseURL))
	if err != nil {
		h.log.Warn("google sign-in unavailable", zap.Error(err))
		respondError(c, err)
		return
	}

	flowToken, err := h.flow.Issue(iauth.FlowState{State: authz.State, CodeVerifier: authz.CodeVerifier})
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.WriteCookie(c, h.cookies.CreateCookie(iauth.FlowCookieName, flowToken, h.flow.TTL()))
	c.Redirect(http.StatusFound, authz.AuthorizationURL)
}

// GET /auth/google/callback
func (h *GoogleHandler) Callback(c *gin.Context) {
	h.clearFlowCookie(c)

	code := strings.TrimSpace(c.Query("code"))
	state := strings.TrimSpace(c.Query("state"))
	if code == "" || state == "" {
		h.fail(c, "missing code or state", nil)
		return
	}

	flowToken, err := c.Cookie(iauth.FlowCookieName)
	if err != nil || flowToken == "" {
		h.fail(c, "missing flow cookie", err)
		return
	}
	flow, err := h.flow.Parse(flowToken)
	if err != nil {
		h.fail(c, "invalid flow cookie", err)
		return
	}
	if subtle.ConstantTimeCompare([]byte(flow.State), []byte(state)) != 1 {
		h.fail(c, "state mismatch", nil)
		return
	}

	_, session, err := h.exchange.Login(requestContext(c), code, flow.CodeVerifier, requestOrigin(c, h.baseURL))
	if err != nil {
		h.fail(c, "google login failed", err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("google", "success").Inc()
	middleware.SetSessionCookie(c, h.cookies, session.Token)
	c.Redirect(http.StatusFound, googleSuccessPath)
}

func (h *GoogleHandler) fail(c *gin.Context, reason string, err error) {
	metrics.AuthAttempts.WithLabelValues("google", "failure").Inc()
	h.log.Info("google callback rejected", zap.String("reason", reason), zap.Error(err))
	c.Redirect(http.StatusFound, googleFailurePath)
}

func (h *GoogleHandler) clearFlowCookie(c *gin.Context) {
	cookie := h.cookies.CreateCookie(iauth.FlowCookieName, "", 0)
	cookie.Attributes.Expires = time.Unix(0, 0).UTC()
	middleware.WriteCookie(c, cookie)
}
