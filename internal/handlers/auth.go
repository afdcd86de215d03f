package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/middleware"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/internal/services"
	"github.com/charlesng35/authcore/pkg/logger"
	"github.com/charlesng35/authcore/pkg/response"
)

const (
	loginVerifiedPath     = "/login?verified=1"
	loginInvalidTokenPath = "/login?error=invalid_token"
)

// AuthHandler serves the password account lifecycle: sign-up, sign-in, verification
// and password reset.
type AuthHandler struct {
	accounts *services.AccountService
	sessions *iauth.SessionService
	cookies  *iauth.CookieFactory
	log      *zap.Logger
}

func NewAuthHandler(accounts *services.AccountService, sessions *iauth.SessionService, cookies *iauth.CookieFactory) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		cookies:  cookies,
		log:      logger.WithModule("auth-handler"),
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type accountSummary struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	EmailVerified bool   `json:"email_verified"`
	IsAdmin       bool   `json:"is_admin"`
}

func summarize(account *models.Account) accountSummary {
	return accountSummary{
		ID:            account.ID,
		Email:         account.Email,
		Name:          account.Name,
		Provider:      account.Provider,
		EmailVerified: account.EmailVerified,
		IsAdmin:       account.IsAdmin,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accounts.Register(requestContext(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Registration successful! Please check your email to verify your account.",
		"user":    summarize(account),
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	account, session, err := h.accounts.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetSessionCookie(c, h.cookies, session.Token)
	response.Success(c, http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    summarize(account),
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie(iauth.SessionCookieName)
	if err != nil || strings.TrimSpace(token) == "" {
		response.Message(c, http.StatusOK, "Already logged out")
		return
	}

	h.sessions.Invalidate(requestContext(c), token)
	middleware.ClearSessionCookie(c, h.cookies)
	response.Message(c, http.StatusOK, "Logged out successfully")
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	reqCtx := middleware.CurrentRequest(c)
	response.Success(c, http.StatusOK, gin.H{
		"user":               summarize(reqCtx.Account),
		"session_expires_at": reqCtx.Session.ExpiresAt,
	})
}

// GET /auth/verify-email?token=..&email=..
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	err := h.accounts.VerifyEmail(requestContext(c), c.Query("email"), c.Query("token"))
	if err != nil {
		if !errors.Is(err, services.ErrInvalidToken) {
			h.log.Error("email verification failed", zap.Error(err))
		}
		c.Redirect(http.StatusFound, loginInvalidTokenPath)
		return
	}
	c.Redirect(http.StatusFound, loginVerifiedPath)
}

// POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.accounts.ResendVerification(requestContext(c), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Message(c, http.StatusOK, message)
}

// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.accounts.RequestPasswordReset(requestContext(c), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Message(c, http.StatusOK, message)
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.ResetPassword(requestContext(c), req); err != nil {
		respondError(c, err)
		return
	}

	if _, err := c.Cookie(iauth.SessionCookieName); err == nil {
		middleware.ClearSessionCookie(c, h.cookies)
	}
	response.Message(c, http.StatusOK, "Password reset successfully. Please log in with your new password.")
}

