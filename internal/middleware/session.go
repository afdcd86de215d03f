package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/authcore/internal/auth"
	"github.com/charlesng35/authcore/internal/models"
	"github.com/charlesng35/authcore/pkg/errors"
	"github.com/charlesng35/authcore/pkg/response"
)

// CtxRequestKey stores the *RequestContext of the current request.
const CtxRequestKey = "authRequest"

// RequestContext carries the resolved identity of a request. Both fields are nil for
// anonymous requests.
type RequestContext struct {
	Account *models.Account
	Session *iauth.Session
}

// Authenticated reports whether the request carries a valid session.
func (r *RequestContext) Authenticated() bool {
	return r != nil && r.Account != nil && r.Session != nil
}

// Session resolves the session cookie on every request. A renewed session has its
// cookie rewritten and a cookie that no longer maps to a session is cleared.
func Session(sessions *iauth.SessionService, cookies *iauth.CookieFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqCtx := &RequestContext{}
		c.Set(CtxRequestKey, reqCtx)

		token, err := c.Cookie(iauth.SessionCookieName)
		token = strings.TrimSpace(token)
		if err != nil || token == "" {
			c.Next()
			return
		}

		account, session := sessions.Validate(c.Request.Context(), token)
		if account == nil || session == nil {
			ClearSessionCookie(c, cookies)
			c.Next()
			return
		}

		if session.Fresh {
			SetSessionCookie(c, cookies, session.Token)
		}
		reqCtx.Account = account
		reqCtx.Session = session

		c.Next()
	}
}

// CurrentRequest returns the RequestContext stored by Session. It never returns nil.
func CurrentRequest(c *gin.Context) *RequestContext {
	if v, ok := c.Get(CtxRequestKey); ok {
		if reqCtx, ok := v.(*RequestContext); ok && reqCtx != nil {
			return reqCtx
		}
	}
	return &RequestContext{}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentRequest(c).Authenticated() {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests whose account is not an administrator.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqCtx := CurrentRequest(c)
		if !reqCtx.Authenticated() {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !reqCtx.Account.IsAdmin {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetSessionCookie writes the session cookie for token.
func SetSessionCookie(c *gin.Context, cookies *iauth.CookieFactory, token string) {
	WriteCookie(c, cookies.CreateSessionCookie(token))
}

// ClearSessionCookie writes a blank session cookie.
func ClearSessionCookie(c *gin.Context, cookies *iauth.CookieFactory) {
	WriteCookie(c, cookies.CreateBlankSessionCookie())
}

// WriteCookie appends a Set-Cookie header, replacing any cookie of the same name set
// earlier in the request.
func WriteCookie(c *gin.Context, cookie iauth.Cookie) {
	header := c.Writer.Header()
	prefix := cookie.Name + "="
	existing := header.Values("Set-Cookie")
	kept := existing[:0:0]
	for _, value := range existing {
		if !strings.HasPrefix(value, prefix) {
			kept = append(kept, value)
		}
	}
	header.Del("Set-Cookie")
	for _, value := range kept {
		header.Add("Set-Cookie", value)
	}
	header.Add("Set-Cookie", iauth.SerializeCookie(cookie))
}
