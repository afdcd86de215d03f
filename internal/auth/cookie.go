package auth

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the raw session token.
const SessionCookieName = "auth_session"

// SameSite values emitted by SerializeCookie.
const (
	SameSiteLax    = "lax"
	SameSiteStrict = "strict"
	SameSiteNone   = "none"
)

// CookieAttributes mirrors the Set-Cookie attributes used by the session layer.
type CookieAttributes struct {
	Path     string
	HTTPOnly bool
	Secure   bool
	SameSite string
	MaxAge   int
	// Expires is only emitted when non-zero.
	Expires time.Time
}

// Cookie is a name/value pair with its attributes.
type Cookie struct {
	Name       string
	Value      string
	Attributes CookieAttributes
}

// CookieFactory builds session cookies. Secure is disabled in development so the
// cookie survives plain http on localhost.
type CookieFactory struct {
	secure bool
	maxAge int
}

// NewCookieFactory returns a factory whose cookies live as long as sessions do.
func NewCookieFactory(secure bool, ttl time.Duration) *CookieFactory {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &CookieFactory{secure: secure, maxAge: int(ttl / time.Second)}
}

// CreateSessionCookie returns the cookie carrying token.
func (f *CookieFactory) CreateSessionCookie(token string) Cookie {
	return Cookie{
		Name:  SessionCookieName,
		Value: token,
		Attributes: CookieAttributes{
			Path:     "/",
			HTTPOnly: true,
			Secure:   f.secure,
			SameSite: SameSiteLax,
			MaxAge:   f.maxAge,
		},
	}
}

// CreateBlankSessionCookie returns a cookie that makes the browser drop the session.
func (f *CookieFactory) CreateBlankSessionCookie() Cookie {
	return Cookie{
		Name:  SessionCookieName,
		Value: "",
		Attributes: CookieAttributes{
			Path:     "/",
			HTTPOnly: true,
			Secure:   f.secure,
			SameSite: SameSiteLax,
			MaxAge:   0,
			Expires:  time.Unix(0, 0).UTC(),
		},
	}
}

// CreateCookie builds a cookie with the session attributes but a custom name and lifetime.
func (f *CookieFactory) CreateCookie(name, value string, maxAge time.Duration) Cookie {
	return Cookie{
		Name:  name,
		Value: value,
		Attributes: CookieAttributes{
			Path:     "/",
			HTTPOnly: true,
			Secure:   f.secure,
			SameSite: SameSiteLax,
			MaxAge:   int(maxAge / time.Second),
		},
	}
}

// SerializeCookie renders the cookie as a Set-Cookie header value.
func SerializeCookie(cookie Cookie) string {
	attrs := cookie.Attributes

	var b strings.Builder
	b.WriteString(cookie.Name)
	b.WriteByte('=')
	b.WriteString(cookie.Value)

	if attrs.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(attrs.Path)
	}
	if attrs.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if attrs.Secure {
		b.WriteString("; Secure")
	}
	if attrs.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(strings.ToLower(attrs.SameSite))
	}
	b.WriteString("; Max-Age=")
	b.WriteString(strconv.Itoa(attrs.MaxAge))
	if !attrs.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(attrs.Expires.UTC().Format(http.TimeFormat))
	}
	return b.String()
}
