package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSerializeSessionCookie(t *testing.T) {
	header := SerializeCookie(Cookie{
		Name:  "auth_session",
		Value: "abc",
		Attributes: CookieAttributes{
			HTTPOnly: true,
			Secure:   true,
			SameSite: "lax",
			Path:     "/",
			MaxAge:   2592000,
		},
	})

	require.Equal(t, "auth_session=abc; Path=/; HttpOnly; Secure; SameSite=lax; Max-Age=2592000", header)
}

func TestCookieFactorySessionCookie(t *testing.T) {
	factory := NewCookieFactory(true, DefaultSessionTTL)

	cookie := factory.CreateSessionCookie("token")
	require.Equal(t, SessionCookieName, cookie.Name)
	require.Equal(t, 2592000, cookie.Attributes.MaxAge)

	header := SerializeCookie(cookie)
	for _, part := range []string{"auth_session=token", "Path=/", "HttpOnly", "Secure", "SameSite=lax", "Max-Age=2592000"} {
		require.Contains(t, header, part)
	}
}

func TestCookieFactoryOmitsSecureInDevelopment(t *testing.T) {
	header := SerializeCookie(NewCookieFactory(false, 0).CreateSessionCookie("token"))
	require.NotContains(t, header, "Secure")
	require.Contains(t, header, "Max-Age=2592000")
}

func TestBlankSessionCookieExpiresImmediately(t *testing.T) {
	header := SerializeCookie(NewCookieFactory(true, DefaultSessionTTL).CreateBlankSessionCookie())

	require.True(t, strings.HasPrefix(header, "auth_session=;"))
	require.Contains(t, header, "Max-Age=0")
	require.Contains(t, header, "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
}

func TestCreateCookieUsesCustomLifetime(t *testing.T) {
	cookie := NewCookieFactory(false, DefaultSessionTTL).CreateCookie("oauth_flow", "v", 10*time.Minute)
	require.Equal(t, 600, cookie.Attributes.MaxAge)
	require.Equal(t, "oauth_flow=v; Path=/; HttpOnly; SameSite=lax; Max-Age=600", SerializeCookie(cookie))
}
