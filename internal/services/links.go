package services

import (
	"net/url"
	"strings"
)

// LinkBuilder renders the absolute links embedded in lifecycle emails.
type LinkBuilder struct {
	origin string
}

// NewLinkBuilder returns a builder rooted at origin, e.g. https://app.example.com.
func NewLinkBuilder(origin string) *LinkBuilder {
	return &LinkBuilder{origin: strings.TrimRight(strings.TrimSpace(origin), "/")}
}

// VerificationLink points at the email verification endpoint.
func (b *LinkBuilder) VerificationLink(token, email string) string {
	return b.build("/auth/verify-email", token, email)
}

// ResetLink points at the password reset page.
func (b *LinkBuilder) ResetLink(token, email string) string {
	return b.build("/reset-password", token, email)
}

func (b *LinkBuilder) build(path, token, email string) string {
	return b.origin + path + "?token=" + url.QueryEscape(token) + "&email=" + url.QueryEscape(email)
}
