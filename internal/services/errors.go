package services

import (
	"errors"
	"strings"

	"github.com/charlesng35/authcore/internal/auth/providers"
	"github.com/charlesng35/authcore/internal/database"
	"github.com/charlesng35/authcore/pkg/validator"
)

var (
	// ErrConflict is returned when an account already exists for the email.
	ErrConflict = errors.New("account: email already registered")
	// ErrInvalidCredentials wraps the provider error so callers need not import it.
	ErrInvalidCredentials = providers.ErrInvalidCredentials
	// ErrInvalidToken covers unknown, expired and already used single-use tokens.
	ErrInvalidToken = errors.New("account: invalid or expired token")
	// ErrEmailUnverified is returned when a password login targets an unverified account.
	ErrEmailUnverified = errors.New("account: email not verified")
	// ErrRateLimited is returned when a verification email was sent too recently.
	ErrRateLimited = errors.New("account: too many requests")
	// ErrAccountNotFound is returned when an account id does not resolve.
	ErrAccountNotFound = errors.New("account: not found")
)

// ValidationError reports an input rule violation for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// validationFromStruct converts validator failures into the first ValidationError,
// using messages keyed by field.
func validationFromStruct(err error, messages map[string]string) error {
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return invalid("", err.Error())
	}
	first := failures[0]
	message, ok := messages[first.Field+"."+first.Tag]
	if !ok {
		message, ok = messages[first.Field]
	}
	if !ok {
		message = strings.TrimSpace(first.Field + " is invalid")
	}
	return invalid(first.Field, message)
}

func isUniqueConstraintError(err error) bool {
	return database.IsUniqueViolation(err)
}
