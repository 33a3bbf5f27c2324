package domain

import (
	"net/mail"
	"strings"
)

// Email is a normalized email address: trimmed, lower-cased and RFC-shaped.
type Email string

// NewEmail normalizes and validates an email supplied at the boundary.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", NewInvalidInput("Email is required")
	}

	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", NewInvalidInput("Email is not valid")
	}

	return Email(normalized), nil
}

func (e Email) String() string { return string(e) }
