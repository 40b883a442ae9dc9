// utils/valid.go
package utils

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SanitizeInput sanitizes user input to prevent XSS and injection attacks
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = html.EscapeString(input)

	// Remove control characters
	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	return input
}

// SanitizeEmail sanitizes and validates an email address
func SanitizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !emailRegex.MatchString(email) {
		return "", errors.New("invalid email format")
	}

	return email, nil
}

// SanitizePhone sanitizes and validates a phone number. Empty or
// whitespace-only input is an error; an account identifier must never
// sanitize down to nothing.
func SanitizePhone(phone string) (string, error) {
	// Remove all non-numeric characters except +
	phone = regexp.MustCompile(`[^\d+]`).ReplaceAllString(phone, "")

	if phone == "" {
		return "", errors.New("phone number is required")
	}

	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	if len(phone) < 8 || len(phone) > 15 {
		return "", errors.New("invalid phone number length")
	}

	return phone, nil
}

// MaskIdentifier partially masks an email or phone for UI echo
func MaskIdentifier(value string) string {
	if idx := strings.Index(value, "@"); idx > 0 {
		name := value[:idx]
		domain := value[idx+1:]
		if len(name) <= 2 {
			return name[:1] + "***@" + domain
		}
		return name[:2] + strings.Repeat("*", len(name)-2) + "@" + domain
	}

	// Phone: keep the last four digits
	if len(value) > 4 {
		return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
	}
	return value
}
